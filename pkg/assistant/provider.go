package assistant

import (
	"context"
	"fmt"

	"github.com/sheetpilot/sheetpilot/internal/config"
	"github.com/sheetpilot/sheetpilot/pkg/session"
)

// Provider is an interface for inference backends
type Provider interface {
	// Generate produces the assistant's reply for a conversation
	Generate(ctx context.Context, request GenerateRequest) (*GenerateResponse, error)

	// Name returns the provider name
	Name() string
}

// GenerateRequest contains the request parameters for an inference call
type GenerateRequest struct {
	Model        string
	SystemPrompt string
	Messages     []session.Message
	MaxTokens    int
	Temperature  float64
}

// GenerateResponse contains the inference result
type GenerateResponse struct {
	Content string
	Usage   *TokenUsage
}

// TokenUsage tracks token consumption
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// NewProvider creates the inference provider selected by the config.
// The stub provider is the default and needs no credentials.
func NewProvider(cfg *config.Config) (Provider, error) {
	switch cfg.AI.Provider {
	case "", "stub":
		return NewStubProvider(), nil
	case "anthropic":
		profile := cfg.ProfileFor("anthropic")
		if profile == nil {
			return nil, fmt.Errorf("no anthropic profile configured")
		}
		return NewAnthropicProvider(profile.APIKey), nil
	case "openai":
		profile := cfg.ProfileFor("openai")
		if profile == nil {
			return nil, fmt.Errorf("no openai profile configured")
		}
		return NewOpenAIProvider(profile.APIKey), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.AI.Provider)
	}
}
