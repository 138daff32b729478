package assistant

import (
	"context"
)

// stubResponse is the canned reply returned until a real llama.cpp or
// hosted backend is wired in.
const stubResponse = "Here is a suggested approach based on your request.\n\n" +
	"Example formula: `=SUM(A:A)`\n" +
	"Example Apps Script snippet:\n" +
	"```javascript\nfunction example() {\n  Logger.log('Hello from AI Assistant');\n}\n```\n"

// StubProvider implements Provider with a fixed response. It is the
// default backend and a placeholder for a future real inference call.
type StubProvider struct{}

// NewStubProvider creates a new stub provider
func NewStubProvider() *StubProvider {
	return &StubProvider{}
}

// Name returns the provider name
func (p *StubProvider) Name() string {
	return "stub"
}

// Generate returns the canned response. It never fails.
func (p *StubProvider) Generate(ctx context.Context, request GenerateRequest) (*GenerateResponse, error) {
	return &GenerateResponse{
		Content: stubResponse,
	}, nil
}
