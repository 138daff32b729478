package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sheetpilot/sheetpilot/internal/observability"
	"github.com/sheetpilot/sheetpilot/internal/tracing"
	"github.com/sheetpilot/sheetpilot/pkg/models"
	"github.com/sheetpilot/sheetpilot/pkg/session"
)

const codingPromptTemplate = `Your expertise includes:
- Excel formula generation (VLOOKUP, INDEX/MATCH, SUMIF, etc.)
- VBA/Visual Basic programming
- Google Apps Script
- Data analysis and manipulation
- Financial and investment banking calculations
- Code generation in multiple programming languages

Spreadsheet Context: %s

User Request: %s

Please provide a practical solution with:
1. Working code/formulas
2. Clear explanations
3. Integration steps for Google Sheets/Excel
4. Specific cell references where applicable
5. Error handling considerations

Focus on practical, production-ready code that integrates well with spreadsheet environments.`

// noSpreadsheetPlaceholder is rendered into the coding prompt when the
// request carries no spreadsheet metadata.
const noSpreadsheetPlaceholder = "No spreadsheet loaded"

// QueryParams contains the input for one assistant query
type QueryParams struct {
	SessionID string         `json:"session_id"`
	Prompt    string         `json:"prompt"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Model     string         `json:"model,omitempty"`
}

// QueryResult contains the outcome of one assistant query
type QueryResult struct {
	SessionID string         `json:"session_id"`
	Response  string         `json:"response"`
	ModelUsed string         `json:"model_used"`
	Metadata  map[string]any `json:"metadata"`
}

// Runner orchestrates one query: it appends the context-augmented user
// turn to the session, asks the provider for a reply, appends that
// reply, and returns the result.
type Runner struct {
	store    session.Store
	provider Provider
	resolver *models.Resolver
}

// NewRunner creates a query runner.
func NewRunner(store session.Store, provider Provider, resolver *models.Resolver) *Runner {
	return &Runner{
		store:    store,
		provider: provider,
		resolver: resolver,
	}
}

// Query runs one inference round trip against a session.
func (r *Runner) Query(ctx context.Context, params QueryParams) (*QueryResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = tracing.WithSessionID(ctx, params.SessionID)
	ctx, span := tracing.StartSpan(
		ctx,
		"sheetpilot.assistant",
		"assistant.query",
		attribute.String("session_id", params.SessionID),
		attribute.String("model", params.Model),
	)
	defer span.End()
	logger := tracing.LoggerFromContext(ctx, log.Logger)

	model := r.resolver.Resolve(params.Model)
	start := time.Now()

	codingPrompt := buildCodingPrompt(params.Prompt, params.Metadata)
	messages := r.store.Append(ctx, params.SessionID, session.RoleUser, codingPrompt, params.Metadata)

	systemPrompt, turns := splitSystemPrompt(messages)

	providerStart := time.Now()
	response, err := r.provider.Generate(ctx, GenerateRequest{
		Model:        model,
		SystemPrompt: systemPrompt,
		Messages:     turns,
	})
	observability.RecordProviderCall(r.provider.Name(), time.Since(providerStart), err == nil)
	if err != nil {
		observability.RecordQuery(model, time.Since(start), false)
		logger.Error().
			Err(err).
			Str("provider", r.provider.Name()).
			Str("model", model).
			Msg("Inference call failed")
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	r.store.Append(ctx, params.SessionID, session.RoleAssistant, response.Content, params.Metadata)

	observability.RecordQuery(model, time.Since(start), true)
	logger.Debug().
		Str("provider", r.provider.Name()).
		Str("model", model).
		Int("messages", len(messages)+1).
		Msg("Query completed")

	metadata := params.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	return &QueryResult{
		SessionID: params.SessionID,
		Response:  response.Content,
		ModelUsed: model,
		Metadata:  metadata,
	}, nil
}

// buildCodingPrompt augments the raw user request with the fixed
// expertise framing and the spreadsheet context.
func buildCodingPrompt(prompt string, metadata map[string]any) string {
	contextText := noSpreadsheetPlaceholder
	if len(metadata) > 0 {
		contextText = session.RenderMetadata(metadata)
	}
	return fmt.Sprintf(codingPromptTemplate, contextText, prompt)
}

// splitSystemPrompt separates the leading system message from the
// conversation turns.
func splitSystemPrompt(messages []session.Message) (string, []session.Message) {
	if len(messages) > 0 && messages[0].Role == session.RoleSystem {
		return messages[0].Content, messages[1:]
	}
	return "", messages
}
