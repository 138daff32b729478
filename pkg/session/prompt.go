package session

import (
	"encoding/json"
	"fmt"
)

// noMetadataPlaceholder is rendered into the system prompt when the
// caller supplied no spreadsheet context.
const noMetadataPlaceholder = "No spreadsheet data available"

const systemPromptTemplate = `You are an expert coding assistant specialized in Excel/Google Sheets automation and programming tasks.

Current spreadsheet context:
%s

Your expertise includes:
- Excel formula generation (VLOOKUP, INDEX/MATCH, SUMIF, PIVOT, etc.)
- VBA/Visual Basic programming
- Google Apps Script
- Data analysis and manipulation
- Financial and investment banking calculations
- JavaScript for web automation

Always provide:
1. Clear, working code solutions
2. Step-by-step explanations
3. Specific cell references and ranges
4. Copy-paste ready formulas
5. Error handling considerations

Focus on practical, production-ready solutions that integrate seamlessly with spreadsheet environments.`

// BuildSystemPrompt builds the system message content for a new session.
// The prompt is deterministic for a given metadata mapping: the fixed
// template plus a pretty-printed rendering of the metadata, or a
// placeholder when no metadata was supplied.
func BuildSystemPrompt(metadata map[string]any) string {
	return fmt.Sprintf(systemPromptTemplate, RenderMetadata(metadata))
}

// RenderMetadata pretty-prints caller metadata for prompt embedding.
func RenderMetadata(metadata map[string]any) string {
	if len(metadata) == 0 {
		return noMetadataPlaceholder
	}

	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		// Metadata arrives from a decoded JSON body, so this only fires
		// when a programmatic caller passes an unmarshalable value.
		return noMetadataPlaceholder
	}
	return string(data)
}
