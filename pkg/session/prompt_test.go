package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSystemPromptWithoutMetadata(t *testing.T) {
	prompt := BuildSystemPrompt(nil)

	assert.Contains(t, prompt, "expert coding assistant")
	assert.Contains(t, prompt, "No spreadsheet data available")
	assert.Contains(t, prompt, "Google Apps Script")
}

func TestBuildSystemPromptEmptyMetadata(t *testing.T) {
	assert.Equal(t, BuildSystemPrompt(nil), BuildSystemPrompt(map[string]any{}))
}

func TestBuildSystemPromptWithMetadata(t *testing.T) {
	metadata := map[string]any{
		"sheet": "Budget",
		"cells": map[string]any{"A1": "100"},
	}

	prompt := BuildSystemPrompt(metadata)

	assert.Contains(t, prompt, `"sheet": "Budget"`)
	assert.Contains(t, prompt, `"A1": "100"`)
	assert.NotContains(t, prompt, "No spreadsheet data available")
}

func TestBuildSystemPromptDeterministic(t *testing.T) {
	metadata := map[string]any{"sheet": "Budget", "rows": float64(12)}
	assert.Equal(t, BuildSystemPrompt(metadata), BuildSystemPrompt(metadata))
}

func TestRenderMetadataUnmarshalable(t *testing.T) {
	// Channels cannot be JSON-marshaled; fall back to the placeholder
	metadata := map[string]any{"bad": make(chan int)}
	assert.Equal(t, "No spreadsheet data available", RenderMetadata(metadata))
}
