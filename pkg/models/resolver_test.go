package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestResolver() *Resolver {
	return NewResolver(
		DefaultCatalog(),
		"phi-3.5-mini",
		map[string]string{"coder": "qwen2.5-coder-7b", "phi": "phi-3.5-mini"},
		[]string{"qwen2.5-coder-7b", "phi-3.5-mini"},
	)
}

func TestResolveEmptyChoice(t *testing.T) {
	r := newTestResolver()
	assert.Equal(t, "phi-3.5-mini", r.Resolve(""))
}

func TestResolveAlias(t *testing.T) {
	r := newTestResolver()
	assert.Equal(t, "qwen2.5-coder-7b", r.Resolve("coder"))
}

func TestResolveCatalogModel(t *testing.T) {
	r := newTestResolver()
	assert.Equal(t, "deepseek-coder-v2-lite", r.Resolve("deepseek-coder-v2-lite"))
}

func TestResolveUnknownFallsBack(t *testing.T) {
	r := newTestResolver()
	assert.Equal(t, "qwen2.5-coder-7b", r.Resolve("gpt-4"))
}

func TestResolveUnknownNoFallbackUsesDefault(t *testing.T) {
	r := NewResolver(DefaultCatalog(), "phi-3.5-mini", nil, nil)
	assert.Equal(t, "phi-3.5-mini", r.Resolve("gpt-4"))
}

func TestResolveAliasToUnknownModel(t *testing.T) {
	r := NewResolver(
		DefaultCatalog(),
		"phi-3.5-mini",
		map[string]string{"big": "llama-405b"},
		nil,
	)
	assert.Equal(t, "phi-3.5-mini", r.Resolve("big"))
}

func TestNewResolverNilCatalog(t *testing.T) {
	r := NewResolver(nil, "phi-3.5-mini", nil, nil)
	assert.NotNil(t, r.Catalog())
	assert.Equal(t, "phi-3.5-mini", r.Resolve(""))
}
