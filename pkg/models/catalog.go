package models

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"
)

// Model describes a selectable inference model.
type Model struct {
	ID            string `json:"id"`
	Name          string `json:"name,omitempty"`
	ContextWindow int    `json:"context_window,omitempty"`
	Quantization  string `json:"quantization,omitempty"`
	Description   string `json:"description,omitempty"`
}

// Catalog is the set of models a deployment offers. It is safe for
// concurrent use; Reload swaps the model set atomically.
type Catalog struct {
	mu     sync.RWMutex
	path   string
	models map[string]Model
	order  []string
}

type catalogFile struct {
	Version int     `json:"version"`
	Models  []Model `json:"models"`
}

// DefaultCatalog returns the built-in catalog used when no catalog file
// is configured.
func DefaultCatalog() *Catalog {
	c := &Catalog{models: make(map[string]Model)}
	c.replace([]Model{
		{ID: "phi-3.5-mini", Name: "Phi 3.5 Mini", ContextWindow: 128000, Quantization: "Q4_K_M"},
		{ID: "qwen2.5-coder-7b", Name: "Qwen 2.5 Coder 7B", ContextWindow: 32768, Quantization: "Q4_K_M"},
		{ID: "deepseek-coder-v2-lite", Name: "DeepSeek Coder V2 Lite", ContextWindow: 128000, Quantization: "Q4_K_M"},
	})
	return c
}

// LoadCatalog reads and validates a catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	c := &Catalog{path: path, models: make(map[string]Model)}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the catalog file, replacing the model set only when
// the new content validates.
func (c *Catalog) Reload() error {
	if c.path == "" {
		return fmt.Errorf("catalog has no backing file")
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("failed to read catalog file: %w", err)
	}

	if err := validateCatalog(data); err != nil {
		return err
	}

	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse catalog file: %w", err)
	}

	c.replace(file.Models)

	log.Info().
		Str("path", c.path).
		Int("models", len(file.Models)).
		Msg("Model catalog loaded")

	return nil
}

func validateCatalog(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(CatalogSchema)
	docLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("failed to validate catalog: %w", err)
	}

	if !result.Valid() {
		var msgs string
		for _, desc := range result.Errors() {
			if msgs != "" {
				msgs += "; "
			}
			msgs += desc.String()
		}
		return fmt.Errorf("invalid catalog: %s", msgs)
	}

	return nil
}

func (c *Catalog) replace(list []Model) {
	models := make(map[string]Model, len(list))
	order := make([]string, 0, len(list))
	for _, m := range list {
		if _, dup := models[m.ID]; dup {
			continue
		}
		models[m.ID] = m
		order = append(order, m.ID)
	}

	c.mu.Lock()
	c.models = models
	c.order = order
	c.mu.Unlock()
}

// Get returns a model by id.
func (c *Catalog) Get(id string) (Model, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.models[id]
	return m, ok
}

// Has reports whether the catalog contains the model id.
func (c *Catalog) Has(id string) bool {
	_, ok := c.Get(id)
	return ok
}

// List returns all models in catalog order.
func (c *Catalog) List() []Model {
	c.mu.RLock()
	defer c.mu.RUnlock()

	list := make([]Model, 0, len(c.order))
	for _, id := range c.order {
		list = append(list, c.models[id])
	}
	return list
}

// Path returns the backing file path, empty for the built-in catalog.
func (c *Catalog) Path() string {
	return c.path
}

// EnsureLocal is a placeholder for fetching model weights to the local
// cache. Inference currently runs against hosted providers or the stub,
// so there is nothing to download yet.
func (c *Catalog) EnsureLocal(ctx context.Context, id string) error {
	if !c.Has(id) {
		return fmt.Errorf("unknown model: %s", id)
	}

	log.Info().Str("model", id).Msg("Model download is a no-op; using hosted inference")
	return nil
}
