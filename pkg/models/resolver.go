package models

import (
	"github.com/rs/zerolog/log"
)

// Resolver maps a caller's model choice to a catalog model id using
// aliases, the catalog, and a fallback chain.
type Resolver struct {
	catalog      *Catalog
	defaultModel string
	aliases      map[string]string
	fallback     []string
}

// NewResolver creates a model resolver.
func NewResolver(catalog *Catalog, defaultModel string, aliases map[string]string, fallback []string) *Resolver {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if aliases == nil {
		aliases = map[string]string{}
	}

	return &Resolver{
		catalog:      catalog,
		defaultModel: defaultModel,
		aliases:      aliases,
		fallback:     fallback,
	}
}

// Resolve returns the catalog model id to use for the given choice. An
// empty choice resolves to the default model; an unknown choice falls
// back through the fallback chain and finally the default, so a query
// never fails on model selection alone.
func (r *Resolver) Resolve(choice string) string {
	if choice == "" {
		return r.defaultModel
	}

	if target, ok := r.aliases[choice]; ok {
		choice = target
	}

	if r.catalog.Has(choice) {
		return choice
	}

	for _, candidate := range r.fallback {
		if r.catalog.Has(candidate) {
			log.Warn().
				Str("requested", choice).
				Str("using", candidate).
				Msg("Requested model not in catalog, falling back")
			return candidate
		}
	}

	log.Warn().
		Str("requested", choice).
		Str("using", r.defaultModel).
		Msg("Requested model not in catalog, using default")

	return r.defaultModel
}

// Catalog returns the underlying catalog.
func (r *Resolver) Catalog() *Catalog {
	return r.catalog
}
