// Package sitefind discovers candidate e-commerce sites to feed the
// discovery backlog: a search-engine provider returns results for a shopping
// query, and a store-likelihood filter keeps only plausible storefronts.
package sitefind

import (
	"context"
	"log/slog"
)

// Candidate is one search result under consideration as a storefront.
type Candidate struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// Provider abstracts a search engine returning candidates for a query.
// Implementations may use official APIs or scraping. limit caps the result
// count.
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]Candidate, error)
}

// Finder runs a provider and filters its results down to likely stores.
type Finder struct {
	provider Provider
	log      *slog.Logger
}

// New builds a Finder over provider.
func New(provider Provider, logger *slog.Logger) *Finder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Finder{provider: provider, log: logger}
}

// FindStores searches for query and keeps candidates that look like
// storefronts. Over-fetches from the provider since the filter discards an
// unknown share.
func (f *Finder) FindStores(ctx context.Context, query string, limit int) ([]Candidate, error) {
	if limit <= 0 {
		limit = 10
	}
	raw, err := f.provider.Search(ctx, query, limit*3)
	if err != nil {
		return nil, err
	}

	var stores []Candidate
	for _, c := range raw {
		if !LooksLikeStore(c) {
			continue
		}
		stores = append(stores, c)
		if len(stores) >= limit {
			break
		}
	}
	f.log.Info("store candidates filtered", "query", query, "raw", len(raw), "stores", len(stores))
	return stores, nil
}
