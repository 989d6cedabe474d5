// Package jsonbackend implements storage.Backend on a single JSON snapshot
// file. The whole state lives in memory behind a mutex and is rewritten to
// disk after every mutation; it suits single-process runs and tests where a
// database is overkill.
package jsonbackend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/FranksOps/harrier/internal/product"
	"github.com/FranksOps/harrier/internal/storage"
)

// ensure jsonBackend implements storage.Backend
var _ storage.Backend = (*jsonBackend)(nil)

type snapshot struct {
	Sites     []*storage.Site     `json:"sites"`
	Endpoints []*storage.Endpoint `json:"endpoints"`
	Products  []*storage.Product  `json:"products"`
}

type jsonBackend struct {
	mu   sync.Mutex
	path string
	data snapshot
}

// New loads (or creates) the snapshot at filePath.
func New(filePath string) (storage.Backend, error) {
	b := &jsonBackend{path: filePath}

	raw, err := os.ReadFile(filePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// fresh store
	case err != nil:
		return nil, fmt.Errorf("read snapshot %q: %w", filePath, err)
	case len(raw) > 0:
		if err := json.Unmarshal(raw, &b.data); err != nil {
			return nil, fmt.Errorf("parse snapshot %q: %w", filePath, err)
		}
	}

	return b, nil
}

// flush rewrites the snapshot. Callers hold the mutex.
func (b *jsonBackend) flush() error {
	raw, err := json.MarshalIndent(&b.data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(b.path, raw, 0644); err != nil {
		return fmt.Errorf("write snapshot %q: %w", b.path, err)
	}
	return nil
}

func (b *jsonBackend) AddSite(_ context.Context, url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, s := range b.data.Sites {
		if s.URL == url {
			return nil
		}
	}

	now := time.Now().UTC()
	b.data.Sites = append(b.data.Sites, &storage.Site{URL: url, AddedAt: now, LastCheckedAt: now})
	return b.flush()
}

func (b *jsonBackend) OldestSite(_ context.Context, maxSkips int) (*storage.Site, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var oldest *storage.Site
	for _, s := range b.data.Sites {
		if s.Skips >= maxSkips {
			continue
		}
		if oldest == nil || s.LastCheckedAt.Before(oldest.LastCheckedAt) {
			oldest = s
		}
	}
	if oldest == nil {
		return nil, storage.ErrNotFound
	}

	cp := *oldest
	return &cp, nil
}

func (b *jsonBackend) TouchSite(_ context.Context, url string) error {
	return b.updateSite(url, func(s *storage.Site) {
		s.LastCheckedAt = time.Now().UTC()
		s.Skips = 0
	})
}

func (b *jsonBackend) SkipSite(_ context.Context, url string) error {
	return b.updateSite(url, func(s *storage.Site) {
		s.LastCheckedAt = time.Now().UTC()
		s.Skips++
	})
}

func (b *jsonBackend) updateSite(url string, apply func(*storage.Site)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, s := range b.data.Sites {
		if s.URL == url {
			apply(s)
			return b.flush()
		}
	}
	return storage.ErrNotFound
}

func (b *jsonBackend) SaveEndpoint(_ context.Context, ep *storage.Endpoint) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now().UTC()
	cp := *ep
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	if cp.LastUsedAt.IsZero() {
		cp.LastUsedAt = now
	}

	for i, existing := range b.data.Endpoints {
		if existing.Platform == cp.Platform {
			cp.CreatedAt = existing.CreatedAt
			b.data.Endpoints[i] = &cp
			return b.flush()
		}
	}
	b.data.Endpoints = append(b.data.Endpoints, &cp)
	return b.flush()
}

func (b *jsonBackend) Endpoints(_ context.Context, limit int) ([]*storage.Endpoint, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]*storage.Endpoint, 0, len(b.data.Endpoints))
	for _, ep := range b.data.Endpoints {
		cp := *ep
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastUsedAt.Before(out[j].LastUsedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (b *jsonBackend) TouchEndpoint(_ context.Context, platform string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ep := range b.data.Endpoints {
		if ep.Platform == platform {
			ep.LastUsedAt = time.Now().UTC()
			return b.flush()
		}
	}
	return storage.ErrNotFound
}

func (b *jsonBackend) SaveProducts(_ context.Context, platform string, records []product.Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now().UTC()
	for _, r := range records {
		if r.ProductURL == "" {
			continue
		}
		existing := b.findProduct(platform, r.ProductURL)
		if existing == nil {
			b.data.Products = append(b.data.Products, &storage.Product{
				Platform:    platform,
				Record:      r,
				FirstSeenAt: now,
				LastSeenAt:  now,
			})
			continue
		}
		mergeRecord(&existing.Record, r)
		existing.LastSeenAt = now
	}
	return b.flush()
}

func (b *jsonBackend) findProduct(platform, productURL string) *storage.Product {
	for _, p := range b.data.Products {
		if p.Platform == platform && p.ProductURL == productURL {
			return p
		}
	}
	return nil
}

// mergeRecord copies the non-empty fields of src over dst.
func mergeRecord(dst *product.Record, src product.Record) {
	if src.Title != "" {
		dst.Title = src.Title
	}
	if src.ImageURL != "" {
		dst.ImageURL = src.ImageURL
	}
	if src.Price != nil {
		dst.Price = src.Price
	}
	if src.Currency != "" {
		dst.Currency = src.Currency
	}
	if src.RawPrice != "" {
		dst.RawPrice = src.RawPrice
	}
	if src.Rating != nil {
		dst.Rating = src.Rating
	}
	if src.ReviewCount != nil {
		dst.ReviewCount = src.ReviewCount
	}
	if src.InStock != nil {
		dst.InStock = src.InStock
	}
	if src.Brand != "" {
		dst.Brand = src.Brand
	}
	if src.SKU != "" {
		dst.SKU = src.SKU
	}
	if src.Description != "" {
		dst.Description = src.Description
	}
}

func (b *jsonBackend) Products(_ context.Context, filter storage.ProductFilter) ([]*storage.Product, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var matched []*storage.Product
	for _, p := range b.data.Products {
		if filter.Platform != "" && p.Platform != filter.Platform {
			continue
		}
		if filter.Since != nil && p.LastSeenAt.Before(*filter.Since) {
			continue
		}
		cp := *p
		matched = append(matched, &cp)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].LastSeenAt.Equal(matched[j].LastSeenAt) {
			return matched[i].LastSeenAt.After(matched[j].LastSeenAt)
		}
		return matched[i].ProductURL < matched[j].ProductURL
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (b *jsonBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flush()
}
