// Package storage persists the three artifacts of a discovery run: the site
// backlog, the search endpoints reverse-engineered from those sites, and the
// products extracted through the endpoints.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/FranksOps/harrier/internal/discover"
	"github.com/FranksOps/harrier/internal/product"
)

// ErrNotFound is returned by lookups that match nothing.
var ErrNotFound = errors.New("storage: not found")

// Site is one backlog entry awaiting or cycling through discovery.
type Site struct {
	URL           string
	AddedAt       time.Time
	LastCheckedAt time.Time
	// Skips counts consecutive failed discovery attempts. Sites past the
	// pipeline's skip threshold are no longer scheduled.
	Skips int
}

// Endpoint wraps a discovered search contract with its scheduling metadata.
// LastUsedAt drives the least-recently-used extraction order.
type Endpoint struct {
	discover.Endpoint
	CreatedAt  time.Time
	LastUsedAt time.Time
}

// Product is a stored extraction record. FirstSeenAt is set on insert and
// never updated; LastSeenAt advances on every re-extraction.
type Product struct {
	Platform string
	product.Record
	FirstSeenAt time.Time
	LastSeenAt  time.Time
}

// ProductFilter narrows a Products query.
type ProductFilter struct {
	Platform string
	Since    *time.Time
	Limit    int
	Offset   int
}

// Backend defines the persistence contract shared by the SQL and file
// backends.
//
// SaveEndpoint upserts by platform. SaveProducts upserts by
// (platform, product URL) and fills blanks only: a re-extraction that lost a
// field, for instance a price that a weaker strategy could not read, must not
// erase the value a previous run captured.
type Backend interface {
	AddSite(ctx context.Context, url string) error
	// OldestSite returns the least recently checked site with fewer than
	// maxSkips skips, or ErrNotFound when the backlog is exhausted.
	OldestSite(ctx context.Context, maxSkips int) (*Site, error)
	TouchSite(ctx context.Context, url string) error
	SkipSite(ctx context.Context, url string) error

	SaveEndpoint(ctx context.Context, ep *Endpoint) error
	// Endpoints returns up to limit endpoints, least recently used first.
	Endpoints(ctx context.Context, limit int) ([]*Endpoint, error)
	TouchEndpoint(ctx context.Context, platform string) error

	SaveProducts(ctx context.Context, platform string, records []product.Record) error
	Products(ctx context.Context, filter ProductFilter) ([]*Product, error)

	Close() error
}
