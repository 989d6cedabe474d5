package discover

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/oxffaa/gopher-parse-sitemap"
)

// PageFetcher retrieves raw bytes over plain HTTP. Satisfied by the precheck
// client so sitemap reads share its TLS fingerprint.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// SitemapCandidates fetches a sitemap (or sitemap index, followed one level
// deep per nesting) and returns listing-like URLs worth probing for search
// endpoints: category, collection, and shop paths rather than individual
// product pages. Results are capped at limit.
type SitemapCandidates struct {
	fetcher PageFetcher
	log     *slog.Logger
}

// NewSitemapCandidates builds a sitemap reader over fetcher.
func NewSitemapCandidates(fetcher PageFetcher, logger *slog.Logger) *SitemapCandidates {
	if logger == nil {
		logger = slog.Default()
	}
	return &SitemapCandidates{fetcher: fetcher, log: logger}
}

// Fetch reads sitemapURL recursively and filters for listing-like URLs.
func (s *SitemapCandidates) Fetch(ctx context.Context, sitemapURL string, limit int) ([]string, error) {
	urls, err := s.fetchAll(ctx, sitemapURL, 0)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, u := range urls {
		if listingLike(u) {
			out = append(out, u)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

const maxSitemapDepth = 2

func (s *SitemapCandidates) fetchAll(ctx context.Context, sitemapURL string, depth int) ([]string, error) {
	if depth > maxSitemapDepth {
		return nil, nil
	}
	body, err := s.fetcher.Fetch(ctx, sitemapURL)
	if err != nil {
		return nil, fmt.Errorf("fetch sitemap %s: %w", sitemapURL, err)
	}

	var urls []string
	err = sitemap.Parse(bytes.NewReader(body), func(e sitemap.Entry) error {
		urls = append(urls, e.GetLocation())
		return nil
	})
	if err == nil && len(urls) > 0 {
		return urls, nil
	}

	// Possibly a sitemap index pointing at nested maps.
	var nested []string
	indexErr := sitemap.ParseIndex(bytes.NewReader(body), func(e sitemap.IndexEntry) error {
		nested = append(nested, e.GetLocation())
		return nil
	})
	if indexErr != nil || len(nested) == 0 {
		return nil, fmt.Errorf("parse %s as sitemap or index failed", sitemapURL)
	}
	for _, nestedURL := range nested {
		nestedURLs, err := s.fetchAll(ctx, nestedURL, depth+1)
		if err != nil {
			s.log.Warn("nested sitemap skipped", "url", nestedURL, "error", err)
			continue
		}
		urls = append(urls, nestedURLs...)
	}
	return urls, nil
}

var listingPathHints = []string{
	"/category", "/categories", "/collection", "/collections",
	"/shop", "/store", "/catalog", "/c/", "/brand",
}

func listingLike(u string) bool {
	lower := strings.ToLower(u)
	for _, hint := range listingPathHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}
