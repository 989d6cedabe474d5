package precheck

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/temoto/robotstxt"
)

// Robots caches robots.txt per host and answers allow/deny questions.
// Unfetchable or unparsable robots files fail open: the site is treated as
// allowed, matching crawler convention.
type Robots struct {
	client *Client
	log    *slog.Logger
	mu     sync.RWMutex
	cache  map[string]*robotstxt.RobotsData
}

// NewRobots builds a robots auditor over client.
func NewRobots(client *Client, logger *slog.Logger) *Robots {
	if logger == nil {
		logger = slog.Default()
	}
	return &Robots{
		client: client,
		log:    logger,
		cache:  make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether targetURL may be fetched under userAgent per the
// host's robots.txt.
func (r *Robots) Allowed(ctx context.Context, targetURL, userAgent string) (bool, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false, fmt.Errorf("invalid url %q: %w", targetURL, err)
	}

	host := u.Scheme + "://" + u.Host
	data, err := r.getOrFetch(ctx, host)
	if err != nil {
		r.log.Debug("robots.txt unavailable, allowing", "host", host, "error", err)
		return true, nil
	}
	if data == nil {
		return true, nil
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return data.FindGroup(userAgent).Test(path), nil
}

// Sitemaps returns the sitemap URLs declared in the host's robots.txt.
func (r *Robots) Sitemaps(ctx context.Context, host string) ([]string, error) {
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	data, err := r.getOrFetch(ctx, host)
	if err != nil || data == nil {
		return nil, nil
	}
	return data.Sitemaps, nil
}

func (r *Robots) getOrFetch(ctx context.Context, host string) (*robotstxt.RobotsData, error) {
	r.mu.RLock()
	data, exists := r.cache[host]
	r.mu.RUnlock()
	if exists {
		return data, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if data, exists = r.cache[host]; exists {
		return data, nil
	}

	result, err := r.client.Probe(ctx, host+"/robots.txt")
	if err != nil {
		r.cache[host] = nil
		return nil, err
	}
	if result.Error != "" {
		r.cache[host] = nil
		return nil, fmt.Errorf("fetch robots.txt: %s", result.Error)
	}
	if result.StatusCode >= 400 {
		// Missing robots means everything is allowed.
		r.cache[host] = nil
		return nil, nil
	}

	parsed, err := robotstxt.FromBytes(result.Body)
	if err != nil {
		r.cache[host] = nil
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	r.cache[host] = parsed
	return parsed, nil
}
