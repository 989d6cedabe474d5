// Package pipeline orchestrates the two long-running loops: discovery, which
// turns backlog sites into search endpoints, and extraction, which turns
// endpoints into stored products.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/FranksOps/harrier/internal/discover"
	"github.com/FranksOps/harrier/internal/metrics"
	"github.com/FranksOps/harrier/internal/precheck"
	"github.com/FranksOps/harrier/internal/product"
	"github.com/FranksOps/harrier/internal/sitefind"
	"github.com/FranksOps/harrier/internal/storage"
)

// SiteScreener gates sites before a browser session is spent on them.
// Satisfied by *precheck.Screener.
type SiteScreener interface {
	Screen(ctx context.Context, siteURL string) (*precheck.Report, error)
}

// EndpointDiscoverer probes one site for its search endpoint. Satisfied by
// *discover.Discoverer.
type EndpointDiscoverer interface {
	Discover(ctx context.Context, siteURL, probeTerm string) (discover.Endpoint, error)
}

// ListingExtractor mines one results page. Satisfied by *extract.Runner.
type ListingExtractor interface {
	Extract(ctx context.Context, resultsURL string, maxItems int) product.Result
}

// SiteSource supplies new storefront candidates. Satisfied by
// *sitefind.Finder.
type SiteSource interface {
	FindStores(ctx context.Context, query string, limit int) ([]sitefind.Candidate, error)
}

// Pacer spaces out work. Satisfied by *ratelimit.Limiter.
type Pacer interface {
	Wait(ctx context.Context) error
}

var defaultProbeTerms = []string{"laptop", "headphones", "backpack", "kettle"}

// DiscoveryConfig tunes the discovery loop.
type DiscoveryConfig struct {
	// ProbeTerms are cycled across sites so one stuck query does not poison
	// every probe. Defaults to a generic shopping vocabulary.
	ProbeTerms []string
	// SkipThreshold retires a site after this many consecutive failures.
	// Defaults to 5.
	SkipThreshold int
	// SeedQuery, when set, asks the site source for fresh candidates before
	// each cycle.
	SeedQuery string
	// SeedLimit caps candidates per seeding round. Defaults to 10.
	SeedLimit int
	// CycleSize bounds sites probed per cycle before the idle pause, keeping
	// a backlog of recycled sites from spinning the loop hot. Defaults to 10.
	CycleSize int
	// IdleWait is the pause when the backlog is empty. Defaults to 30s.
	IdleWait time.Duration
	Logger   *slog.Logger
}

func (c DiscoveryConfig) withDefaults() DiscoveryConfig {
	if len(c.ProbeTerms) == 0 {
		c.ProbeTerms = defaultProbeTerms
	}
	if c.SkipThreshold <= 0 {
		c.SkipThreshold = 5
	}
	if c.SeedLimit <= 0 {
		c.SeedLimit = 10
	}
	if c.CycleSize <= 0 {
		c.CycleSize = 10
	}
	if c.IdleWait <= 0 {
		c.IdleWait = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// DiscoveryPipeline cycles the site backlog oldest-first: screen, probe,
// persist the endpoint or record the skip.
type DiscoveryPipeline struct {
	store      storage.Backend
	screener   SiteScreener
	discoverer EndpointDiscoverer
	finder     SiteSource
	limiter    Pacer
	cfg        DiscoveryConfig
	log        *slog.Logger

	mu      sync.Mutex
	termIdx int
}

// NewDiscovery builds the discovery loop. finder and limiter may be nil.
func NewDiscovery(store storage.Backend, screener SiteScreener, discoverer EndpointDiscoverer, finder SiteSource, limiter Pacer, cfg DiscoveryConfig) *DiscoveryPipeline {
	cfg = cfg.withDefaults()
	return &DiscoveryPipeline{
		store:      store,
		screener:   screener,
		discoverer: discoverer,
		finder:     finder,
		limiter:    limiter,
		cfg:        cfg,
		log:        cfg.Logger,
	}
}

func (p *DiscoveryPipeline) nextTerm() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	term := p.cfg.ProbeTerms[p.termIdx%len(p.cfg.ProbeTerms)]
	p.termIdx++
	return term
}

// Seed pulls fresh storefront candidates into the backlog. A nil site source
// or empty seed query makes it a no-op.
func (p *DiscoveryPipeline) Seed(ctx context.Context) error {
	if p.finder == nil || p.cfg.SeedQuery == "" {
		return nil
	}
	candidates, err := p.finder.FindStores(ctx, p.cfg.SeedQuery, p.cfg.SeedLimit)
	if err != nil {
		return fmt.Errorf("seed backlog: %w", err)
	}
	for _, c := range candidates {
		if err := p.store.AddSite(ctx, c.URL); err != nil {
			return fmt.Errorf("add site %s: %w", c.URL, err)
		}
	}
	p.log.Info("backlog seeded", "query", p.cfg.SeedQuery, "candidates", len(candidates))
	return nil
}

// RunOnce processes the single oldest eligible site. It returns
// storage.ErrNotFound when the backlog is empty; a site that fails screening
// or discovery is skipped, not an error.
func (p *DiscoveryPipeline) RunOnce(ctx context.Context) error {
	site, err := p.store.OldestSite(ctx, p.cfg.SkipThreshold)
	if err != nil {
		return err
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	report, err := p.screener.Screen(ctx, site.URL)
	if err != nil {
		return fmt.Errorf("screen %s: %w", site.URL, err)
	}
	if !report.Reachable || report.Blocked || !report.RobotsAllowed {
		p.log.Info("site skipped at screening",
			"site", site.URL,
			"reachable", report.Reachable,
			"blocked", report.Blocked,
			"wall", report.WallVendor,
			"robots_allowed", report.RobotsAllowed)
		return p.store.SkipSite(ctx, site.URL)
	}

	term := p.nextTerm()
	ep, err := p.discoverer.Discover(ctx, site.URL, term)
	if err != nil {
		metrics.RecordDiscovery(false, err)
		p.log.Warn("discovery failed", "site", site.URL, "term", term, "error", err)
		return p.store.SkipSite(ctx, site.URL)
	}

	stored := &storage.Endpoint{Endpoint: ep}
	if err := p.store.SaveEndpoint(ctx, stored); err != nil {
		return fmt.Errorf("save endpoint for %s: %w", site.URL, err)
	}
	metrics.RecordDiscovery(stored.Degraded(), nil)
	p.log.Info("endpoint discovered",
		"site", site.URL,
		"platform", ep.Platform,
		"param", ep.SearchParam,
		"degraded", ep.Degraded())
	return p.store.TouchSite(ctx, site.URL)
}

// Run loops until ctx is cancelled, seeding and then draining the backlog.
func (p *DiscoveryPipeline) Run(ctx context.Context) error {
	for {
		if err := p.Seed(ctx); err != nil {
			p.log.Warn("seeding failed", "error", err)
		}

		for i := 0; i < p.cfg.CycleSize; i++ {
			err := p.RunOnce(ctx)
			if err == nil {
				continue
			}
			if errors.Is(err, storage.ErrNotFound) {
				break
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.log.Warn("discovery cycle error", "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.cfg.IdleWait):
		}
	}
}

// ExtractionConfig tunes the extraction loop.
type ExtractionConfig struct {
	// Terms are search queries substituted into endpoint templates, cycled
	// per endpoint. Defaults to the probe vocabulary.
	Terms []string
	// Parallelism bounds concurrent extractions. Defaults to 3.
	Parallelism int
	// BatchSize is how many endpoints one cycle claims, least recently used
	// first. Defaults to 10.
	BatchSize int
	// MaxItems caps products per page; zero keeps the extractor default.
	MaxItems int
	// IdleWait is the pause between cycles. Defaults to 30s.
	IdleWait time.Duration
	Logger   *slog.Logger
}

func (c ExtractionConfig) withDefaults() ExtractionConfig {
	if len(c.Terms) == 0 {
		c.Terms = defaultProbeTerms
	}
	if c.Parallelism <= 0 {
		c.Parallelism = 3
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.IdleWait <= 0 {
		c.IdleWait = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// ExtractionPipeline drains stored endpoints least recently used first,
// substitutes a query term, and persists whatever the strategy chain mines.
type ExtractionPipeline struct {
	store     storage.Backend
	extractor ListingExtractor
	limiter   Pacer
	cfg       ExtractionConfig
	log       *slog.Logger
}

// NewExtraction builds the extraction loop. limiter may be nil.
func NewExtraction(store storage.Backend, extractor ListingExtractor, limiter Pacer, cfg ExtractionConfig) *ExtractionPipeline {
	cfg = cfg.withDefaults()
	return &ExtractionPipeline{
		store:     store,
		extractor: extractor,
		limiter:   limiter,
		cfg:       cfg,
		log:       cfg.Logger,
	}
}

// RunOnce claims one batch of endpoints and extracts them concurrently. It
// returns the per-endpoint results and storage.ErrNotFound when no endpoints
// exist yet.
func (p *ExtractionPipeline) RunOnce(ctx context.Context) ([]*product.Result, error) {
	endpoints, err := p.store.Endpoints(ctx, p.cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("load endpoints: %w", err)
	}
	if len(endpoints) == 0 {
		return nil, storage.ErrNotFound
	}

	var (
		mu      sync.Mutex
		results []*product.Result
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Parallelism)

	for i, ep := range endpoints {
		term := p.cfg.Terms[i%len(p.cfg.Terms)]
		g.Go(func() error {
			if p.limiter != nil {
				if err := p.limiter.Wait(gctx); err != nil {
					return err
				}
			}

			target := ep.Substitute(term)
			res := p.extractor.Extract(gctx, target, p.cfg.MaxItems)
			if res.Platform == "" {
				res.Platform = ep.Platform
			}
			metrics.RecordExtraction(&res)

			if res.Error == "" {
				if err := p.store.SaveProducts(gctx, res.Platform, res.Products); err != nil {
					return fmt.Errorf("save products for %s: %w", ep.Platform, err)
				}
			}
			if err := p.store.TouchEndpoint(gctx, ep.Platform); err != nil {
				return fmt.Errorf("touch endpoint %s: %w", ep.Platform, err)
			}

			mu.Lock()
			results = append(results, &res)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Run loops until ctx is cancelled.
func (p *ExtractionPipeline) Run(ctx context.Context) error {
	for {
		results, err := p.RunOnce(ctx)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			// nothing discovered yet
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.log.Warn("extraction cycle error", "error", err)
		default:
			total := 0
			for _, r := range results {
				total += len(r.Products)
			}
			p.log.Info("extraction cycle finished", "endpoints", len(results), "products", total)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.cfg.IdleWait):
		}
	}
}
