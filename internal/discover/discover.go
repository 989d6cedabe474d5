package discover

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/FranksOps/harrier/internal/browser"
)

// Opener supplies settled pages. Satisfied by *browser.Browser.
type Opener interface {
	Open(ctx context.Context, url string) (*browser.ReadyPage, error)
}

// Config tunes the discoverer.
type Config struct {
	// Parallelism bounds concurrent site probes in DiscoverAll. Defaults to 3.
	Parallelism int
	Logger      *slog.Logger
}

// Discoverer runs the locate-then-synthesize flow against live sites.
type Discoverer struct {
	opener      Opener
	locator     *Locator
	synth       *Synthesizer
	parallelism int
	log         *slog.Logger
}

// New builds a Discoverer over opener.
func New(opener Opener, cfg Config) *Discoverer {
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 3
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Discoverer{
		opener:      opener,
		locator:     NewLocator(cfg.Logger),
		synth:       NewSynthesizer(cfg.Logger),
		parallelism: cfg.Parallelism,
		log:         cfg.Logger,
	}
}

// Discover probes one site with probeTerm and returns its search endpoint.
// The browser session is scoped to this call and released on every path.
func (d *Discoverer) Discover(ctx context.Context, siteURL, probeTerm string) (Endpoint, error) {
	page, err := d.opener.Open(ctx, siteURL)
	if err != nil {
		return Endpoint{}, fmt.Errorf("open %s: %w", siteURL, err)
	}
	defer page.Close()

	input, err := d.locator.Locate(ctx, page.Session)
	if err != nil {
		return Endpoint{}, fmt.Errorf("locate input on %s: %w", siteURL, err)
	}
	d.log.Debug("probing search input", "site", siteURL, "family", input.Family, "selector", input.Query.Expr)

	ep, err := d.synth.Synthesize(ctx, page.Session, input, probeTerm)
	if err != nil {
		return Endpoint{}, fmt.Errorf("synthesize template for %s: %w", siteURL, err)
	}
	return ep, nil
}

// Outcome is one site's discovery result in a batch.
type Outcome struct {
	Endpoint Endpoint
	Err      error
}

// DiscoverAll probes sites concurrently through a bounded worker pool and
// collects results keyed by site URL. Workers share no state; one site
// failing never stops its siblings.
func (d *Discoverer) DiscoverAll(ctx context.Context, sites []string, probeTerm string) map[string]Outcome {
	var (
		mu  sync.Mutex
		out = make(map[string]Outcome, len(sites))
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.parallelism)
	for _, site := range sites {
		g.Go(func() error {
			ep, err := d.Discover(ctx, site, probeTerm)
			mu.Lock()
			out[site] = Outcome{Endpoint: ep, Err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // workers fold their errors into out
	return out
}
