// Command harrier discovers search endpoints on unknown e-commerce sites and
// extracts product listings through them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/FranksOps/harrier/internal/browser"
	"github.com/FranksOps/harrier/internal/discover"
	"github.com/FranksOps/harrier/internal/extract"
	"github.com/FranksOps/harrier/internal/metrics"
	"github.com/FranksOps/harrier/internal/pipeline"
	"github.com/FranksOps/harrier/internal/precheck"
	"github.com/FranksOps/harrier/internal/report"
	"github.com/FranksOps/harrier/internal/sitefind"
	"github.com/FranksOps/harrier/internal/storage"
	"github.com/FranksOps/harrier/internal/storage/csvexport"
	"github.com/FranksOps/harrier/internal/storage/jsonbackend"
	"github.com/FranksOps/harrier/internal/storage/postgres"
	"github.com/FranksOps/harrier/internal/storage/sqlite"
	"github.com/FranksOps/harrier/pkg/httpclient"
	"github.com/FranksOps/harrier/pkg/proxy"
	"github.com/FranksOps/harrier/pkg/ratelimit"
)

type options struct {
	mode        string
	storeKind   string
	dsn         string
	metricsPort int

	sites     string
	seedQuery string
	terms     string

	headless    bool
	parallelism int
	maxItems    int
	rps         float64
	proxyFile   string
	once        bool

	exportPath string

	logLevel string
	logJSON  bool
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.mode, "mode", "run", "discover, extract, run (both, alias serve), or export")
	flag.StringVar(&o.storeKind, "store", "sqlite", "storage backend: sqlite, postgres, or json")
	flag.StringVar(&o.dsn, "dsn", "harrier.db", "backend DSN or file path")
	flag.IntVar(&o.metricsPort, "metrics-port", 0, "serve /metrics and /health on this port (0 disables)")
	flag.StringVar(&o.sites, "sites", "", "comma-separated site URLs to add to the backlog")
	flag.StringVar(&o.seedQuery, "seed-query", "", "shopping query used to find new storefronts")
	flag.StringVar(&o.terms, "terms", "", "comma-separated search terms for probing and extraction")
	flag.BoolVar(&o.headless, "headless", true, "run the browser headless")
	flag.IntVar(&o.parallelism, "parallelism", 3, "concurrent extractions")
	flag.IntVar(&o.maxItems, "max-items", 0, "max products per page (0 = default)")
	flag.Float64Var(&o.rps, "rps", 0.5, "requests per second across sites")
	flag.StringVar(&o.proxyFile, "proxy-file", "", "file with proxy URLs, one per line")
	flag.BoolVar(&o.once, "once", false, "run a single cycle, print a summary, and exit")
	flag.StringVar(&o.exportPath, "out", "products.csv", "CSV path for export mode")
	flag.StringVar(&o.logLevel, "log-level", "info", "debug, info, warn, or error")
	flag.BoolVar(&o.logJSON, "log-json", false, "log JSON instead of text")
	flag.Parse()
	if o.mode == "serve" {
		o.mode = "run"
	}
	return o
}

func newLogger(o options) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(o.logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if o.logJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func openBackend(ctx context.Context, o options) (storage.Backend, error) {
	switch o.storeKind {
	case "sqlite":
		return sqlite.New(o.dsn)
	case "postgres":
		return postgres.New(ctx, o.dsn)
	case "json":
		return jsonbackend.New(o.dsn)
	default:
		return nil, fmt.Errorf("unknown store %q", o.storeKind)
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func main() {
	o := parseFlags()
	log := newLogger(o)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("harrier exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o options, log *slog.Logger) error {
	store, err := openBackend(ctx, o)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	if o.metricsPort > 0 {
		srv := metrics.Start(o.metricsPort)
		defer srv.Stop(context.Background())
		log.Info("metrics server started", "port", o.metricsPort)
	}

	for _, site := range splitList(o.sites) {
		if err := store.AddSite(ctx, site); err != nil {
			return fmt.Errorf("add site %s: %w", site, err)
		}
	}

	if o.mode == "export" {
		products, err := store.Products(ctx, storage.ProductFilter{})
		if err != nil {
			return fmt.Errorf("load products: %w", err)
		}
		if err := csvexport.WriteFile(o.exportPath, products); err != nil {
			return err
		}
		log.Info("products exported", "path", o.exportPath, "count", len(products))
		return nil
	}

	limiter := ratelimit.NewLimiter(o.rps, 0.3)
	defer limiter.Stop()

	var proxies *proxy.Pool
	if o.proxyFile != "" {
		proxies = proxy.NewPool(proxy.Config{})
		if err := proxies.LoadFile(o.proxyFile); err != nil {
			return fmt.Errorf("load proxies: %w", err)
		}
	}

	client, err := precheck.NewClient(precheck.Config{ProxyPool: proxies})
	if err != nil {
		return fmt.Errorf("build precheck client: %w", err)
	}
	screener := precheck.NewScreener(client, log)

	b := browser.New(browser.Config{Headless: o.headless, Logger: log})
	defer b.Close()

	terms := splitList(o.terms)
	discoverer := discover.New(b, discover.Config{Parallelism: o.parallelism, Logger: log})
	extractor := extract.NewRunner(b, extract.Config{MaxItems: o.maxItems, Logger: log})

	var finder pipeline.SiteSource
	if o.seedQuery != "" {
		apiKey := os.Getenv("GOOGLE_API_KEY")
		engineID := os.Getenv("GOOGLE_CSE_ID")
		if apiKey == "" || engineID == "" {
			return errors.New("seed-query requires GOOGLE_API_KEY and GOOGLE_CSE_ID")
		}
		hc, err := httpclient.New(httpclient.Config{})
		if err != nil {
			return fmt.Errorf("build search client: %w", err)
		}
		finder = sitefind.New(sitefind.NewGoogleCSE(hc, apiKey, engineID), log)
	}

	discovery := pipeline.NewDiscovery(store, screener, discoverer, finder, limiter, pipeline.DiscoveryConfig{
		ProbeTerms: terms,
		SeedQuery:  o.seedQuery,
		Logger:     log,
	})
	extraction := pipeline.NewExtraction(store, extractor, limiter, pipeline.ExtractionConfig{
		Terms:       terms,
		Parallelism: o.parallelism,
		MaxItems:    o.maxItems,
		Logger:      log,
	})

	if o.once {
		return runOnce(ctx, o, discovery, extraction, log)
	}

	g, ctx := errgroup.WithContext(ctx)
	switch o.mode {
	case "discover":
		g.Go(func() error { return supervise(ctx, "discovery", log, discovery.Run) })
	case "extract":
		g.Go(func() error { return supervise(ctx, "extraction", log, extraction.Run) })
	case "run":
		g.Go(func() error { return supervise(ctx, "discovery", log, discovery.Run) })
		g.Go(func() error { return supervise(ctx, "extraction", log, extraction.Run) })
	default:
		return fmt.Errorf("unknown mode %q", o.mode)
	}
	return g.Wait()
}

// runOnce drains one discovery cycle, runs one extraction batch, and prints
// a text summary to stdout.
func runOnce(ctx context.Context, o options, discovery *pipeline.DiscoveryPipeline, extraction *pipeline.ExtractionPipeline, log *slog.Logger) error {
	if err := discovery.Seed(ctx); err != nil {
		log.Warn("seeding failed", "error", err)
	}

	if o.mode == "discover" || o.mode == "run" {
		// successful sites rotate back into the backlog, so bound the pass
		const siteCap = 25
		for i := 0; i < siteCap; i++ {
			err := discovery.RunOnce(ctx)
			if errors.Is(err, storage.ErrNotFound) {
				break
			}
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Warn("discovery error", "error", err)
			}
		}
	}

	if o.mode == "extract" || o.mode == "run" {
		results, err := extraction.RunOnce(ctx)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		summary := report.GenerateSummary(results)
		if err := report.WriteText(os.Stdout, summary); err != nil {
			return err
		}
	}
	return nil
}

// supervise restarts fn when it returns an unexpected error, backing off
// between restarts, until ctx is cancelled.
func supervise(ctx context.Context, name string, log *slog.Logger, fn func(context.Context) error) error {
	const backoff = 5 * time.Second
	for {
		err := fn(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Error("pipeline stopped, restarting", "pipeline", name, "error", err, "backoff", backoff)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}
