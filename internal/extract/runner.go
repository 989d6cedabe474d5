package extract

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/FranksOps/harrier/internal/browser"
	"github.com/FranksOps/harrier/internal/product"
)

// Opener supplies settled pages. Satisfied by *browser.Browser.
type Opener interface {
	Open(ctx context.Context, url string) (*browser.ReadyPage, error)
}

// Runner ties the extractor to live pages. One browser session is acquired
// per call and released on every exit path.
type Runner struct {
	opener Opener
	log    *slog.Logger
	cfg    Config
}

// NewRunner builds a Runner over opener.
func NewRunner(opener Opener, cfg Config) *Runner {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Runner{opener: opener, log: cfg.Logger, cfg: cfg}
}

// Extract loads resultsURL, settles it, and runs the strategy chain over the
// snapshot. maxItems <= 0 keeps the configured default. Errors are folded
// into the result so callers always get a persistable record of the attempt.
func (r *Runner) Extract(ctx context.Context, resultsURL string, maxItems int) product.Result {
	start := time.Now()
	res := product.Result{
		ID:        uuid.NewString(),
		PageURL:   resultsURL,
		CreatedAt: start,
	}

	page, err := r.opener.Open(ctx, resultsURL)
	if err != nil {
		r.log.Warn("extraction page load failed", "url", resultsURL, "error", err)
		res.Error = err.Error()
		res.Duration = time.Since(start)
		return res
	}
	defer page.Close()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		res.Error = "parse page: " + err.Error()
		res.Duration = time.Since(start)
		return res
	}

	cfg := r.cfg
	if maxItems > 0 {
		cfg.MaxItems = maxItems
	}
	out := New(cfg).Page(doc, page.URL)
	out.ID = res.ID
	out.CreatedAt = start
	out.Duration = time.Since(start)
	r.log.Info("extraction finished",
		"url", page.URL,
		"strategy", out.Strategy,
		"products", len(out.Products),
		"low_confidence", out.LowConfidence,
		"duration", out.Duration)
	return out
}
