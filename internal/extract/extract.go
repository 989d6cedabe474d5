// Package extract mines a settled results page for product records. It runs
// a fixed chain of strategies from most structured to most permissive and
// stops at the first one that yields validated records, so a page with clean
// structured data never pays for the heuristic scans.
package extract

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/FranksOps/harrier/internal/heuristics"
	"github.com/FranksOps/harrier/internal/product"
)

// DefaultMaxItems caps the records returned per page when the caller does
// not supply a limit.
const DefaultMaxItems = 60

// Config tunes the extractor.
type Config struct {
	// MaxItems bounds the record count per page. Defaults to DefaultMaxItems.
	MaxItems int
	Logger   *slog.Logger
}

// Extractor runs the strategy chain over HTML snapshots.
type Extractor struct {
	maxItems int
	log      *slog.Logger
}

// New builds an Extractor from cfg, applying defaults.
func New(cfg Config) *Extractor {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = DefaultMaxItems
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Extractor{maxItems: cfg.MaxItems, log: cfg.Logger}
}

type strategy struct {
	name string
	run  func(e *Extractor, doc *goquery.Document, base *url.URL) []product.Record
}

var strategies = []strategy{
	{"dom", (*Extractor).domScan},
	{"jsonld", (*Extractor).jsonLD},
	{"microdata", (*Extractor).microdata},
	{"inline-json", (*Extractor).inlineJSON},
	{"loose-scan", (*Extractor).looseScan},
	{"anchors", (*Extractor).anchorScan},
}

// Page extracts product records from a rendered snapshot. pageURL resolves
// relative links and names the platform. A page that yields nothing is still
// a success when it carries an explicit no-results marker; without one the
// result is flagged low confidence since an unsupported layout and a truly
// empty page look identical.
func (e *Extractor) Page(doc *goquery.Document, pageURL string) product.Result {
	res := product.Result{PageURL: pageURL}
	base, err := url.Parse(pageURL)
	if err != nil {
		res.Error = "bad page url: " + err.Error()
		return res
	}
	res.Platform = base.Hostname()

	for _, s := range strategies {
		records := s.run(e, doc, base)
		valid := records[:0]
		for _, r := range records {
			if product.Valid(r) {
				valid = append(valid, r)
			}
		}
		if len(valid) == 0 {
			continue
		}
		deduped := product.Dedupe(valid)
		res.Duplicates = len(valid) - len(deduped)
		if len(deduped) > e.maxItems {
			deduped = deduped[:e.maxItems]
		}
		res.Products = deduped
		res.Strategy = s.name
		res.Success = true
		e.log.Debug("extraction succeeded",
			"platform", res.Platform, "strategy", s.name, "products", len(deduped))
		return res
	}

	res.Success = true
	if !hasNoResultsMarker(doc) {
		res.LowConfidence = true
		e.log.Debug("extraction found nothing and no empty-page marker", "platform", res.Platform)
	}
	return res
}

func hasNoResultsMarker(doc *goquery.Document) bool {
	body := strings.ToLower(doc.Find("body").Text())
	for _, phrase := range heuristics.NoResultsPhrases {
		if strings.Contains(body, phrase) {
			return true
		}
	}
	return false
}

// find runs a CSS selector that may come from a heuristic table. Selectors
// that fail to compile are skipped rather than panicking the page.
func find(sel *goquery.Selection, css string) *goquery.Selection {
	m, err := cascadia.Compile(css)
	if err != nil {
		return sel.Slice(0, 0)
	}
	return sel.FindMatcher(m)
}

func findDoc(doc *goquery.Document, css string) *goquery.Selection {
	return find(doc.Selection, css)
}
