package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/FranksOps/harrier/internal/discover"
	"github.com/FranksOps/harrier/internal/product"
	"github.com/FranksOps/harrier/internal/storage"
)

func newTestBackend(t *testing.T) storage.Backend {
	t.Helper()
	b, err := New(filepath.Join(t.TempDir(), "harrier.db"))
	if err != nil {
		t.Fatalf("new sqlite backend: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func TestSiteRoundTrip(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	if err := b.AddSite(ctx, "https://alpha.store"); err != nil {
		t.Fatalf("add site: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if err := b.AddSite(ctx, "https://beta.shop"); err != nil {
		t.Fatalf("add site: %v", err)
	}
	if err := b.AddSite(ctx, "https://alpha.store"); err != nil {
		t.Fatalf("duplicate add should be ignored: %v", err)
	}

	s, err := b.OldestSite(ctx, 5)
	if err != nil {
		t.Fatalf("oldest site: %v", err)
	}
	if s.URL != "https://alpha.store" {
		t.Errorf("oldest = %s, want alpha.store", s.URL)
	}

	for i := 0; i < 5; i++ {
		if err := b.SkipSite(ctx, "https://alpha.store"); err != nil {
			t.Fatalf("skip site: %v", err)
		}
	}
	s, err = b.OldestSite(ctx, 5)
	if err != nil {
		t.Fatalf("oldest site: %v", err)
	}
	if s.URL != "https://beta.shop" {
		t.Errorf("skipped site still scheduled, got %s", s.URL)
	}

	if err := b.TouchSite(ctx, "https://missing.example"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("touch of unknown site = %v, want ErrNotFound", err)
	}
}

func TestEndpointRoundTrip(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	ep := &storage.Endpoint{
		Endpoint: discover.Endpoint{
			Platform:        "alpha.store",
			SearchParam:     "q",
			URLTemplate:     "https://alpha.store/search?q={query}",
			FullURLTemplate: "https://alpha.store/search?q={query}&lang=en",
			Params: []discover.Param{
				{Key: "q", Value: "kettle"},
				{Key: "lang", Value: "en"},
			},
		},
	}
	if err := b.SaveEndpoint(ctx, ep); err != nil {
		t.Fatalf("save endpoint: %v", err)
	}

	// upsert replaces the template under the same platform
	ep.URLTemplate = "https://alpha.store/search?q={query}&v=2"
	if err := b.SaveEndpoint(ctx, ep); err != nil {
		t.Fatalf("re-save endpoint: %v", err)
	}

	eps, err := b.Endpoints(ctx, 10)
	if err != nil {
		t.Fatalf("endpoints: %v", err)
	}
	if len(eps) != 1 {
		t.Fatalf("got %d endpoints, want 1", len(eps))
	}
	got := eps[0]
	if got.URLTemplate != "https://alpha.store/search?q={query}&v=2" {
		t.Errorf("template = %s", got.URLTemplate)
	}
	if len(got.Params) != 2 || got.Params[0].Key != "q" || got.Params[1].Value != "en" {
		t.Errorf("params lost in round trip: %v", got.Params)
	}

	if err := b.TouchEndpoint(ctx, "alpha.store"); err != nil {
		t.Fatalf("touch endpoint: %v", err)
	}
	if err := b.TouchEndpoint(ctx, "missing.example"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("touch of unknown endpoint = %v, want ErrNotFound", err)
	}
}

func TestProductUpsertFillsBlanks(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	rich := product.Record{
		Title:       "Vapor Kettle 1.7L",
		ProductURL:  "https://alpha.store/p/kettle",
		Price:       product.Float(34.5),
		Currency:    "EUR",
		ReviewCount: product.Int(96),
		InStock:     product.Bool(true),
	}
	if err := b.SaveProducts(ctx, "alpha.store", []product.Record{rich}); err != nil {
		t.Fatalf("save products: %v", err)
	}

	poor := product.Record{
		Title:      "Vapor Kettle 1.7L",
		ProductURL: "https://alpha.store/p/kettle",
		ImageURL:   "https://alpha.store/img/kettle.jpg",
	}
	if err := b.SaveProducts(ctx, "alpha.store", []product.Record{poor}); err != nil {
		t.Fatalf("re-save products: %v", err)
	}

	got, err := b.Products(ctx, storage.ProductFilter{Platform: "alpha.store"})
	if err != nil {
		t.Fatalf("products: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d products, want 1", len(got))
	}
	p := got[0]
	if p.Price == nil || *p.Price != 34.5 {
		t.Errorf("price erased by weaker pass: %v", p.Price)
	}
	if p.ReviewCount == nil || *p.ReviewCount != 96 {
		t.Errorf("review count erased: %v", p.ReviewCount)
	}
	if p.InStock == nil || !*p.InStock {
		t.Errorf("stock flag erased: %v", p.InStock)
	}
	if p.ImageURL != "https://alpha.store/img/kettle.jpg" {
		t.Errorf("image not filled: %q", p.ImageURL)
	}
}

func TestProductsFilter(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	recs := []product.Record{
		{Title: "Lamp", ProductURL: "https://alpha.store/p/lamp"},
		{Title: "Chair", ProductURL: "https://alpha.store/p/chair"},
	}
	if err := b.SaveProducts(ctx, "alpha.store", recs); err != nil {
		t.Fatalf("save products: %v", err)
	}
	if err := b.SaveProducts(ctx, "beta.shop", []product.Record{
		{Title: "Desk", ProductURL: "https://beta.shop/p/desk"},
	}); err != nil {
		t.Fatalf("save products: %v", err)
	}

	got, err := b.Products(ctx, storage.ProductFilter{Platform: "alpha.store"})
	if err != nil {
		t.Fatalf("products: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("platform filter got %d products, want 2", len(got))
	}

	got, err = b.Products(ctx, storage.ProductFilter{Limit: 1})
	if err != nil {
		t.Fatalf("products: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("limit got %d products, want 1", len(got))
	}

	// blank product URLs never reach storage
	if err := b.SaveProducts(ctx, "alpha.store", []product.Record{{Title: "Ghost"}}); err != nil {
		t.Fatalf("save products: %v", err)
	}
	got, _ = b.Products(ctx, storage.ProductFilter{})
	if len(got) != 3 {
		t.Errorf("got %d products after blank-URL save, want 3", len(got))
	}
}
