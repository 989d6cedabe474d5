package sitefind

import (
	"context"
	"errors"
	"testing"
)

func TestLooksLikeStore(t *testing.T) {
	cases := []struct {
		name string
		cand Candidate
		want bool
	}{
		{
			name: "commerce tld alone",
			cand: Candidate{URL: "https://glowhome.store/about"},
			want: true,
		},
		{
			name: "domain keyword alone is not enough",
			cand: Candidate{URL: "https://bookshop.example.com/blog/reading-list"},
			want: false,
		},
		{
			name: "domain keyword plus product path",
			cand: Candidate{URL: "https://bookshop.example.com/products/atlas"},
			want: true,
		},
		{
			name: "domain keyword plus text signal",
			cand: Candidate{
				URL:     "https://megamart.example.in/",
				Snippet: "Free shipping on orders over Rs. 499",
			},
			want: true,
		},
		{
			name: "path and text without commerce domain",
			cand: Candidate{
				URL:   "https://example.org/shop/kettles",
				Title: "Kettles - Shop online",
			},
			want: true,
		},
		{
			name: "news article",
			cand: Candidate{
				URL:     "https://news.example.com/articles/retail-trends-2026",
				Title:   "Retail trends to watch",
				Snippet: "Analysts expect growth in the sector.",
			},
			want: false,
		},
		{
			name: "invalid url",
			cand: Candidate{URL: "://not-a-url"},
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := LooksLikeStore(tc.cand); got != tc.want {
				t.Errorf("LooksLikeStore(%q) = %v, want %v", tc.cand.URL, got, tc.want)
			}
		})
	}
}

type stubProvider struct {
	results []Candidate
	err     error

	gotQuery string
	gotLimit int
}

func (s *stubProvider) Search(_ context.Context, query string, limit int) ([]Candidate, error) {
	s.gotQuery = query
	s.gotLimit = limit
	return s.results, s.err
}

func TestFinder_FindStores(t *testing.T) {
	p := &stubProvider{results: []Candidate{
		{URL: "https://news.example.com/articles/retail-trends"},
		{URL: "https://alpha.store/"},
		{URL: "https://bookshop.example.com/products/atlas"},
		{URL: "https://example.org/wiki/kettle"},
		{URL: "https://beta.shop/"},
	}}
	f := New(p, nil)

	stores, err := f.FindStores(context.Background(), "buy kettle online", 2)
	if err != nil {
		t.Fatalf("FindStores: %v", err)
	}
	if p.gotLimit != 6 {
		t.Errorf("provider limit = %d, want over-fetch of 6", p.gotLimit)
	}
	if len(stores) != 2 {
		t.Fatalf("got %d stores, want 2", len(stores))
	}
	if stores[0].URL != "https://alpha.store/" || stores[1].URL != "https://bookshop.example.com/products/atlas" {
		t.Errorf("unexpected stores %v", stores)
	}
}

func TestFinder_FindStoresProviderError(t *testing.T) {
	p := &stubProvider{err: errors.New("quota exceeded")}
	f := New(p, nil)
	if _, err := f.FindStores(context.Background(), "kettle", 5); err == nil {
		t.Fatal("expected provider error")
	}
}
