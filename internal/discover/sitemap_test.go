package discover

import (
	"context"
	"errors"
	"testing"
)

type mapFetcher map[string]string

func (m mapFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	body, ok := m[url]
	if !ok {
		return nil, errors.New("not found")
	}
	return []byte(body), nil
}

const flatSitemap = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://shop.example/collections/shoes</loc></url>
  <url><loc>https://shop.example/about-us</loc></url>
  <url><loc>https://shop.example/category/bags</loc></url>
</urlset>`

func TestSitemapCandidatesFlat(t *testing.T) {
	fetcher := mapFetcher{"https://shop.example/sitemap.xml": flatSitemap}
	sc := NewSitemapCandidates(fetcher, nil)

	urls, err := sc.Fetch(context.Background(), "https://shop.example/sitemap.xml", 0)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(urls) != 2 {
		t.Fatalf("urls = %v, want the two listing-like entries", urls)
	}
	for _, u := range urls {
		if u == "https://shop.example/about-us" {
			t.Fatal("non-listing url passed the filter")
		}
	}
}

func TestSitemapCandidatesIndex(t *testing.T) {
	fetcher := mapFetcher{
		"https://shop.example/sitemap_index.xml": `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>https://shop.example/sitemap1.xml</loc></sitemap>
  <sitemap><loc>https://shop.example/sitemap2.xml</loc></sitemap>
</sitemapindex>`,
		"https://shop.example/sitemap1.xml": flatSitemap,
		"https://shop.example/sitemap2.xml": `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://shop.example/shop/sale</loc></url>
</urlset>`,
	}
	sc := NewSitemapCandidates(fetcher, nil)

	urls, err := sc.Fetch(context.Background(), "https://shop.example/sitemap_index.xml", 0)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(urls) != 3 {
		t.Fatalf("urls = %v, want 3 across nested sitemaps", urls)
	}
}

func TestSitemapCandidatesLimit(t *testing.T) {
	fetcher := mapFetcher{"https://shop.example/sitemap.xml": flatSitemap}
	sc := NewSitemapCandidates(fetcher, nil)

	urls, err := sc.Fetch(context.Background(), "https://shop.example/sitemap.xml", 1)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(urls) != 1 {
		t.Fatalf("urls = %v, want limit of 1", urls)
	}
}

func TestSitemapCandidatesInvalid(t *testing.T) {
	fetcher := mapFetcher{"https://shop.example/sitemap.xml": "not xml at all"}
	sc := NewSitemapCandidates(fetcher, nil)

	if _, err := sc.Fetch(context.Background(), "https://shop.example/sitemap.xml", 0); err == nil {
		t.Fatal("invalid sitemap must error")
	}
}
