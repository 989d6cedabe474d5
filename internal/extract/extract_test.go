package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

const listingPage = `<html><body>
<header>
  <div class="product"><a href="/sale/banner"><img src="/banner.png"></a></div>
</header>
<main>
  <div class="product-grid">
    <div class="product-card">
      <a class="title" href="/product/atlas-sneaker-101">Atlas Sneaker</a>
      <img src="/img/atlas.jpg" alt="Atlas Sneaker">
      <span class="price">&#8377;1,299.00</span>
      <span class="rating" aria-label="rating 4.3 out of 5">4.3</span>
      <span class="review-count">(212)</span>
      <span class="stock">In stock</span>
    </div>
    <div class="product-card">
      <a class="title" href="/product/bolt-runner-202">Bolt Runner</a>
      <img data-src="/img/bolt.jpg" alt="Bolt Runner">
      <span class="price">$49.99</span>
      <span class="stock">Out of stock</span>
    </div>
  </div>
</main>
</body></html>`

func TestPageDomScan(t *testing.T) {
	e := New(Config{})
	res := e.Page(parse(t, listingPage), "https://shop.example/search?q=sneaker")

	if !res.Success {
		t.Fatalf("success = false, error = %q", res.Error)
	}
	if res.Strategy != "dom" {
		t.Fatalf("strategy = %q, want dom", res.Strategy)
	}
	if res.Platform != "shop.example" {
		t.Fatalf("platform = %q", res.Platform)
	}
	if len(res.Products) != 2 {
		t.Fatalf("products = %d, want 2 (header card must be excluded): %+v", len(res.Products), res.Products)
	}

	p := res.Products[0]
	if p.Title != "Atlas Sneaker" {
		t.Errorf("title = %q", p.Title)
	}
	if p.ProductURL != "https://shop.example/product/atlas-sneaker-101" {
		t.Errorf("url = %q, want absolute product url", p.ProductURL)
	}
	if p.ImageURL != "https://shop.example/img/atlas.jpg" {
		t.Errorf("image = %q", p.ImageURL)
	}
	if p.Price == nil || *p.Price != 1299 {
		t.Errorf("price = %v, want 1299", p.Price)
	}
	if p.Currency != "INR" {
		t.Errorf("currency = %q, want INR", p.Currency)
	}
	if p.Rating == nil || *p.Rating != 4.3 {
		t.Errorf("rating = %v, want 4.3", p.Rating)
	}
	if p.ReviewCount == nil || *p.ReviewCount != 212 {
		t.Errorf("review count = %v, want 212", p.ReviewCount)
	}
	if p.InStock == nil || !*p.InStock {
		t.Errorf("in stock = %v, want true", p.InStock)
	}

	q := res.Products[1]
	if q.Currency != "USD" || q.Price == nil || *q.Price != 49.99 {
		t.Errorf("second product price = %v %q", q.Price, q.Currency)
	}
	if q.InStock == nil || *q.InStock {
		t.Errorf("second product in stock = %v, want false", q.InStock)
	}
	if q.ImageURL != "https://shop.example/img/bolt.jpg" {
		t.Errorf("lazy image = %q", q.ImageURL)
	}
}

const jsonLDOnlyPage = `<html><body>
<p>Loading results…</p>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@type": "ItemList",
  "itemListElement": [
    {
      "@type": "Product",
      "name": "Vapor Kettle 1.7L",
      "url": "/p/vapor-kettle",
      "image": {"@type": "ImageObject", "contentUrl": "https://cdn.example/kettle.jpg"},
      "sku": "VK-17",
      "brand": {"@type": "Brand", "name": "Vapor"},
      "offers": {"@type": "Offer", "price": "34.50", "priceCurrency": "EUR", "availability": "https://schema.org/InStock"},
      "aggregateRating": {"ratingValue": 4.8, "reviewCount": 96}
    }
  ]
}
</script>
</body></html>`

func TestPageFallsBackToJSONLD(t *testing.T) {
	e := New(Config{})
	res := e.Page(parse(t, jsonLDOnlyPage), "https://shop.example/search?q=kettle")

	if !res.Success || res.Strategy != "jsonld" {
		t.Fatalf("strategy = %q success = %v error = %q", res.Strategy, res.Success, res.Error)
	}
	if len(res.Products) != 1 {
		t.Fatalf("products = %d, want 1", len(res.Products))
	}
	p := res.Products[0]
	if p.Title != "Vapor Kettle 1.7L" || p.ProductURL != "https://shop.example/p/vapor-kettle" {
		t.Errorf("record = %+v", p)
	}
	if p.ImageURL != "https://cdn.example/kettle.jpg" {
		t.Errorf("image = %q", p.ImageURL)
	}
	if p.Price == nil || *p.Price != 34.5 || p.Currency != "EUR" {
		t.Errorf("price = %v %q", p.Price, p.Currency)
	}
	if p.Brand != "Vapor" || p.SKU != "VK-17" {
		t.Errorf("brand/sku = %q %q", p.Brand, p.SKU)
	}
	if p.Rating == nil || *p.Rating != 4.8 || p.ReviewCount == nil || *p.ReviewCount != 96 {
		t.Errorf("rating = %v reviews = %v", p.Rating, p.ReviewCount)
	}
	if p.InStock == nil || !*p.InStock {
		t.Errorf("in stock = %v, want true", p.InStock)
	}
}

const microdataPage = `<html><body><main>
<div itemscope itemtype="https://schema.org/Product">
  <span itemprop="name">Cedar Desk Lamp</span>
  <meta itemprop="url" content="/item/cedar-lamp">
  <meta itemprop="image" content="/img/lamp.jpg">
  <meta itemprop="price" content="USD 18.00">
  <div itemprop="brand" itemscope><span itemprop="name">Cedar&amp;Co</span></div>
</div>
</main></body></html>`

func TestPageMicrodata(t *testing.T) {
	e := New(Config{})
	res := e.Page(parse(t, microdataPage), "https://shop.example/s?k=lamp")

	if res.Strategy != "microdata" {
		t.Fatalf("strategy = %q, want microdata (got %d products via %q)", res.Strategy, len(res.Products), res.Strategy)
	}
	p := res.Products[0]
	if p.Title != "Cedar Desk Lamp" {
		t.Errorf("title = %q", p.Title)
	}
	if p.Price == nil || *p.Price != 18 || p.Currency != "USD" {
		t.Errorf("price = %v %q", p.Price, p.Currency)
	}
	if p.Brand != "Cedar&Co" {
		t.Errorf("brand = %q", p.Brand)
	}
}

const inlineJSONPage = `<html><body>
<script>
{"searchState": {"results": [
  {"productName": "Trail Pack 30L", "productUrl": "/product/trail-pack-30", "imageUrl": "/img/pack.jpg", "salePrice": 89.0, "currencyCode": "usd", "ratingValue": 4.1}
]}}
</script>
</body></html>`

func TestPageInlineJSON(t *testing.T) {
	e := New(Config{})
	res := e.Page(parse(t, inlineJSONPage), "https://shop.example/search?q=pack")

	if res.Strategy != "inline-json" {
		t.Fatalf("strategy = %q, want inline-json", res.Strategy)
	}
	p := res.Products[0]
	if p.Title != "Trail Pack 30L" || p.ProductURL != "https://shop.example/product/trail-pack-30" {
		t.Errorf("record = %+v", p)
	}
	if p.Price == nil || *p.Price != 89 || p.Currency != "USD" {
		t.Errorf("price = %v %q", p.Price, p.Currency)
	}
}

const anchorsOnlyPage = `<html><body>
<section>
  <span>
    <a href="/dp/B00X12345">
      <img src="/thumbs/gadget.jpg" alt="Pocket Gadget Pro">
    </a>
  </span>
</section>
</body></html>`

func TestPageAnchorFallback(t *testing.T) {
	e := New(Config{})
	res := e.Page(parse(t, anchorsOnlyPage), "https://shop.example/search?q=gadget")

	if res.Strategy != "anchors" {
		t.Fatalf("strategy = %q, want anchors", res.Strategy)
	}
	p := res.Products[0]
	if p.Title != "Pocket Gadget Pro" {
		t.Errorf("title from alt = %q", p.Title)
	}
	if p.ProductURL != "https://shop.example/dp/B00X12345" {
		t.Errorf("url = %q", p.ProductURL)
	}
	if p.Price != nil {
		t.Errorf("anchor fallback must not invent prices, got %v", *p.Price)
	}
}

func TestPageNoResultsMarker(t *testing.T) {
	e := New(Config{})
	page := `<html><body><main><h2>No results found for "xyzzy"</h2></main></body></html>`
	res := e.Page(parse(t, page), "https://shop.example/search?q=xyzzy")

	if !res.Success {
		t.Fatalf("success = false, error = %q", res.Error)
	}
	if len(res.Products) != 0 {
		t.Fatalf("products = %d, want 0", len(res.Products))
	}
	if res.LowConfidence {
		t.Fatal("explicit no-results page must not be low confidence")
	}
}

func TestPageUnrecognizedLayoutIsLowConfidence(t *testing.T) {
	e := New(Config{})
	page := `<html><body><canvas id="app"></canvas></body></html>`
	res := e.Page(parse(t, page), "https://shop.example/search?q=sofa")

	if !res.Success {
		t.Fatalf("success = false, error = %q", res.Error)
	}
	if !res.LowConfidence {
		t.Fatal("empty result without a marker must be flagged low confidence")
	}
}

func TestPageMaxItems(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<html><body><main><div class="product-grid">`)
	for i := 0; i < 10; i++ {
		b.WriteString(`<div class="product-card"><a class="title" href="/product/p`)
		b.WriteByte(byte('0' + i))
		b.WriteString(`">Item</a><span class="price">$5.00</span></div>`)
	}
	b.WriteString(`</div></main></body></html>`)

	e := New(Config{MaxItems: 3})
	res := e.Page(parse(t, b.String()), "https://shop.example/search?q=item")
	if len(res.Products) != 3 {
		t.Fatalf("products = %d, want 3", len(res.Products))
	}
}
