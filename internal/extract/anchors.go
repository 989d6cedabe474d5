package extract

import (
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/FranksOps/harrier/internal/product"
)

// anchorScan is the last resort: product-like links paired with an image.
// It yields title/url/image only, which is still enough to seed a record the
// deduplicator can enrich later.
func (e *Extractor) anchorScan(doc *goquery.Document, base *url.URL) []product.Record {
	var out []product.Record
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if insideBlacklistedSection(a) {
			return true
		}
		href, _ := a.Attr("href")
		if product.BlacklistedLink(href) || !product.ProductLikePath(href) {
			return true
		}
		img := a.Find("img").First()
		if img.Length() == 0 {
			img = a.Parent().Find("img").First()
		}
		if img.Length() == 0 {
			return true
		}

		r := product.Record{ProductURL: product.AbsoluteURL(base.String(), href)}
		r.Title = product.CleanText(a.Text())
		if r.Title == "" {
			if alt, ok := img.Attr("alt"); ok {
				r.Title = product.CleanText(alt)
			}
		}
		if src := imageSrc(img); src != "" {
			r.ImageURL = product.AbsoluteURL(base.String(), src)
		}
		out = append(out, r)
		return len(out) < e.maxItems*2
	})
	return out
}

func imageSrc(img *goquery.Selection) string {
	for _, attr := range []string{"src", "data-src", "data-original", "data-lazy-src"} {
		if v, ok := img.Attr(attr); ok && v != "" {
			return firstSrc(v)
		}
	}
	return ""
}
