package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/FranksOps/harrier/internal/product"
)

// microdata maps itemscope/itemprop markup for schema.org Product scopes.
func (e *Extractor) microdata(doc *goquery.Document, base *url.URL) []product.Record {
	var out []product.Record
	doc.Find(`[itemscope][itemtype]`).Each(func(_ int, scope *goquery.Selection) {
		itemtype, _ := scope.Attr("itemtype")
		if !strings.Contains(strings.ToLower(itemtype), "product") {
			return
		}
		r := microRecord(scope, base)
		if r.Title != "" || r.ProductURL != "" {
			out = append(out, r)
		}
	})
	return out
}

func microRecord(scope *goquery.Selection, base *url.URL) product.Record {
	r := product.Record{
		Title:       itemprop(scope, "name"),
		SKU:         itemprop(scope, "sku"),
		Description: itemprop(scope, "description"),
	}
	if u := itemprop(scope, "url"); u != "" {
		r.ProductURL = product.AbsoluteURL(base.String(), u)
	}
	if img := itemprop(scope, "image"); img != "" {
		r.ImageURL = product.AbsoluteURL(base.String(), img)
	}
	if raw := itemprop(scope, "price"); raw != "" {
		r.RawPrice = raw
		r.Price, r.Currency = product.ParsePrice(raw)
	}
	if c := itemprop(scope, "priceCurrency"); c != "" {
		r.Currency = strings.ToUpper(c)
	}
	if v := itemprop(scope, "ratingValue"); v != "" {
		r.Rating = product.ParseFloat(v)
	}
	if v := itemprop(scope, "reviewCount"); v != "" {
		r.ReviewCount = product.ParseInt(v)
	}
	if v := itemprop(scope, "availability"); v != "" {
		r.InStock = product.InferInStock(v)
	}

	// Brand is commonly a nested scope carrying its own name itemprop.
	brand := scope.Find(`[itemprop="brand"]`).First()
	if brand.Length() > 0 {
		if name := brand.Find(`[itemprop="name"]`).First(); name.Length() > 0 {
			r.Brand = product.CleanText(name.Text())
		} else {
			r.Brand = propValue(brand)
		}
	}
	return r
}

// itemprop reads the first value of prop inside scope, honoring the
// attribute carrying the value for the element kind.
func itemprop(scope *goquery.Selection, prop string) string {
	el := scope.Find(`[itemprop="` + prop + `"]`).First()
	if el.Length() == 0 {
		return ""
	}
	return propValue(el)
}

func propValue(el *goquery.Selection) string {
	for _, attr := range []string{"content", "href", "src", "data-src"} {
		if v, ok := el.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return product.CleanText(v)
		}
	}
	return product.CleanText(el.Text())
}
