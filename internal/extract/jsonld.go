package extract

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/FranksOps/harrier/internal/product"
)

const jsonWalkDepth = 6

// jsonLD maps schema.org Product objects out of ld+json script blocks. The
// walk is depth bounded so pathological nesting cannot blow the stack.
func (e *Extractor) jsonLD(doc *goquery.Document, base *url.URL) []product.Record {
	var out []product.Record
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var v any
		if err := json.Unmarshal([]byte(s.Text()), &v); err != nil {
			return
		}
		walkLD(v, base, 0, &out)
	})
	return out
}

func walkLD(v any, base *url.URL, depth int, out *[]product.Record) {
	if depth > jsonWalkDepth {
		return
	}
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			walkLD(item, base, depth+1, out)
		}
	case map[string]any:
		if isLDProduct(t) {
			if r, ok := ldRecord(t, base); ok {
				*out = append(*out, r)
			}
			return
		}
		// ItemList pages and WebPage wrappers hold products one level down.
		for _, key := range []string{"itemListElement", "mainEntity", "@graph", "item"} {
			if inner, ok := t[key]; ok {
				walkLD(inner, base, depth+1, out)
			}
		}
	}
}

func isLDProduct(m map[string]any) bool {
	switch t := m["@type"].(type) {
	case string:
		return strings.EqualFold(t, "Product")
	case []any:
		for _, v := range t {
			if s, ok := v.(string); ok && strings.EqualFold(s, "Product") {
				return true
			}
		}
	}
	return false
}

func ldRecord(m map[string]any, base *url.URL) (product.Record, bool) {
	r := product.Record{
		Title:       jsonString(m["name"]),
		Brand:       jsonName(m["brand"]),
		SKU:         jsonString(m["sku"]),
		Description: jsonString(m["description"]),
	}
	if u := jsonURL(m["url"]); u != "" {
		r.ProductURL = product.AbsoluteURL(base.String(), u)
	}
	if img := jsonURL(m["image"]); img != "" {
		r.ImageURL = product.AbsoluteURL(base.String(), img)
	}

	if offer, ok := firstObject(m["offers"]); ok {
		if raw := jsonString(offer["price"]); raw != "" {
			r.RawPrice = raw
			r.Price = product.ParseFloat(raw)
		}
		r.Currency = jsonString(offer["priceCurrency"])
		if avail := jsonString(offer["availability"]); avail != "" {
			r.InStock = product.InferInStock(avail)
		}
		if r.ProductURL == "" {
			if u := jsonURL(offer["url"]); u != "" {
				r.ProductURL = product.AbsoluteURL(base.String(), u)
			}
		}
	}
	if agg, ok := firstObject(m["aggregateRating"]); ok {
		if v := jsonString(agg["ratingValue"]); v != "" {
			r.Rating = product.ParseFloat(v)
		}
		for _, key := range []string{"reviewCount", "ratingCount"} {
			if v := jsonString(agg[key]); v != "" {
				r.ReviewCount = product.ParseInt(v)
				break
			}
		}
	}
	return r, r.Title != "" || r.ProductURL != ""
}

// firstObject unwraps a value that schema.org allows as either an object or
// an array of objects.
func firstObject(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case []any:
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				return m, true
			}
		}
	}
	return nil, false
}

// jsonString renders scalar JSON values as trimmed text.
func jsonString(v any) string {
	switch t := v.(type) {
	case string:
		return product.CleanText(t)
	case float64:
		return jsonFloat(t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	}
	return ""
}

func jsonFloat(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}

// jsonName pulls a name out of a string or a {"name": ...} object.
func jsonName(v any) string {
	if m, ok := v.(map[string]any); ok {
		return jsonString(m["name"])
	}
	return jsonString(v)
}

// jsonURL accepts a string, an array of strings, or an ImageObject.
func jsonURL(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		for _, item := range t {
			if u := jsonURL(item); u != "" {
				return u
			}
		}
	case map[string]any:
		for _, key := range []string{"url", "contentUrl", "@id"} {
			if u := jsonString(t[key]); u != "" {
				return u
			}
		}
	}
	return ""
}
