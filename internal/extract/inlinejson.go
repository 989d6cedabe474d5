package extract

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/FranksOps/harrier/internal/heuristics"
	"github.com/FranksOps/harrier/internal/product"
)

// inlineJSONMaxBytes skips oversized state blobs; anything bigger is almost
// always framework hydration state that the bounded walk would truncate anyway.
const inlineJSONMaxBytes = 500 * 1024

// inlineJSON mines non-LD script blocks for objects whose keys look like
// product fields. It is the bridge for sites that render listings from an
// embedded state payload instead of markup.
func (e *Extractor) inlineJSON(doc *goquery.Document, base *url.URL) []product.Record {
	var out []product.Record
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if t, _ := s.Attr("type"); strings.Contains(t, "ld+json") {
			return
		}
		body := strings.TrimSpace(s.Text())
		if len(body) < 2 || len(body) > inlineJSONMaxBytes {
			return
		}
		if body[0] != '{' && body[0] != '[' {
			return
		}
		var v any
		if err := json.Unmarshal([]byte(body), &v); err != nil {
			return
		}
		mineJSON(v, base, 0, &out)
	})
	return out
}

func mineJSON(v any, base *url.URL, depth int, out *[]product.Record) {
	if depth > jsonWalkDepth {
		return
	}
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			mineJSON(item, base, depth+1, out)
		}
	case map[string]any:
		if r, ok := jsonRecord(t, base); ok {
			*out = append(*out, r)
			return
		}
		for _, inner := range t {
			mineJSON(inner, base, depth+1, out)
		}
	}
}

// jsonRecord tries to read one product out of a generic object using the
// key-synonym table. An object qualifies once it yields a title or a URL.
func jsonRecord(m map[string]any, base *url.URL) (product.Record, bool) {
	lower := make(map[string]any, len(m))
	for k, v := range m {
		lower[strings.ToLower(k)] = v
	}
	get := func(field string) string {
		for _, key := range heuristics.ProductJSONKeys[field] {
			if v, ok := lower[strings.ToLower(key)]; ok {
				if s := jsonString(v); s != "" {
					return s
				}
				if u := jsonURL(v); u != "" {
					return u
				}
			}
		}
		return ""
	}

	var r product.Record
	r.Title = get("title")
	if u := get("url"); u != "" {
		r.ProductURL = product.AbsoluteURL(base.String(), u)
	}
	if r.Title == "" && r.ProductURL == "" {
		return r, false
	}

	if img := get("image"); img != "" {
		r.ImageURL = product.AbsoluteURL(base.String(), img)
	}
	if raw := get("price"); raw != "" {
		r.RawPrice = raw
		if f := product.ParseFloat(raw); f != nil {
			r.Price = f
		} else {
			r.Price, r.Currency = product.ParsePrice(raw)
		}
	}
	if c := get("currency"); c != "" && len(c) <= 4 {
		r.Currency = strings.ToUpper(c)
	}
	r.Brand = get("brand")
	r.SKU = get("sku")
	r.Description = get("description")
	if v := get("rating"); v != "" {
		r.Rating = product.ParseFloat(v)
	}
	if v := get("reviewCount"); v != "" {
		r.ReviewCount = product.ParseInt(v)
	}
	if v := get("availability"); v != "" {
		r.InStock = product.InferInStock(v)
	}
	return r, true
}
