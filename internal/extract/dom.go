package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/FranksOps/harrier/internal/heuristics"
	"github.com/FranksOps/harrier/internal/product"
)

// domScan is the structural strategy: scope to a results container, match
// card-like elements, then run the per-field cascades inside each card.
func (e *Extractor) domScan(doc *goquery.Document, base *url.URL) []product.Record {
	scope := resultScope(doc)

	var cards *goquery.Selection
	for _, sel := range heuristics.ProductCards {
		if s := find(scope, sel); s.Length() > 0 {
			cards = s
			break
		}
	}
	if cards == nil {
		// No card selector matched; fall back to anything that looks like a card.
		cards = scope.Find("li, div, article").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return looksLikeCard(s)
		})
	}
	return e.recordsFromCards(cards, base)
}

// looseScan reruns the card heuristic over broad containers without
// requiring a card selector match. It only runs when every earlier strategy
// came up empty.
func (e *Extractor) looseScan(doc *goquery.Document, base *url.URL) []product.Record {
	cards := doc.Find("main li, main div, section li, section div, div li, article").
		FilterFunction(func(_ int, s *goquery.Selection) bool {
			return looksLikeCard(s)
		})
	return e.recordsFromCards(cards, base)
}

func (e *Extractor) recordsFromCards(cards *goquery.Selection, base *url.URL) []product.Record {
	var out []product.Record
	cards.EachWithBreak(func(_ int, card *goquery.Selection) bool {
		if insideBlacklistedSection(card) {
			return true
		}
		if r, ok := cardRecord(card, base); ok {
			out = append(out, r)
		}
		// Cards beyond twice the cap cannot survive dedup truncation.
		return len(out) < e.maxItems*2
	})
	return out
}

func resultScope(doc *goquery.Document) *goquery.Selection {
	for _, sel := range heuristics.ResultContainers {
		if s := findDoc(doc, sel); s.Length() > 0 {
			return s.First()
		}
	}
	return doc.Selection
}

// looksLikeCard is the permissive card test: a link plus either an image or
// price-looking text.
func looksLikeCard(s *goquery.Selection) bool {
	if s.Find("a[href]").Length() == 0 {
		return false
	}
	if s.Find("img").Length() > 0 {
		return true
	}
	return product.PriceFromText(s.Text()) != ""
}

// insideBlacklistedSection walks up to six ancestors looking for structural
// chrome a product card never lives in.
func insideBlacklistedSection(s *goquery.Selection) bool {
	parent := s.Parent()
	for i := 0; i < 6 && parent.Length() > 0; i++ {
		if tag := goquery.NodeName(parent); heuristics.BlacklistedSections[tag] {
			return true
		}
		parent = parent.Parent()
	}
	return false
}

// cardRecord runs the field cascades over one card. Any single field failing
// leaves that field empty without discarding the card.
func cardRecord(card *goquery.Selection, base *url.URL) (product.Record, bool) {
	var r product.Record

	for _, sel := range heuristics.LinkSelectors {
		link := find(card, sel).First()
		if link.Length() == 0 {
			continue
		}
		href, _ := link.Attr("href")
		if href == "" {
			href = strings.TrimSpace(link.Text())
		}
		if href == "" || product.BlacklistedLink(href) {
			continue
		}
		r.ProductURL = product.AbsoluteURL(base.String(), href)
		break
	}
	if r.ProductURL == "" {
		return r, false
	}

	r.Title = cascadeText(card, heuristics.TitleSelectors)
	if r.Title == "" {
		if t, ok := find(card, "a[title]").First().Attr("title"); ok {
			r.Title = product.CleanText(t)
		}
	}
	if r.Title == "" {
		if alt, ok := card.Find("img[alt]").First().Attr("alt"); ok {
			r.Title = product.CleanText(alt)
		}
	}

	r.ImageURL = cardImage(card, base)

	if raw := cascadeValue(card, heuristics.PriceSelectors, "content", "data-price"); raw != "" {
		r.RawPrice = raw
		r.Price, r.Currency = product.ParsePrice(raw)
	}
	if r.Currency == "" {
		if c := cascadeValue(card, heuristics.CurrencySelectors, "content", "data-currency"); c != "" {
			_, r.Currency = product.ParsePrice(c)
			if r.Currency == "" && len(c) <= 4 {
				r.Currency = strings.ToUpper(c)
			}
		}
	}

	if v := cascadeValue(card, heuristics.RatingSelectors, "content", "aria-label"); v != "" {
		r.Rating = product.ParseFloat(v)
	}
	if v := cascadeValue(card, heuristics.ReviewSelectors, "content", "aria-label"); v != "" {
		r.ReviewCount = product.ParseInt(v)
	}
	if v := cascadeValue(card, heuristics.AvailabilitySelectors, "content", "href"); v != "" {
		r.InStock = product.InferInStock(v)
	}
	r.Brand = cascadeValue(card, heuristics.BrandSelectors, "content", "data-brand")
	r.SKU = cascadeValue(card, heuristics.SKUSelectors, "content", "data-sku")
	r.Description = cascadeText(card, heuristics.DescriptionSelectors)

	return r, true
}

func cardImage(card *goquery.Selection, base *url.URL) string {
	attrs := []string{"src", "data-src", "data-original", "data-lazy-src", "data-srcset", "data-background-image", "content"}
	for _, sel := range heuristics.ImageSelectors {
		img := find(card, sel).First()
		if img.Length() == 0 {
			continue
		}
		for _, a := range attrs {
			if v, ok := img.Attr(a); ok && v != "" {
				return product.AbsoluteURL(base.String(), firstSrc(v))
			}
		}
	}
	return ""
}

// firstSrc reduces a srcset-style value to its first URL.
func firstSrc(v string) string {
	v = strings.TrimSpace(v)
	if i := strings.IndexAny(v, " ,"); i > 0 {
		return v[:i]
	}
	return v
}

// cascadeText returns the first non-empty trimmed text across the cascade.
func cascadeText(card *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if t := product.CleanText(find(card, sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

// cascadeValue prefers the listed attributes over element text at each step.
func cascadeValue(card *goquery.Selection, selectors []string, attrs ...string) string {
	for _, sel := range selectors {
		el := find(card, sel).First()
		if el.Length() == 0 {
			continue
		}
		for _, a := range attrs {
			if v, ok := el.Attr(a); ok && strings.TrimSpace(v) != "" {
				return product.CleanText(v)
			}
		}
		if t := product.CleanText(el.Text()); t != "" {
			return t
		}
	}
	return ""
}
