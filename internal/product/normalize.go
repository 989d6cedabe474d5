package product

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	numberRe     = regexp.MustCompile(`\d[\d,.]*`)
	floatRe      = regexp.MustCompile(`\d+(?:\.\d+)?`)
	intRe        = regexp.MustCompile(`\d+`)
	priceTokenRe = regexp.MustCompile(`(?i)((?:₹|rs\.?|rs\s|inr\s|usd\s|eur\s|cad\s|aud\s|£|€|\$)\s*[\d,.]+(?:\.\d{1,2})?)`)
)

// CleanText collapses runs of whitespace and trims the result. Returns ""
// for nil-ish input so callers can treat empty as absent.
func CleanText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// currency keyword tables, checked in order. Symbol checks run against the
// raw text, keyword checks against its lowercase form.
var currencyRules = []struct {
	symbols  []string
	keywords []string
	code     string
}{
	{symbols: []string{"₹"}, keywords: []string{"rs", "rs.", "inr"}, code: "INR"},
	{symbols: []string{"$"}, keywords: []string{"usd"}, code: "USD"},
	{symbols: []string{"€"}, keywords: []string{"eur"}, code: "EUR"},
	{symbols: []string{"£"}, keywords: []string{"gbp"}, code: "GBP"},
	{keywords: []string{"cad"}, code: "CAD"},
	{keywords: []string{"aud"}, code: "AUD"},
}

// ParsePrice extracts a decimal price and a currency code from noisy price
// text such as "₹1,299.00" or "EUR 12". Either part may be missing: "Free"
// yields (nil, ""); a bare symbol still reports its currency.
func ParsePrice(raw string) (*float64, string) {
	txt := strings.TrimSpace(raw)
	if txt == "" {
		return nil, ""
	}

	currency := ""
	lowered := strings.ToLower(txt)
	for _, rule := range currencyRules {
		for _, sym := range rule.symbols {
			if strings.Contains(txt, sym) {
				currency = rule.code
			}
		}
		if currency == "" {
			for _, kw := range rule.keywords {
				if strings.Contains(lowered, kw) {
					currency = rule.code
				}
			}
		}
		if currency != "" {
			break
		}
	}

	m := numberRe.FindString(txt)
	if m == "" {
		return nil, currency
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return nil, currency
	}
	return &v, currency
}

// PriceFromText scans free-running card text for the first token that looks
// like a money amount, e.g. "$49.99" buried in a blob of marketing copy.
func PriceFromText(text string) string {
	return priceTokenRe.FindString(strings.TrimSpace(text))
}

// ParseFloat pulls the first float-looking token out of raw text. Used for
// ratings like "4.3 out of 5 stars".
func ParseFloat(raw string) *float64 {
	m := floatRe.FindString(raw)
	if m == "" {
		return nil
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseInt pulls the first integer token out of raw text. Used for review
// counts like "(1,024 reviews)" after comma stripping.
func ParseInt(raw string) *int {
	m := intRe.FindString(strings.ReplaceAll(raw, ",", ""))
	if m == "" {
		return nil
	}
	v, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	return &v
}

// InferInStock maps availability text (including schema.org URLs such as
// "https://schema.org/InStock") onto a tri-state stock flag.
func InferInStock(text string) *bool {
	if text == "" {
		return nil
	}
	t := strings.ToLower(text)
	for _, k := range []string{"out of stock", "outofstock", "unavailable"} {
		if strings.Contains(t, k) {
			return Bool(false)
		}
	}
	for _, k := range []string{"in stock", "instock", "available"} {
		if strings.Contains(t, k) {
			return Bool(true)
		}
	}
	return nil
}

// AbsoluteURL resolves href against base. Unparseable input is returned
// unchanged rather than dropped, so a later validity check can reject it.
func AbsoluteURL(base, href string) string {
	if href == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return b.ResolveReference(u).String()
}
