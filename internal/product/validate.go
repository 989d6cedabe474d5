package product

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/FranksOps/harrier/internal/heuristics"
)

var phoneRe = regexp.MustCompile(`\b\+?\d{8,}\b`)

// BlacklistedLink reports whether href can never point at a product page:
// non-navigational schemes and links into site chrome (login, cart, socials).
func BlacklistedLink(href string) bool {
	if href == "" {
		return true
	}
	h := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:"} {
		if strings.HasPrefix(h, prefix) {
			return true
		}
	}
	for _, kw := range heuristics.LinkBlacklist {
		if strings.Contains(h, kw) {
			return true
		}
	}
	return false
}

// ProductLikePath reports whether the URL's path, query or fragment carries a
// product-indicating shape. Positive keywords win outright; negative keywords
// veto; otherwise structural hints (.html suffix, deep paths, long hyphenated
// slugs) are accepted.
func ProductLikePath(href string) bool {
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	switch path {
	case "", "/", "/home", "/index", "/index.html":
		return false
	}

	combined := path + "?" + strings.ToLower(u.RawQuery) + "#" + strings.ToLower(u.Fragment)
	for _, kw := range heuristics.ProductPathKeywords {
		if strings.Contains(combined, strings.ToLower(kw)) {
			return true
		}
	}
	for _, neg := range heuristics.NegativePathKeywords {
		if strings.Contains(combined, neg) {
			return false
		}
	}

	if strings.HasSuffix(path, ".html") || strings.HasSuffix(path, ".htm") {
		return true
	}
	if strings.Count(path, "/") >= 2 && len(path) > 3 {
		return true
	}
	if strings.Contains(path, "-") && len(strings.ReplaceAll(path, "-", "")) > 6 {
		return true
	}
	return false
}

// LooksLikeNav reports whether text is site chrome rather than a product
// title: navigation vocabulary or a long phone number.
func LooksLikeNav(text string) bool {
	if text == "" {
		return false
	}
	t := strings.ToLower(text)
	if phoneRe.MatchString(t) {
		return true
	}
	for _, w := range heuristics.NavWords {
		if strings.Contains(t, w) {
			return true
		}
	}
	return false
}

// Valid is the product-likelihood predicate applied to every candidate
// record before it is accepted: a resolvable, non-blacklisted URL, plus
// either a product-like path or a price-and-title pair; titles must not be
// navigation text and a record with neither title nor price signal is noise.
func Valid(r Record) bool {
	if r.ProductURL == "" || BlacklistedLink(r.ProductURL) {
		return false
	}
	title := CleanText(r.Title)
	if !ProductLikePath(r.ProductURL) && !(r.Price != nil && title != "") {
		return false
	}
	if title != "" && (LooksLikeNav(title) || len(title) < 2) {
		return false
	}
	if title == "" && r.Price == nil && r.RawPrice == "" {
		return false
	}
	return true
}
