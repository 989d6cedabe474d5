// Package discover finds the search contract of an unknown storefront: it
// locates a search input on a live page, runs a probe query through it, and
// reverse-engineers a reusable URL template from where the site navigated.
package discover

import (
	"fmt"
	"net/url"
	"strings"
)

// Placeholder is the token in a URL template that callers substitute with an
// actual query term.
const Placeholder = "{query}"

// Endpoint is a discovered search contract for one site.
type Endpoint struct {
	// Platform is the site host, e.g. "shop.example".
	Platform string
	// SearchParam is the query key carrying the search term. Empty when the
	// site searches by path instead of parameter; the endpoint is degraded
	// then and carries no placeholder.
	SearchParam string
	// URLTemplate is the minimal template: base path plus the search
	// parameter only.
	URLTemplate string
	// FullURLTemplate keeps every other query parameter at its probed value
	// as fixed context, for sites that require locale or channel params.
	FullURLTemplate string
	// Params are all query parameters captured during the probe, in
	// navigation order. Keys may repeat a template parameter.
	Params []Param
}

// Param is one captured query parameter.
type Param struct {
	Key   string
	Value string
}

// Degraded reports whether the template lacks a placeholder and therefore
// cannot express new queries.
func (e Endpoint) Degraded() bool {
	return !strings.Contains(e.URLTemplate, Placeholder)
}

// Substitute renders the minimal template for term. Degraded endpoints
// return the template unchanged.
func (e Endpoint) Substitute(term string) string {
	return strings.ReplaceAll(e.URLTemplate, Placeholder, url.QueryEscape(term))
}

// SubstituteFull renders the full template for term.
func (e Endpoint) SubstituteFull(term string) string {
	return strings.ReplaceAll(e.FullURLTemplate, Placeholder, url.QueryEscape(term))
}

// FromNavigation reverse-engineers an Endpoint from the URL a probe search
// landed on. The search parameter is the first query key whose value
// contains probeTerm case-insensitively; parameter order follows the raw
// query string, not map order, so repeated runs pick the same key.
func FromNavigation(landedURL, probeTerm string) (Endpoint, error) {
	u, err := url.Parse(landedURL)
	if err != nil {
		return Endpoint{}, fmt.Errorf("parse landed url %q: %w", landedURL, err)
	}
	if u.Host == "" {
		return Endpoint{}, fmt.Errorf("landed url %q has no host", landedURL)
	}

	base := &url.URL{Scheme: u.Scheme, Host: u.Host, Path: u.Path}
	params := orderedParams(u.RawQuery)

	ep := Endpoint{Platform: u.Hostname(), Params: params}
	probe := strings.ToLower(probeTerm)
	for _, p := range params {
		if probe != "" && strings.Contains(strings.ToLower(p.Value), probe) {
			ep.SearchParam = p.Key
			break
		}
	}

	if ep.SearchParam == "" {
		// Path-based or opaque search. The bare landing URL is all we can
		// offer; callers must treat it as low confidence.
		ep.URLTemplate = base.String()
		ep.FullURLTemplate = landedURL
		return ep, nil
	}

	ep.URLTemplate = base.String() + "?" + url.QueryEscape(ep.SearchParam) + "=" + Placeholder

	var extra []string
	for _, p := range params {
		if p.Key == ep.SearchParam {
			continue
		}
		extra = append(extra, url.QueryEscape(p.Key)+"="+url.QueryEscape(p.Value))
	}
	ep.FullURLTemplate = ep.URLTemplate
	if len(extra) > 0 {
		ep.FullURLTemplate += "&" + strings.Join(extra, "&")
	}
	return ep, nil
}

// orderedParams parses a raw query preserving key order, which url.Values
// does not.
func orderedParams(rawQuery string) []Param {
	var out []Param
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		k, err := url.QueryUnescape(key)
		if err != nil {
			k = key
		}
		v, err := url.QueryUnescape(value)
		if err != nil {
			v = value
		}
		out = append(out, Param{Key: k, Value: v})
	}
	return out
}
