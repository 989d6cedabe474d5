package discover

import (
	"net/url"
	"strings"
	"testing"
)

func TestFromNavigation(t *testing.T) {
	ep, err := FromNavigation("https://shop.example/search?q=wireless+mouse&lang=en&page=1", "wireless mouse")
	if err != nil {
		t.Fatalf("FromNavigation: %v", err)
	}
	if ep.Platform != "shop.example" {
		t.Errorf("platform = %q", ep.Platform)
	}
	if ep.SearchParam != "q" {
		t.Errorf("search param = %q, want q", ep.SearchParam)
	}
	if ep.URLTemplate != "https://shop.example/search?q="+Placeholder {
		t.Errorf("template = %q", ep.URLTemplate)
	}
	if !strings.Contains(ep.FullURLTemplate, "lang=en") || !strings.Contains(ep.FullURLTemplate, "page=1") {
		t.Errorf("full template dropped fixed params: %q", ep.FullURLTemplate)
	}
	if strings.Count(ep.FullURLTemplate, Placeholder) != 1 {
		t.Errorf("full template must keep exactly one placeholder: %q", ep.FullURLTemplate)
	}
	if ep.Degraded() {
		t.Error("endpoint with a search param must not be degraded")
	}
}

func TestFromNavigationFirstMatchWins(t *testing.T) {
	// Both k and backup contain the probe term; navigation order decides.
	ep, err := FromNavigation("https://shop.example/s?k=socks&backup=socks", "socks")
	if err != nil {
		t.Fatalf("FromNavigation: %v", err)
	}
	if ep.SearchParam != "k" {
		t.Errorf("search param = %q, want k (first in query order)", ep.SearchParam)
	}
}

func TestFromNavigationCaseInsensitive(t *testing.T) {
	ep, err := FromNavigation("https://shop.example/search?term=Running+Shoes", "running shoes")
	if err != nil {
		t.Fatalf("FromNavigation: %v", err)
	}
	if ep.SearchParam != "term" {
		t.Errorf("search param = %q, want term", ep.SearchParam)
	}
}

func TestFromNavigationDegraded(t *testing.T) {
	ep, err := FromNavigation("https://shop.example/search/socks", "socks")
	if err != nil {
		t.Fatalf("FromNavigation: %v", err)
	}
	if !ep.Degraded() {
		t.Fatal("path-based search must yield a degraded endpoint")
	}
	if ep.SearchParam != "" {
		t.Errorf("search param = %q, want empty", ep.SearchParam)
	}
	if got := ep.Substitute("anything"); got != ep.URLTemplate {
		t.Errorf("degraded substitute changed the url: %q", got)
	}
}

// Substituting the probe term back into the template must reproduce a URL
// whose search parameter equals the probe term.
func TestEndpointRoundTrip(t *testing.T) {
	for _, term := range []string{"socks", "wireless mouse", "café crème", "50% off"} {
		landed := "https://shop.example/search?q=" + url.QueryEscape(term) + "&lang=en"
		ep, err := FromNavigation(landed, term)
		if err != nil {
			t.Fatalf("FromNavigation(%q): %v", term, err)
		}
		back, err := url.Parse(ep.Substitute(term))
		if err != nil {
			t.Fatalf("parse substituted url: %v", err)
		}
		if got := back.Query().Get(ep.SearchParam); got != term {
			t.Errorf("round trip %q: param %s = %q", term, ep.SearchParam, got)
		}
	}
}

func TestOrderedParamsPreservesOrder(t *testing.T) {
	params := orderedParams("b=2&a=1&c=3")
	keys := make([]string, len(params))
	for i, p := range params {
		keys[i] = p.Key
	}
	if strings.Join(keys, ",") != "b,a,c" {
		t.Fatalf("keys = %v, want query order", keys)
	}
}
