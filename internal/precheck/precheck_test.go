package precheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(Config{})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestClientProbe(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<html><body>store</body></html>"))
	}))
	defer ts.Close()

	res, err := testClient(t).Probe(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if res.Error != "" {
		t.Fatalf("probe error: %s", res.Error)
	}
	if res.StatusCode != http.StatusOK {
		t.Errorf("status = %d", res.StatusCode)
	}
	if res.ID == "" {
		t.Error("probe result must carry an id")
	}
	if !strings.HasPrefix(gotUA, "Mozilla/5.0") {
		t.Errorf("user agent not rotated in: %q", gotUA)
	}
	if res.Blocked {
		t.Error("plain 200 flagged as blocked")
	}
}

func TestClientProbeFoldsTransportError(t *testing.T) {
	res, err := testClient(t).Probe(context.Background(), "http://127.0.0.1:1/")
	if err != nil {
		t.Fatalf("Probe returned hard error: %v", err)
	}
	if res.Error == "" {
		t.Fatal("transport failure must be folded into the result")
	}
}

func TestClientFetchRejectsBadStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	if _, err := testClient(t).Fetch(context.Background(), ts.URL); err == nil {
		t.Fatal("expected error for 404")
	}
}

func TestScreenerBlockedSite(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "cloudflare")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	s := NewScreener(testClient(t), nil)
	report, err := s.Screen(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}
	if !report.Blocked || report.WallVendor != "Cloudflare" {
		t.Fatalf("report = %+v, want Cloudflare wall", report)
	}
}

func TestScreenerHealthySite(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: *\nDisallow: /admin\nSitemap: https://shop.example/sitemap.xml\n"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>store</body></html>"))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	s := NewScreener(testClient(t), nil)
	report, err := s.Screen(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}
	if !report.Reachable || report.Blocked {
		t.Fatalf("report = %+v, want reachable and clean", report)
	}
	if !report.RobotsAllowed {
		t.Error("site root must be allowed")
	}
	if len(report.Sitemaps) != 1 || report.Sitemaps[0] != "https://shop.example/sitemap.xml" {
		t.Errorf("sitemaps = %v", report.Sitemaps)
	}
}
