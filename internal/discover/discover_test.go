package discover

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/FranksOps/harrier/internal/browser"
	"github.com/FranksOps/harrier/internal/browser/browsertest"
)

// mapOpener serves pre-scripted sessions per site URL.
type mapOpener struct {
	sessions map[string]*browsertest.Session
	errs     map[string]error
}

func (m *mapOpener) Open(_ context.Context, url string) (*browser.ReadyPage, error) {
	if err := m.errs[url]; err != nil {
		return nil, err
	}
	sess := m.sessions[url]
	return &browser.ReadyPage{URL: sess.URL, Session: sess}, nil
}

func searchableSession(site string) *browsertest.Session {
	sess := browsertest.New(site)
	sess.Visible[`input[name="q"]`] = 1
	sess.OnEnter = func() {
		sess.URL = site + "search?q=gloves"
	}
	return sess
}

func fastDiscoverer(opener Opener) *Discoverer {
	d := New(opener, Config{Parallelism: 2})
	d.synth.waitTimeout = 50 * time.Millisecond
	d.synth.poll = 5 * time.Millisecond
	return d
}

func TestDiscoverReleasesSession(t *testing.T) {
	site := "https://shop.example/"
	sess := searchableSession(site)
	d := fastDiscoverer(&mapOpener{sessions: map[string]*browsertest.Session{site: sess}})

	ep, err := d.Discover(context.Background(), site, "gloves")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if ep.Platform != "shop.example" || ep.SearchParam != "q" {
		t.Fatalf("endpoint = %+v", ep)
	}
	if !sess.Closed {
		t.Fatal("session was not released")
	}
}

func TestDiscoverInputNotFoundReleasesSession(t *testing.T) {
	site := "https://blank.example/"
	sess := browsertest.New(site)
	d := fastDiscoverer(&mapOpener{sessions: map[string]*browsertest.Session{site: sess}})

	_, err := d.Discover(context.Background(), site, "gloves")
	if !errors.Is(err, ErrInputNotFound) {
		t.Fatalf("err = %v, want ErrInputNotFound", err)
	}
	if !sess.Closed {
		t.Fatal("session leaked on the error path")
	}
}

func TestDiscoverAllIsolatesFailures(t *testing.T) {
	good := "https://good.example/"
	down := "https://down.example/"
	blank := "https://blank.example/"
	opener := &mapOpener{
		sessions: map[string]*browsertest.Session{
			good:  searchableSession(good),
			blank: browsertest.New(blank),
		},
		errs: map[string]error{down: browser.ErrNavigation},
	}
	d := fastDiscoverer(opener)

	out := d.DiscoverAll(context.Background(), []string{good, down, blank}, "gloves")
	if len(out) != 3 {
		t.Fatalf("outcomes = %d, want 3", len(out))
	}
	if out[good].Err != nil {
		t.Errorf("good site failed: %v", out[good].Err)
	}
	if out[good].Endpoint.SearchParam != "q" {
		t.Errorf("good endpoint = %+v", out[good].Endpoint)
	}
	if !errors.Is(out[down].Err, browser.ErrNavigation) {
		t.Errorf("down site err = %v, want navigation error", out[down].Err)
	}
	if !errors.Is(out[blank].Err, ErrInputNotFound) {
		t.Errorf("blank site err = %v, want ErrInputNotFound", out[blank].Err)
	}
}
