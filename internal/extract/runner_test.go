package extract

import (
	"context"
	"testing"

	"github.com/FranksOps/harrier/internal/browser"
	"github.com/FranksOps/harrier/internal/browser/browsertest"
)

type fakeOpener struct {
	page *browser.ReadyPage
	err  error
}

func (f *fakeOpener) Open(context.Context, string) (*browser.ReadyPage, error) {
	return f.page, f.err
}

func TestRunnerReleasesSession(t *testing.T) {
	sess := browsertest.New("https://shop.example/search?q=sneaker")
	opener := &fakeOpener{page: &browser.ReadyPage{
		URL:     sess.URL,
		HTML:    listingPage,
		Session: sess,
	}}
	r := NewRunner(opener, Config{})

	res := r.Extract(context.Background(), sess.URL, 0)
	if !res.Success {
		t.Fatalf("success = false, error = %q", res.Error)
	}
	if len(res.Products) == 0 {
		t.Fatal("no products extracted from listing page")
	}
	if res.ID == "" {
		t.Fatal("result must carry an id")
	}
	if !sess.Closed {
		t.Fatal("session was not released")
	}
}

func TestRunnerFoldsNavigationError(t *testing.T) {
	opener := &fakeOpener{err: browser.ErrNavigation}
	r := NewRunner(opener, Config{})

	res := r.Extract(context.Background(), "https://down.example/search?q=x", 0)
	if res.Success {
		t.Fatal("success = true on navigation failure")
	}
	if res.Error == "" {
		t.Fatal("error text missing from failed result")
	}
}
