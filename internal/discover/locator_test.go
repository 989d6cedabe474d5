package discover

import (
	"context"
	"strings"
	"testing"

	"github.com/FranksOps/harrier/internal/browser/browsertest"
)

func TestLocatorMostSpecificFamilyWins(t *testing.T) {
	sess := browsertest.New("https://shop.example/")
	// A generic text input and an explicitly named search box are both
	// visible; the named one must win.
	sess.Visible[`input[type="text"]`] = 2
	sess.Visible[`input[name="q"]`] = 1

	h, err := NewLocator(nil).Locate(context.Background(), sess)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if h.Family != "name" || h.Query.Expr != `input[name="q"]` {
		t.Fatalf("handle = %+v, want name family", h)
	}
}

func TestLocatorPlaceholderFamily(t *testing.T) {
	sess := browsertest.New("https://shop.example/")
	sess.Visible[`input[placeholder*="search" i]`] = 1

	h, err := NewLocator(nil).Locate(context.Background(), sess)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if h.Family != "placeholder" {
		t.Fatalf("family = %q, want placeholder", h.Family)
	}
}

func TestLocatorTriggerFallback(t *testing.T) {
	sess := browsertest.New("https://shop.example/")
	trigger := `button[class*="search" i]`
	sess.Visible[trigger] = 5
	sess.OnClick = func(expr string, _ int) {
		if expr == trigger {
			// The click reveals a search box.
			sess.Visible[`input[type="search"]`] = 1
		}
	}

	h, err := NewLocator(nil).Locate(context.Background(), sess)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if h.Family != "revealed" {
		t.Fatalf("family = %q, want revealed", h.Family)
	}
	// Five matches are visible but only the first three get clicked.
	clicks := 0
	for _, c := range sess.Calls {
		if strings.HasPrefix(c, "click "+trigger) {
			clicks++
		}
	}
	if clicks != 3 {
		t.Fatalf("trigger clicks = %d, want 3", clicks)
	}
}

func TestLocatorNotFound(t *testing.T) {
	sess := browsertest.New("https://shop.example/")

	_, err := NewLocator(nil).Locate(context.Background(), sess)
	if err != ErrInputNotFound {
		t.Fatalf("err = %v, want ErrInputNotFound", err)
	}
}
