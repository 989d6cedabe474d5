package discover

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/FranksOps/harrier/internal/browser"
	"github.com/FranksOps/harrier/internal/heuristics"
)

// ErrInputNotFound means no search input was located after the full cascade
// and the trigger fallback. Terminal for the site.
var ErrInputNotFound = errors.New("no search input found")

// maxTriggerClicks bounds how many matches of one trigger pattern get
// clicked while hunting for a hidden search input.
const maxTriggerClicks = 3

// InputHandle addresses the located search input for later typing. The
// handle stays valid as long as the session stays on the same page.
type InputHandle struct {
	Family string
	Query  heuristics.Query
	Index  int
}

// Locator finds an actionable search input on a live page.
type Locator struct {
	log *slog.Logger
}

// NewLocator builds a Locator.
func NewLocator(logger *slog.Logger) *Locator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Locator{log: logger}
}

// Locate runs the family cascade and, if nothing is visible, the trigger
// fallback for click-to-reveal search UIs.
func (l *Locator) Locate(ctx context.Context, sess browser.Session) (InputHandle, error) {
	if h, ok := l.scan(ctx, sess); ok {
		return h, nil
	}
	if h, ok := l.triggerFallback(ctx, sess); ok {
		return h, nil
	}
	return InputHandle{}, ErrInputNotFound
}

// scan walks the selector families most-specific first and returns the first
// visible, enabled match.
func (l *Locator) scan(ctx context.Context, sess browser.Session) (InputHandle, bool) {
	for _, fam := range heuristics.SearchInputFamilies {
		for _, q := range fam.Queries {
			if ctx.Err() != nil {
				return InputHandle{}, false
			}
			n, err := sess.CountVisible(ctx, q)
			if err != nil || n == 0 {
				continue
			}
			l.log.Debug("search input located", "family", fam.Name, "selector", q.Expr)
			return InputHandle{Family: fam.Name, Query: q, Index: 0}, true
		}
	}
	return InputHandle{}, false
}

// triggerFallback clicks search-icon and menu patterns that may reveal a
// hidden input, rescanning after each pattern. Click failures are ignored;
// the rescan decides whether anything useful happened.
func (l *Locator) triggerFallback(ctx context.Context, sess browser.Session) (InputHandle, bool) {
	for _, trigger := range heuristics.SearchTriggers {
		if ctx.Err() != nil {
			return InputHandle{}, false
		}
		n, err := sess.CountVisible(ctx, trigger)
		if err != nil || n == 0 {
			continue
		}
		if n > maxTriggerClicks {
			n = maxTriggerClicks
		}
		clicked := false
		for i := 0; i < n; i++ {
			if err := sess.ClickVisible(ctx, trigger, i); err == nil {
				clicked = true
			}
		}
		if !clicked {
			continue
		}
		sleep(ctx, 500*time.Millisecond)

		for _, q := range heuristics.RevealedInputs {
			if cnt, err := sess.CountVisible(ctx, q); err == nil && cnt > 0 {
				l.log.Debug("search input revealed by trigger", "trigger", trigger.Expr, "selector", q.Expr)
				return InputHandle{Family: "revealed", Query: q, Index: 0}, true
			}
		}
		if h, ok := l.scan(ctx, sess); ok {
			return h, true
		}
	}
	return InputHandle{}, false
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
