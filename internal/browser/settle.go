package browser

import (
	"context"
	"time"

	"github.com/FranksOps/harrier/internal/heuristics"
)

// Settle drives the page toward a stable state before a snapshot: scroll to
// the bottom for lazy-loaded content, click load-more style controls, and
// dismiss popups that would occlude results. Every step is best effort; a
// failing step never aborts the call. The loop stops early once the page
// height stops growing. Returns the number of attempts spent.
func Settle(ctx context.Context, s Session, cfg Config) int {
	cfg = cfg.withDefaults()
	log := cfg.Logger

	lastHeight, err := s.PageHeight(ctx)
	if err != nil {
		lastHeight = 0
	}
	for attempt := 0; attempt < cfg.SettleAttempts; attempt++ {
		if ctx.Err() != nil {
			return attempt
		}
		if err := s.ScrollToBottom(ctx); err != nil {
			log.Debug("settle: scroll failed", "attempt", attempt, "error", err)
		}
		pause(ctx, cfg.SettlePause)

		clickControls(ctx, s, heuristics.LoadMoreControls, 2)
		clickControls(ctx, s, heuristics.PopupCloseControls, 1)

		h, err := s.PageHeight(ctx)
		if err != nil {
			return attempt + 1
		}
		if h <= lastHeight {
			return attempt + 1
		}
		lastHeight = h
	}
	return cfg.SettleAttempts
}

// clickControls clicks up to maxPer visible matches of each query. Matches
// are re-counted per click since a click can remove the control.
func clickControls(ctx context.Context, s Session, queries []heuristics.Query, maxPer int) {
	for _, q := range queries {
		for i := 0; i < maxPer; i++ {
			if ctx.Err() != nil {
				return
			}
			n, err := s.CountVisible(ctx, q)
			if err != nil || n == 0 {
				break
			}
			if err := s.ClickVisible(ctx, q, 0); err != nil {
				break
			}
			pause(ctx, 300*time.Millisecond)
		}
	}
}

func pause(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
