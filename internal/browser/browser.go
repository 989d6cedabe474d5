// Package browser owns the browser-automation session used by discovery and
// extraction. Each call acquires exactly one session, drives it strictly
// sequentially, and releases it on every exit path. The Session interface is
// the seam between the heuristic engines and chromedp, which also keeps the
// engines testable without a browser.
package browser

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/FranksOps/harrier/internal/heuristics"
)

// ErrNavigation marks a page that failed to load within the timeout. It is
// terminal for the call; the caller may retry the URL later.
var ErrNavigation = errors.New("navigation failed")

// Config controls browser launch and settling behavior.
type Config struct {
	Headless     bool
	UserAgent    string
	WindowWidth  int
	WindowHeight int
	// PageLoadTimeout bounds Navigate. Defaults to 30s.
	PageLoadTimeout time.Duration
	// SettleAttempts caps the scroll/trigger/dismiss loop. Defaults to 4.
	SettleAttempts int
	// SettlePause is the wait after each scroll for lazy content. Defaults to 1200ms.
	SettlePause time.Duration
	Logger      *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.WindowWidth <= 0 {
		c.WindowWidth = 1920
	}
	if c.WindowHeight <= 0 {
		c.WindowHeight = 1080
	}
	if c.PageLoadTimeout <= 0 {
		c.PageLoadTimeout = 30 * time.Second
	}
	if c.SettleAttempts <= 0 {
		c.SettleAttempts = 4
	}
	if c.SettlePause <= 0 {
		c.SettlePause = 1200 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Session is one live browser tab. Implementations must tolerate Close being
// called more than once. All element addressing goes through heuristics.Query
// so the locator cascades can mix CSS and XPath families freely.
type Session interface {
	Navigate(ctx context.Context, url string) error
	Location(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
	BodyText(ctx context.Context) (string, error)
	// CountVisible returns how many matches of q are visible and enabled.
	CountVisible(ctx context.Context, q heuristics.Query) (int, error)
	// ClickVisible clicks the index-th visible match of q.
	ClickVisible(ctx context.Context, q heuristics.Query, index int) error
	// TypeInto clears the index-th visible match of q and types text into it.
	TypeInto(ctx context.Context, q heuristics.Query, index int, text string) error
	// PressEnter sends a synthetic Enter key to the index-th visible match of q.
	PressEnter(ctx context.Context, q heuristics.Query, index int) error
	ScrollToBottom(ctx context.Context) error
	PageHeight(ctx context.Context) (int64, error)
	Close() error
}

// ReadyPage is a settled page handed to the locator or extractor: the final
// URL, an HTML snapshot taken after settling, and the still-live session for
// engines that need to keep interacting (typing, trigger clicks).
type ReadyPage struct {
	URL     string
	HTML    string
	Session Session
}

// Close releases the underlying session.
func (p *ReadyPage) Close() error {
	if p == nil || p.Session == nil {
		return nil
	}
	return p.Session.Close()
}
