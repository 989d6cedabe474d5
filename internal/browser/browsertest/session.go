// Package browsertest provides a scripted in-memory Session for exercising
// the locator, synthesizer, and settle logic without a browser.
package browsertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/FranksOps/harrier/internal/heuristics"
)

// Session is a fake browser tab. Fields configure what the page "contains";
// the Calls slice records every action for assertions.
type Session struct {
	mu sync.Mutex

	// URL is the current location. Navigate sets it; OnEnter may change it.
	URL string
	// Page is returned by HTML, Text by BodyText.
	Page string
	Text string
	// Visible maps a query expression to its visible match count.
	Visible map[string]int
	// Heights is consumed one value per PageHeight call; the last value
	// repeats once exhausted.
	Heights []int64
	// NavigateErr, if set, is returned by Navigate.
	NavigateErr error
	// OnClick, if set, runs after each recorded click.
	OnClick func(expr string, index int)
	// OnEnter, if set, runs on PressEnter; it typically rewrites URL to
	// simulate a submitted search.
	OnEnter func()

	Calls  []string
	Typed  map[string]string
	Closed bool

	heightIdx int
}

// New returns an empty fake session at url.
func New(url string) *Session {
	return &Session{URL: url, Visible: map[string]int{}, Typed: map[string]string{}}
}

func (s *Session) record(format string, args ...any) {
	s.Calls = append(s.Calls, fmt.Sprintf(format, args...))
}

func (s *Session) Navigate(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("navigate %s", url)
	if s.NavigateErr != nil {
		return s.NavigateErr
	}
	s.URL = url
	return nil
}

func (s *Session) Location(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.URL, nil
}

func (s *Session) HTML(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Page, nil
}

func (s *Session) BodyText(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Text, nil
}

func (s *Session) CountVisible(_ context.Context, q heuristics.Query) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Visible[q.Expr], nil
}

func (s *Session) ClickVisible(_ context.Context, q heuristics.Query, index int) error {
	s.mu.Lock()
	s.record("click %s [%d]", q.Expr, index)
	fn := s.OnClick
	s.mu.Unlock()
	if fn != nil {
		fn(q.Expr, index)
	}
	return nil
}

func (s *Session) TypeInto(_ context.Context, q heuristics.Query, index int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("type %s [%d] %q", q.Expr, index, text)
	s.Typed[q.Expr] = text
	return nil
}

func (s *Session) PressEnter(_ context.Context, q heuristics.Query, index int) error {
	s.mu.Lock()
	s.record("enter %s [%d]", q.Expr, index)
	fn := s.OnEnter
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
	return nil
}

func (s *Session) ScrollToBottom(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("scroll")
	return nil
}

func (s *Session) PageHeight(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Heights) == 0 {
		return 0, nil
	}
	h := s.Heights[min(s.heightIdx, len(s.Heights)-1)]
	s.heightIdx++
	return h, nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// ClickCount returns how many recorded clicks targeted expr.
func (s *Session) ClickCount(expr string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.Calls {
		if len(c) > 6 && c[:6] == "click " && containsExpr(c[6:], expr) {
			n++
		}
	}
	return n
}

func containsExpr(call, expr string) bool {
	return len(call) >= len(expr) && call[:len(expr)] == expr
}
