package discover

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/FranksOps/harrier/internal/browser"
	"github.com/FranksOps/harrier/internal/heuristics"
)

// ErrNoNavigation means typing and submitting the probe never changed the
// page URL, so there is nothing to reverse-engineer.
var ErrNoNavigation = errors.New("search submit did not navigate")

// Synthesizer executes a probe query through a located input and builds the
// endpoint from the resulting navigation.
type Synthesizer struct {
	log *slog.Logger
	// waitTimeout bounds the wait for the URL to change after submit.
	waitTimeout time.Duration
	poll        time.Duration
}

// NewSynthesizer builds a Synthesizer with default waits.
func NewSynthesizer(logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{log: logger, waitTimeout: 8 * time.Second, poll: 250 * time.Millisecond}
}

// Synthesize types probeTerm into input, submits, waits for navigation, and
// reverse-engineers the endpoint from the landing URL.
func (s *Synthesizer) Synthesize(ctx context.Context, sess browser.Session, input InputHandle, probeTerm string) (Endpoint, error) {
	before, err := sess.Location(ctx)
	if err != nil {
		return Endpoint{}, fmt.Errorf("read location before probe: %w", err)
	}

	if err := sess.TypeInto(ctx, input.Query, input.Index, probeTerm); err != nil {
		return Endpoint{}, fmt.Errorf("type probe term: %w", err)
	}
	s.submit(ctx, sess, input)

	landed, ok := s.waitURLChange(ctx, sess, before)
	if !ok {
		return Endpoint{}, fmt.Errorf("%w: still on %s", ErrNoNavigation, before)
	}

	ep, err := FromNavigation(landed, probeTerm)
	if err != nil {
		return Endpoint{}, err
	}
	if ep.Degraded() {
		s.log.Warn("no query parameter carries the probe term; endpoint is degraded",
			"platform", ep.Platform, "landed", landed)
	} else {
		s.log.Info("search endpoint synthesized",
			"platform", ep.Platform, "param", ep.SearchParam, "template", ep.URLTemplate)
	}
	return ep, nil
}

// submit fires the search via a visible submit control, falling back to a
// synthetic Enter key on the input itself.
func (s *Synthesizer) submit(ctx context.Context, sess browser.Session, input InputHandle) {
	for _, q := range heuristics.SubmitControls {
		n, err := sess.CountVisible(ctx, q)
		if err != nil || n == 0 {
			continue
		}
		if err := sess.ClickVisible(ctx, q, 0); err == nil {
			return
		}
	}
	if err := sess.PressEnter(ctx, input.Query, input.Index); err != nil {
		s.log.Debug("enter key submit failed", "error", err)
	}
}

// waitURLChange polls the location until it differs from before or the
// bounded wait elapses.
func (s *Synthesizer) waitURLChange(ctx context.Context, sess browser.Session, before string) (string, bool) {
	deadline := time.Now().Add(s.waitTimeout)
	for {
		if loc, err := sess.Location(ctx); err == nil && loc != before && loc != "" {
			return loc, true
		}
		if ctx.Err() != nil || time.Now().After(deadline) {
			return before, false
		}
		sleep(ctx, s.poll)
	}
}
