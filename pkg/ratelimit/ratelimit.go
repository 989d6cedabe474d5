// Package ratelimit paces probe traffic with an optional jitter so repeated
// hits against one site do not form a mechanical rhythm.
package ratelimit

import (
	"context"
	"math/rand"
	"time"
)

// Limiter controls the rate of operations. Safe for concurrent use.
type Limiter struct {
	ticker   *time.Ticker
	jitter   float64 // 0.0 to 1.0
	interval time.Duration
	ch       <-chan time.Time
}

// NewLimiter creates a limiter for rps requests per second with a jitter
// factor in [0, 1]. rps <= 0 yields a limiter that never blocks.
func NewLimiter(rps float64, jitter float64) *Limiter {
	if rps <= 0 {
		return &Limiter{jitter: jitter}
	}
	if jitter < 0 {
		jitter = 0
	} else if jitter > 1 {
		jitter = 1
	}

	interval := time.Duration(float64(time.Second) / rps)
	ticker := time.NewTicker(interval)
	return &Limiter{
		ticker:   ticker,
		jitter:   jitter,
		interval: interval,
		ch:       ticker.C,
	}
}

// Wait blocks until the next slot or until ctx is cancelled. Positive jitter
// adds up to jitter*interval of extra sleep; the ticker already enforces the
// minimum spacing.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.ch == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.ch:
		if l.jitter > 0 {
			factor := (rand.Float64() * 2) - 1.0
			extra := time.Duration(float64(l.interval) * l.jitter * factor)
			if extra > 0 {
				select {
				case <-time.After(extra):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
	return nil
}

// Stop releases the limiter's ticker.
func (l *Limiter) Stop() {
	if l.ticker != nil {
		l.ticker.Stop()
	}
}
