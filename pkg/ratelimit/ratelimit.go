// Package ratelimit paces outbound catalog requests so a batch of concurrent
// resolutions never hammers the store front at full speed.
package ratelimit

import (
	"context"
	"math/rand"
	"time"
)

// Limiter spaces operations at a fixed rate with optional random jitter.
// It is safe for concurrent use by multiple goroutines.
type Limiter struct {
	ticker   *time.Ticker
	interval time.Duration
	jitter   float64 // 0.0 to 1.0
	ch       <-chan time.Time
}

// NewLimiter creates a limiter allowing rps operations per second. Jitter is
// clamped to [0,1] and randomizes each wait by up to jitter*interval. An rps
// of zero or less yields a limiter that never blocks.
func NewLimiter(rps float64, jitter float64) *Limiter {
	if rps <= 0 {
		return &Limiter{}
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
		interval: interval,
		jitter:   jitter,
		ch:       ticker.C,
	}
}

// Wait blocks until the next slot is available or the context is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.ch == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.ch:
	}

	if l.jitter <= 0 {
		return nil
	}

	// Random extra delay in [0, jitter*interval). The ticker already enforces
	// the minimum spacing, so only positive jitter is applied on top.
	extra := time.Duration(rand.Float64() * l.jitter * float64(l.interval))
	if extra <= 0 {
		return nil
	}

	select {
	case <-time.After(extra):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop releases the limiter's ticker.
func (l *Limiter) Stop() {
	if l.ticker != nil {
		l.ticker.Stop()
	}
}
