// Package retry defines an explicit retry policy: how many attempts to make
// and how long to back off between them. The schedule is deterministic so it
// can be unit-tested without any network involvement.
package retry

import (
	"context"
	"time"
)

// Policy is a value object describing a bounded exponential backoff schedule.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt, so a call
	// runs at most MaxRetries+1 times.
	MaxRetries int
	// BaseDelay is the wait before the first retry.
	BaseDelay time.Duration
	// MaxDelay caps the backoff growth. Zero means uncapped.
	MaxDelay time.Duration
	// Multiplier scales the delay between consecutive retries. Values below 1
	// are treated as the default of 2.
	Multiplier float64
}

// DefaultPolicy matches the catalog client defaults: three retries starting
// at half a second and doubling.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 3,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   10 * time.Second,
		Multiplier: 2,
	}
}

// Delay returns the backoff before retry number attempt (0-based):
// BaseDelay * Multiplier^attempt, capped at MaxDelay.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 2
	}

	d := float64(p.BaseDelay)
	for i := 0; i < attempt; i++ {
		d *= mult
		if p.MaxDelay > 0 && d >= float64(p.MaxDelay) {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// Do runs fn until it succeeds, returns a non-retryable error, or the policy
// is exhausted. fn reports whether its error is worth retrying. Between
// attempts Do sleeps per the schedule and honors context cancellation; the
// last error seen is returned on exhaustion or cancellation.
func (p Policy) Do(ctx context.Context, fn func() (retryable bool, err error)) error {
	var lastErr error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(p.Delay(attempt - 1)):
			case <-ctx.Done():
				if lastErr != nil {
					return lastErr
				}
				return ctx.Err()
			}
		}

		retryable, err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			return err
		}
	}

	return lastErr
}
