// Package backoff provides retry delay strategies for transient store
// failures. All strategies are stateless and safe for concurrent use.
package backoff

import (
	"math"
	"math/rand/v2"
	"time"
)

// Strategy computes the delay before a retry attempt.
type Strategy interface {
	// Delay returns how long to wait before retry attempt n (1-indexed).
	// Attempt 1 is the first retry after the initial failure.
	Delay(attempt int) time.Duration
}

// Fixed always returns the same delay regardless of attempt number.
type Fixed struct {
	Interval time.Duration
}

// NewFixed creates a fixed backoff strategy.
func NewFixed(interval time.Duration) *Fixed {
	return &Fixed{Interval: interval}
}

// Delay returns the fixed interval.
func (f *Fixed) Delay(_ int) time.Duration {
	return f.Interval
}

// Exponential doubles the delay each attempt.
// Delay = min(Initial * 2^(attempt-1), Max).
type Exponential struct {
	Initial time.Duration
	Max     time.Duration
}

// NewExponential creates an exponential backoff strategy.
func NewExponential(initial, maxDelay time.Duration) *Exponential {
	return &Exponential{Initial: initial, Max: maxDelay}
}

// Delay returns Initial * 2^(attempt-1), capped at Max.
func (e *Exponential) Delay(attempt int) time.Duration {
	d := time.Duration(float64(e.Initial) * math.Pow(2, float64(attempt-1)))
	if e.Max > 0 && d > e.Max {
		return e.Max
	}
	return d
}

// Jitter wraps another strategy with full jitter: the delay becomes a
// random value in [0, inner delay]. This spreads out retries when many
// jobs fail at once (a store outage hits every worker simultaneously).
type Jitter struct {
	Inner Strategy
}

// NewJitter wraps a strategy with full jitter.
func NewJitter(inner Strategy) *Jitter {
	return &Jitter{Inner: inner}
}

// Delay returns a random duration in [0, Inner.Delay(attempt)].
func (j *Jitter) Delay(attempt int) time.Duration {
	base := float64(j.Inner.Delay(attempt))
	return time.Duration(rand.Float64() * base) //nolint:gosec // jitter intentionally uses non-crypto rand
}

// Default returns the strategy the pipeline uses when none is
// configured: full-jitter exponential, 500ms initial, 30s cap.
func Default() Strategy {
	return NewJitter(NewExponential(500*time.Millisecond, 30*time.Second))
}
