// Package retry executes fallible operations with deterministic exponential
// backoff. Delays carry no jitter and there is no cancellation primitive: a
// retry sequence runs to success or attempt exhaustion, so call sites bound
// the total wait through MaxAttempts and InitialDelay.
package retry

import (
	"time"

	"github.com/hupe1980/couchmesh/core"
)

// Policy controls how an operation is retried. Zero-valued fields fall back
// to their minimums (one attempt, no delay, flat backoff, transient-only
// predicate), so partial literals compose cleanly with Retrier defaults.
type Policy struct {
	// MaxAttempts is the total number of calls, the first try included.
	MaxAttempts int
	// InitialDelay is the sleep before the first retry; each later retry
	// waits InitialDelay scaled by BackoffMultiplier^(attempt-1).
	InitialDelay time.Duration
	// BackoffMultiplier scales the delay after every retry.
	BackoffMultiplier float64
	// IsRetryable decides whether an error deserves another attempt.
	// Nil means core.IsTransient.
	IsRetryable func(error) bool
	// Sleep replaces time.Sleep between attempts. Tests inject a recorder.
	Sleep func(time.Duration)
}

// DefaultPolicy retries transient failures three times starting at 100ms.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:       3,
		InitialDelay:      100 * time.Millisecond,
		BackoffMultiplier: 2,
	}
}

func (p Policy) normalize() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.InitialDelay < 0 {
		p.InitialDelay = 0
	}
	if p.BackoffMultiplier < 1 {
		p.BackoffMultiplier = 1
	}
	if p.IsRetryable == nil {
		p.IsRetryable = core.IsTransient
	}
	if p.Sleep == nil {
		p.Sleep = time.Sleep
	}
	return p
}

// merge overlays set fields of o onto p; per-call values win.
func (p Policy) merge(o Policy) Policy {
	if o.MaxAttempts != 0 {
		p.MaxAttempts = o.MaxAttempts
	}
	if o.InitialDelay != 0 {
		p.InitialDelay = o.InitialDelay
	}
	if o.BackoffMultiplier != 0 {
		p.BackoffMultiplier = o.BackoffMultiplier
	}
	if o.IsRetryable != nil {
		p.IsRetryable = o.IsRetryable
	}
	if o.Sleep != nil {
		p.Sleep = o.Sleep
	}
	return p
}

// Do executes op under policy, returning the first success or the last
// error seen once attempts are exhausted or the error is not retryable.
// Attempts are 1-indexed: the retry after attempt n sleeps
// InitialDelay × BackoffMultiplier^(n−1).
func Do[T any](op func() (T, error), policy Policy) (T, error) {
	p := policy.normalize()
	delay := p.InitialDelay

	var zero T
	for attempt := 1; ; attempt++ {
		v, err := op()
		if err == nil {
			return v, nil
		}
		if attempt >= p.MaxAttempts || !p.IsRetryable(err) {
			return zero, err
		}
		p.Sleep(delay)
		delay = time.Duration(float64(delay) * p.BackoffMultiplier)
	}
}

// Retrier is a Policy partially applied: per-call overrides win over its
// defaults. Construct one with New and share it freely; it is stateless.
type Retrier struct {
	defaults Policy
}

// New builds a Retrier whose defaults apply to every Do call.
func New(defaults Policy) *Retrier {
	return &Retrier{defaults: defaults}
}

// Resolve returns the retrier's defaults merged with overrides, later
// overrides winning. Use with the package-level Do for value-returning
// operations.
func (r *Retrier) Resolve(overrides ...Policy) Policy {
	p := r.defaults
	for _, o := range overrides {
		p = p.merge(o)
	}
	return p
}

// Do runs op under the merged policy.
func (r *Retrier) Do(op func() error, overrides ...Policy) error {
	_, err := Do(func() (struct{}, error) { return struct{}{}, op() }, r.Resolve(overrides...))
	return err
}
