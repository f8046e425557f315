package resilience

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// BackoffFunc computes the delay before retry number attempt (1-based).
type BackoffFunc func(attempt int) time.Duration

// LinearBackoff grows the delay by a fixed step per attempt: step, 2*step,
// 3*step, ... capped at max. Used for upstream 429s, which ask for
// progressively longer pauses rather than an exponential blowup.
func LinearBackoff(step, max time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		d := time.Duration(attempt) * step
		if max > 0 && d > max {
			return max
		}
		return d
	}
}

// ConstantBackoff waits the same delay before every retry.
func ConstantBackoff(delay time.Duration) BackoffFunc {
	return func(int) time.Duration {
		return delay
	}
}

// Policy is an explicit bounded-retry policy: how many attempts a unit of
// work gets and how long to wait between them. The caller's context
// cancels both the waits and the work.
type Policy struct {
	// MaxAttempts is the total number of attempts including the first.
	// Values below 1 are treated as 1.
	MaxAttempts int

	// Backoff computes the inter-attempt delay. Nil means no delay.
	Backoff BackoffFunc

	// ShouldRetry overrides the default IsTransient check when set.
	ShouldRetry func(err error) bool
}

// DefaultPolicy is a sensible policy for rate-limited API calls: three
// attempts with linearly escalating pauses.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Backoff:     LinearBackoff(2*time.Second, 30*time.Second),
	}
}

// Do runs fn under the policy. Non-retryable errors and context
// cancellation return immediately; otherwise the last error is returned
// after the last attempt fails.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal runs fn under the policy, preserving the successful return value.
func DoVal[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	shouldRetry := p.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = IsTransient
	}

	var zero T
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !shouldRetry(err) || attempt == attempts {
			break
		}

		var delay time.Duration
		if p.Backoff != nil {
			delay = p.Backoff(attempt)
		}
		zap.L().Debug("resilience: retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}

	return zero, lastErr
}
