package retry

import (
	"context"
	"fmt"
	"time"
)

// IntervalFunc returns how long to sleep before retry attempt n (n starts
// at 1 for the first retry).
type IntervalFunc func(attempt int) time.Duration

// Exponential returns an interval function that starts at start and
// multiplies by factor on every subsequent retry.
func Exponential(start time.Duration, factor float64) IntervalFunc {
	return func(attempt int) time.Duration {
		d := start
		for i := 1; i < attempt; i++ {
			d = time.Duration(float64(d) * factor)
		}
		return d
	}
}

// Policy bounds a retried operation: at most Attempts total tries, sleeping
// per Interval between them. Retryable decides whether an error is worth
// retrying; a nil Retryable retries every error.
type Policy struct {
	Attempts  int
	Interval  IntervalFunc
	Retryable func(error) bool
}

// DefaultPolicy is the standard policy for calls against the cloud APIs:
// 5 attempts with exponential backoff starting at 2 seconds and doubling.
func DefaultPolicy() Policy {
	return Policy{
		Attempts: 5,
		Interval: Exponential(2*time.Second, 2),
	}
}

// Do runs op until it succeeds, the policy is exhausted, the error is not
// retryable, or the context is done. The last error is returned wrapped
// with the attempt count when all attempts fail.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if attempt > 1 {
			timer := time.NewTimer(p.Interval(attempt - 1))
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			}
		}

		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if p.Retryable != nil && !p.Retryable(err) {
			return zero, err
		}
	}

	return zero, fmt.Errorf("gave up after %d attempts: %w", p.Attempts, lastErr)
}
