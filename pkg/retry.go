package pkg

import (
	"context"
	"math"
	"math/rand"
	"time"
)

type RetryPolicy struct {
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	// AttemptTimeout bounds each attempt. Zero means the parent context alone applies.
	AttemptTimeout time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     2,
		BaseDelay:      500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		AttemptTimeout: 30 * time.Second,
	}
}

// Retry runs op until it succeeds, the retries are exhausted or ctx is done.
// The last error is returned as is so callers can still match on it.
func Retry[T any](ctx context.Context, policy RetryPolicy, op func(ctx context.Context) (T, error)) (T, int, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return zero, attempt, lastErr
			}
			return zero, attempt, err
		}

		result, err := runAttempt(ctx, policy.AttemptTimeout, op)
		if err == nil {
			return result, attempt + 1, nil
		}
		lastErr = err

		// the caller gave up, no point in trying again
		if ctx.Err() != nil {
			return zero, attempt + 1, err
		}

		if attempt < policy.MaxRetries {
			select {
			case <-time.After(policy.backoff(attempt)):
			case <-ctx.Done():
				return zero, attempt + 1, lastErr
			}
		}
	}

	return zero, policy.MaxRetries + 1, lastErr
}

func runAttempt[T any](ctx context.Context, timeout time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return op(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return op(attemptCtx)
}

// backoff doubles the base delay per attempt, caps it and adds jitter.
func (slf RetryPolicy) backoff(attempt int) time.Duration {
	if slf.BaseDelay <= 0 {
		return 0
	}
	delay := slf.BaseDelay
	for i := 0; i < attempt; i++ {
		if (slf.MaxDelay > 0 && delay >= slf.MaxDelay) || delay > math.MaxInt64/4 {
			break
		}
		delay *= 2
	}
	if slf.MaxDelay > 0 && delay > slf.MaxDelay {
		delay = slf.MaxDelay
	}

	jitter := time.Duration(rand.Int63n(int64(delay)/2 + 1))
	return delay - delay/4 + jitter
}
