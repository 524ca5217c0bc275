package pkg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(retries int) RetryPolicy {
	return RetryPolicy{MaxRetries: retries, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestRetry_SucceedsFirstTime(t *testing.T) {
	result, attempts, err := Retry(context.Background(), fastPolicy(3), func(ctx context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, attempts)
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	result, attempts, err := Retry(context.Background(), fastPolicy(3), func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("temporary")
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 3, attempts)
}

func TestRetry_ReturnsLastError(t *testing.T) {
	sentinel := errors.New("still down")
	calls := 0
	_, attempts, err := Retry(context.Background(), fastPolicy(2), func(ctx context.Context) (string, error) {
		calls++
		return "", sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, calls)
}

func TestRetry_StopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, _, err := Retry(ctx, fastPolicy(5), func(ctx context.Context) (string, error) {
		calls++
		cancel()
		return "", errors.New("failed")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_AttemptTimeout(t *testing.T) {
	policy := fastPolicy(1)
	policy.AttemptTimeout = 10 * time.Millisecond

	calls := 0
	_, attempts, err := Retry(context.Background(), policy, func(ctx context.Context) (string, error) {
		calls++
		<-ctx.Done()
		return "", ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 2, calls)
}

func TestRetryPolicy_BackoffIsCapped(t *testing.T) {
	policy := RetryPolicy{BaseDelay: 100 * time.Millisecond, MaxDelay: 400 * time.Millisecond}

	for attempt := 0; attempt < 8; attempt++ {
		delay := policy.backoff(attempt)
		assert.Positive(t, delay)
		assert.LessOrEqual(t, delay, 400*time.Millisecond*5/4)
	}
	assert.Zero(t, RetryPolicy{}.backoff(3))
}

func TestRetryPolicy_BackoffLateAttemptsStayPositive(t *testing.T) {
	policy := RetryPolicy{BaseDelay: 100 * time.Millisecond, MaxDelay: 400 * time.Millisecond}
	for _, attempt := range []int{35, 40, 63, 64, 100, 1000} {
		var delay time.Duration
		require.NotPanics(t, func() { delay = policy.backoff(attempt) })
		assert.Positive(t, delay)
		assert.LessOrEqual(t, delay, 400*time.Millisecond*5/4)
	}

	uncapped := RetryPolicy{BaseDelay: time.Second}
	for _, attempt := range []int{40, 100} {
		var delay time.Duration
		require.NotPanics(t, func() { delay = uncapped.backoff(attempt) })
		assert.Positive(t, delay)
	}
}
