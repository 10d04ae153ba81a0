package reliability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/mcpcore/internal/reliability"
)

func TestPolicy_SucceedsWithoutRetry(t *testing.T) {
	policy := reliability.NewPolicy(reliability.RetryConfig{MaxAttempts: 3})
	calls := 0
	err := policy.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestPolicy_RetriesUntilSuccess(t *testing.T) {
	policy := reliability.NewPolicy(reliability.RetryConfig{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		MaxDelay:    10 * time.Millisecond,
		Backoff:     reliability.BackoffFixed,
		Jitter:      reliability.JitterNone,
	})
	calls := 0
	err := policy.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPolicy_ExhaustsAttempts(t *testing.T) {
	policy := reliability.NewPolicy(reliability.RetryConfig{
		MaxAttempts: 2,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	})
	calls := 0
	err := policy.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("always fails")
	})
	assert.ErrorIs(t, err, reliability.ErrRetriesExhausted)
	assert.Equal(t, 2, calls)
}

func TestPolicy_NonRetryableErrorStopsImmediately(t *testing.T) {
	sentinel := errors.New("do not retry")
	policy := reliability.NewPolicy(reliability.RetryConfig{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		Retryable:   func(err error) bool { return !errors.Is(err, sentinel) },
	})
	calls := 0
	err := policy.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}

func TestPolicy_ContextCancelledStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := reliability.NewPolicy(reliability.RetryConfig{
		MaxAttempts: 10,
		BaseDelay:   50 * time.Millisecond,
	})
	calls := 0
	err := policy.Do(ctx, func(ctx context.Context) error {
		calls++
		if calls == 1 {
			cancel()
		}
		return errors.New("fail")
	})
	assert.ErrorIs(t, err, context.Canceled)
}
