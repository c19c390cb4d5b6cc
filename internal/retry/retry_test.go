package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/bbs-poster/internal/retry"
)

type tempErr struct{ temp bool }

func (e tempErr) Error() string   { return "temp error" }
func (e tempErr) Temporary() bool { return e.temp }

func fastConfig(attempts int) retry.Config {
	return retry.Config{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	t.Parallel()

	calls := 0
	var retries []int
	cfg := fastConfig(3)
	cfg.OnRetry = func(attempt int, _ error, _ time.Duration) { retries = append(retries, attempt) }

	err := retry.Retry(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return tempErr{temp: true}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retries)
}

func TestRetry_StopsOnPermanentError(t *testing.T) {
	t.Parallel()

	calls := 0
	permanent := tempErr{temp: false}
	err := retry.Retry(context.Background(), fastConfig(5), func() error {
		calls++
		return permanent
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, permanent, err)
	assert.NotErrorIs(t, err, retry.ErrMaxAttemptsExceeded)
}

func TestRetry_PlainErrorsAreNotRetried(t *testing.T) {
	t.Parallel()

	calls := 0
	err := retry.Retry(context.Background(), fastConfig(5), func() error {
		calls++
		return errors.New("boom")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	t.Parallel()

	calls := 0
	err := retry.Retry(context.Background(), fastConfig(3), func() error {
		calls++
		return tempErr{temp: true}
	})

	assert.Equal(t, 3, calls)
	require.ErrorIs(t, err, retry.ErrMaxAttemptsExceeded)

	var te tempErr
	assert.True(t, errors.As(err, &te))
}

func TestRetry_SingleAttemptReturnsErrorUnchanged(t *testing.T) {
	t.Parallel()

	want := tempErr{temp: true}
	err := retry.Retry(context.Background(), fastConfig(1), func() error { return want })

	assert.Equal(t, want, err)
}

func TestRetry_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := retry.Retry(ctx, fastConfig(3), func() error {
		calls++
		return nil
	})

	assert.Equal(t, 0, calls)
	require.ErrorIs(t, err, retry.ErrContextCancelled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	cfg := retry.Config{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}

	assert.Equal(t, 100*time.Millisecond, retry.Backoff(cfg, 1))
	assert.Equal(t, 200*time.Millisecond, retry.Backoff(cfg, 2))
	assert.Equal(t, 400*time.Millisecond, retry.Backoff(cfg, 3))
	assert.Equal(t, time.Second, retry.Backoff(cfg, 10))
}
