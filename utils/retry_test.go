package utils_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/e1732a364fed/xray_launcher/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestRetryStopsAtBound(t *testing.T) {
	calls := 0
	err := utils.Retry(context.Background(), utils.RetryPolicy{Attempts: 4}, func(int) error {
		calls++
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, 4, calls)
}

func TestRetryReturnsOnSuccess(t *testing.T) {
	calls := 0
	err := utils.Retry(context.Background(), utils.RetryPolicy{Attempts: 5}, func(attempt int) error {
		calls++
		if attempt < 2 {
			return errBoom
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetryNonRetryable(t *testing.T) {
	fatal := errors.New("fatal")
	calls := 0
	err := utils.Retry(context.Background(), utils.RetryPolicy{
		Attempts:  5,
		Retryable: func(err error) bool { return !errors.Is(err, fatal) },
	}, func(int) error {
		calls++
		return fatal
	})
	require.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestRetryZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = utils.Retry(context.Background(), utils.RetryPolicy{}, func(int) error {
		calls++
		return errBoom
	})
	assert.Equal(t, 1, calls)
}

func TestRetryContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := utils.Retry(ctx, utils.RetryPolicy{
		Attempts: 3,
		Backoff:  utils.FixedBackoff(time.Hour),
	}, func(int) error {
		calls++
		cancel()
		return errBoom
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestLinearBackoff(t *testing.T) {
	b := utils.LinearBackoff(2 * time.Second)
	assert.Equal(t, 2*time.Second, b(1))
	assert.Equal(t, 6*time.Second, b(3))
}
