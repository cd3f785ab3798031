package utils

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy bounds a Retry loop. Attempts below 1 are treated as 1.
type RetryPolicy struct {
	Attempts int

	// Backoff returns the pause after the given failed attempt (1-based).
	// nil means no pause.
	Backoff func(attempt int) time.Duration

	// Retryable decides whether err deserves another attempt. nil means every error does.
	Retryable func(err error) bool

	// Name is only used in log lines.
	Name string
}

func FixedBackoff(d time.Duration) func(int) time.Duration {
	return func(int) time.Duration { return d }
}

// LinearBackoff waits attempt*d after each failure, i.e. d, 2d, 3d...
func LinearBackoff(d time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration { return time.Duration(attempt) * d }
}

// Retry calls fn until it succeeds, returns a non retryable error, the
// attempts are used up or ctx is done. It returns the last error of fn, or
// ctx.Err() if ctx ended while waiting.
func Retry(ctx context.Context, p RetryPolicy, fn func(attempt int) error) (err error) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if e := ctx.Err(); e != nil {
			return e
		}

		err = fn(attempt)
		if err == nil {
			return nil
		}

		if ce := CanLogWarn("attempt failed"); ce != nil {
			ce.Write(
				zap.String("task", p.Name),
				zap.Int("attempt", attempt),
				zap.Int("of", attempts),
				zap.Error(err),
			)
		}

		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if attempt == attempts || p.Backoff == nil {
			continue
		}

		d := p.Backoff(attempt)
		if d <= 0 {
			continue
		}
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return
}
