package utils

import (
	"context"
	"errors"
	"time"
)

// ErrStopRetry, when wrapped by an attempt's error, ends RetryForever early.
var ErrStopRetry = errors.New("stop retrying")

// SleepCtx waits for d or until ctx is done. It reports whether the full
// duration elapsed.
func SleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// RetryForever calls attempt until it succeeds, waiting backoff between
// failures. attempt receives the 1-based attempt number. onFailure, if set,
// is called after every failed attempt. It returns the number of attempts
// made and nil on success, or the context error on cancellation.
func RetryForever(ctx context.Context, backoff time.Duration, attempt func(n int) error, onFailure func(n int, err error)) (int, error) {
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return n - 1, err
		}

		err := attempt(n)
		if err == nil {
			return n, nil
		}
		if errors.Is(err, ErrStopRetry) {
			return n, err
		}
		if onFailure != nil {
			onFailure(n, err)
		}

		if !SleepCtx(ctx, backoff) {
			return n, ctx.Err()
		}
	}
}
