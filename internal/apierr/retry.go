package apierr

import (
	"context"
	"time"
)

// Retry runs fn up to attempts+1 times, sleeping delay (doubled each time)
// between tries. Only retryable errors are repeated.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func(context.Context) error) error {
	var err error
	for i := 0; ; i++ {
		err = fn(ctx)
		if err == nil || i >= attempts || !IsRetryable(err) {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
		delay *= 2
	}
}
