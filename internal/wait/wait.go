// Package wait provides bounded polling and context-aware settle delays.
package wait

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is wrapped by every bounded wait that expires.
var ErrTimeout = errors.New("timed out")

const DefaultInterval = 200 * time.Millisecond

// Condition is polled until it reports true. An error from a single poll is
// not fatal; the last one is attached to the timeout.
type Condition func(ctx context.Context) (bool, error)

// Poll evaluates cond immediately and then every interval until it returns
// true, the timeout elapses, or ctx is done. Expiry yields an error wrapping
// ErrTimeout; parent cancellation yields ctx.Err().
func Poll(ctx context.Context, timeout, interval time.Duration, what string, cond Condition) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	for {
		ok, err := cond(ctx)
		if err == nil && ok {
			return nil
		}
		if err != nil {
			lastErr = err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			if lastErr != nil {
				return fmt.Errorf("%w after %s waiting for %s: %v", ErrTimeout, timeout, what, lastErr)
			}
			return fmt.Errorf("%w after %s waiting for %s", ErrTimeout, timeout, what)
		case <-ticker.C:
		}
	}
}

// Settle sleeps for d unless ctx ends first. It is a timing dependency, not a
// readiness guarantee; prefer Poll when a signal exists.
func Settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}
