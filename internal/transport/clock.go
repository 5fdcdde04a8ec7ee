package transport

import (
	"context"
	"time"
)

// Clock provides the current time. The rate gate and retry loop read time
// through this so tests can drive them with a synthetic clock.
type Clock interface {
	Now() time.Time
}

// Sleeper performs a cancellable wait.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
