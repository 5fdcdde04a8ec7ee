package transport

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeClock is a synthetic clock whose Sleep advances time instantly.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time

	slept []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.slept = append(c.slept, d)
	return nil
}

func (c *fakeClock) totalSlept() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total time.Duration
	for _, d := range c.slept {
		total += d
	}
	return total
}

func TestHostGateNeverExceedsLimit(t *testing.T) {
	clock := newFakeClock()
	gate := newHostGate(3, time.Second, clock, clock)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		require.NoError(t, gate.Wait(ctx, "example.com"))
		require.LessOrEqual(t, gate.InWindow("example.com"), 3)
	}
}

func TestHostGateWaitsForOldestToExpire(t *testing.T) {
	clock := newFakeClock()
	gate := newHostGate(2, time.Second, clock, clock)
	ctx := context.Background()

	require.NoError(t, gate.Wait(ctx, "example.com"))
	require.NoError(t, gate.Wait(ctx, "example.com"))

	// third request must wait until the first slot falls out of the window
	require.NoError(t, gate.Wait(ctx, "example.com"))
	require.NotEmpty(t, clock.slept)
	require.Equal(t, time.Second, clock.slept[0])
}

func TestHostGateHostsAreIndependent(t *testing.T) {
	clock := newFakeClock()
	gate := newHostGate(1, time.Second, clock, clock)
	ctx := context.Background()

	require.NoError(t, gate.Wait(ctx, "a.example"))
	require.NoError(t, gate.Wait(ctx, "b.example"))
	require.Empty(t, clock.slept, "different hosts should not contend")
}

func TestHostGateRespectsCancellation(t *testing.T) {
	clock := newFakeClock()
	gate := newHostGate(1, time.Second, clock, clock)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, gate.Wait(ctx, "example.com"))

	cancel()
	require.Error(t, gate.Wait(ctx, "example.com"))
}
