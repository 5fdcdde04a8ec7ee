package transport

import (
	"context"
	"sync"
	"time"
)

// HostGate bounds request pressure per host with an exact sliding window:
// at most limit requests to the same host within any window of the given
// length. Requests to different hosts never wait on each other.
type HostGate struct {
	limit  int
	window time.Duration
	clock  Clock
	sleep  Sleeper

	mu    sync.Mutex
	hosts map[string][]time.Time
}

func NewHostGate(limit int, window time.Duration) *HostGate {
	return newHostGate(limit, window, realClock{}, realSleeper{})
}

func newHostGate(limit int, window time.Duration, clock Clock, sleep Sleeper) *HostGate {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = time.Second
	}

	return &HostGate{
		limit:  limit,
		window: window,
		clock:  clock,
		sleep:  sleep,
		hosts:  make(map[string][]time.Time),
	}
}

// Wait blocks until the host has a free slot in the current window, then
// claims it. Waiting sleeps until the oldest recorded request falls out of
// the window and re-checks, so the limit is exact rather than approximate.
func (g *HostGate) Wait(ctx context.Context, host string) error {
	for {
		wait, ok := g.tryClaim(host)
		if ok {
			return nil
		}

		if err := g.sleep.Sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (g *HostGate) tryClaim(host string) (time.Duration, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	cutoff := now.Add(-g.window)

	stamps := g.hosts[host]
	kept := stamps[:0]
	for _, ts := range stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) < g.limit {
		g.hosts[host] = append(kept, now)
		return 0, true
	}

	g.hosts[host] = kept

	return kept[0].Sub(cutoff), false
}

// InWindow reports how many requests to the host are currently inside the
// window. Used for diagnostics and tests.
func (g *HostGate) InWindow(host string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	cutoff := g.clock.Now().Add(-g.window)
	n := 0
	for _, ts := range g.hosts[host] {
		if ts.After(cutoff) {
			n++
		}
	}

	return n
}
