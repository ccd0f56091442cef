// Package clock provides the elapsed-time accumulator that drives tonearm progress.
package clock

import (
	"sync"
	"time"

	"github.com/tejashwikalptaru/turntable/internal/ports"
)

// WallClock accumulates wall-clock time since the last Reset or Set.
// It never stops on its own; pause/resume is done by saving Elapsed and calling Set later.
//
// Thread-safety: This implementation is thread-safe.
type WallClock struct {
	now func() time.Time

	mu      sync.Mutex
	base    time.Duration
	started time.Time
}

// NewWallClock creates a clock starting at zero.
func NewWallClock() *WallClock {
	return NewWallClockWithNow(time.Now)
}

// NewWallClockWithNow creates a clock reading time from now (for tests).
func NewWallClockWithNow(now func() time.Time) *WallClock {
	return &WallClock{
		now:     now,
		started: now(),
	}
}

// Elapsed returns the accumulated time.
func (c *WallClock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.base + c.now().Sub(c.started)
}

// Reset sets the accumulated time to zero.
func (c *WallClock) Reset() {
	c.Set(0)
}

// Set sets the accumulated time and restarts the delta from now.
func (c *WallClock) Set(elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = elapsed
	c.started = c.now()
}

// Verify that WallClock implements the Clock interface
var _ ports.Clock = (*WallClock)(nil)
