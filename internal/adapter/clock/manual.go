package clock

import (
	"sync"
	"time"

	"github.com/tejashwikalptaru/turntable/internal/ports"
)

// ManualClock only moves when Advance is called. Used by tests and by the
// mock engine to make progress deterministic.
type ManualClock struct {
	mu      sync.Mutex
	elapsed time.Duration
}

// NewManualClock creates a clock at the given elapsed time.
func NewManualClock(start time.Duration) *ManualClock {
	return &ManualClock{elapsed: start}
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.elapsed += d
	c.mu.Unlock()
}

// Elapsed returns the accumulated time.
func (c *ManualClock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

// Reset sets the accumulated time to zero.
func (c *ManualClock) Reset() {
	c.Set(0)
}

// Set sets the accumulated time.
func (c *ManualClock) Set(elapsed time.Duration) {
	c.mu.Lock()
	c.elapsed = elapsed
	c.mu.Unlock()
}

var _ ports.Clock = (*ManualClock)(nil)
