package testutil

import (
	"sync"
	"time"
)

// Fixed instants for deterministic schedules and late-fee arithmetic.
var (
	IST       = time.FixedZone("IST", 5*60*60+30*60)
	TestEpoch = time.Date(2024, time.January, 15, 10, 30, 0, 0, IST)
)

// FixedClock is a settable clock satisfying port.Clock.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFixedClock(now time.Time) *FixedClock {
	return &FixedClock{now: now}
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set jumps the clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
