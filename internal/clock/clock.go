package clock

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FakeClock is deterministic and test-friendly.
type FakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{t: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// OffsetClock shifts real time by a mutable whole-day offset. It backs the
// debug clock endpoint that lets testers fast-forward streak and catch-up
// flows without waiting for midnight.
type OffsetClock struct {
	mu   sync.Mutex
	base Clock
	days int
}

func NewOffsetClock(base Clock) *OffsetClock {
	if base == nil {
		base = RealClock{}
	}
	return &OffsetClock{base: base}
}

func (c *OffsetClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.base.Now().AddDate(0, 0, c.days)
}

func (c *OffsetClock) AddDays(n int) {
	c.mu.Lock()
	c.days += n
	c.mu.Unlock()
}

func (c *OffsetClock) Reset() {
	c.mu.Lock()
	c.days = 0
	c.mu.Unlock()
}

func (c *OffsetClock) OffsetDays() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.days
}
