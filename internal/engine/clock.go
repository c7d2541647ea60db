package engine

import (
	"sync"
	"time"
)

// Clock is the time source a session measures elapsed timeline position against.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// VirtualClock only moves when told to. Offline renders and tests drive it from the
// scheduler.
type VirtualClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewVirtualClock() *VirtualClock {
	return &VirtualClock{now: time.Unix(0, 0)}
}

func (c *VirtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *VirtualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// FrameStep is the tick interval for fps, rounded up so that k steps always land in
// frame slot k.
func FrameStep(fps int) time.Duration {
	if fps <= 0 {
		fps = 30
	}
	return (time.Second + time.Duration(fps) - 1) / time.Duration(fps)
}
