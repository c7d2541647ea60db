package engine

import (
	"sync"
	"time"
)

// Scheduler runs one callback per frame. A callback that wants another frame schedules
// itself again; only the latest pending callback runs. Callbacks never overlap.
type Scheduler interface {
	Schedule(fn func())
	Stop()
}

// TickerScheduler fires pending callbacks on a wall-clock ticker.
type TickerScheduler struct {
	interval time.Duration

	mu      sync.Mutex
	pending func()
	started bool
	stopped bool
	done    chan struct{}
}

func NewTickerScheduler(fps int) *TickerScheduler {
	return &TickerScheduler{interval: FrameStep(fps), done: make(chan struct{})}
}

func (s *TickerScheduler) Schedule(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.pending = fn
	if !s.started {
		s.started = true
		go s.loop()
	}
}

func (s *TickerScheduler) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			fn := s.pending
			s.pending = nil
			s.mu.Unlock()
			if fn != nil {
				fn()
			}
		}
	}
}

// Stop drops any pending callback. It may be called from inside a callback.
func (s *TickerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	s.pending = nil
	close(s.done)
}

// LockstepScheduler runs callbacks back to back on a VirtualClock, advancing it by Step
// after each one. Output is frame-exact and renders as fast as the CPU allows.
type LockstepScheduler struct {
	Clock *VirtualClock
	Step  time.Duration

	mu      sync.Mutex
	pending func()
	started bool
	stopped bool
	wake    chan struct{}
	done    chan struct{}
}

func NewLockstepScheduler(clock *VirtualClock, step time.Duration) *LockstepScheduler {
	return &LockstepScheduler{
		Clock: clock,
		Step:  step,
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

func (s *LockstepScheduler) Schedule(fn func()) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.pending = fn
	if !s.started {
		s.started = true
		go s.loop()
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *LockstepScheduler) loop() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}
		s.mu.Lock()
		fn := s.pending
		s.pending = nil
		s.mu.Unlock()
		if fn == nil {
			continue
		}
		fn()
		s.Clock.Advance(s.Step)
	}
}

func (s *LockstepScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	s.pending = nil
	close(s.done)
}

// Timing builds the clock and scheduler for one session.
type Timing func(fps int) (Clock, Scheduler)

// RealTime paces frames against the wall clock.
func RealTime(fps int) (Clock, Scheduler) {
	return SystemClock{}, NewTickerScheduler(fps)
}

// Offline renders every frame slot exactly once on a virtual clock.
func Offline(fps int) (Clock, Scheduler) {
	clock := NewVirtualClock()
	return clock, NewLockstepScheduler(clock, FrameStep(fps))
}
