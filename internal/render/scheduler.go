package render

import (
	"sync"
	"time"

	"github.com/sightlinehq/sightline/internal/logger"
)

// DefaultFrameInterval approximates one display frame.
const DefaultFrameInterval = 16 * time.Millisecond

// Scheduler coalesces draw requests from any number of chart instances
// into a single frame tick. At most one tick is pending at a time across
// all registered callbacks, so a burst of updates (many sparklines
// refreshing on the same poll) costs one frame, not N.
type Scheduler struct {
	mu       sync.Mutex
	interval time.Duration
	timer    *time.Timer
	pending  []*frameCallback
	log      logger.Logger
}

type frameCallback struct {
	fn        func()
	cancelled bool
}

// NewScheduler creates a scheduler with the given frame interval.
// A zero interval uses DefaultFrameInterval.
func NewScheduler(interval time.Duration, log logger.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	if log == nil {
		log = logger.Noop()
	}
	return &Scheduler{interval: interval, log: log}
}

// Schedule queues a draw callback for the next frame tick and returns a
// cancel handle. Cancelling before the tick prevents the callback from
// firing. Scheduling while a tick is already pending joins that tick.
func (s *Scheduler) Schedule(draw func()) (cancel func()) {
	cb := &frameCallback{fn: draw}

	s.mu.Lock()
	s.pending = append(s.pending, cb)
	if s.timer == nil {
		s.timer = time.AfterFunc(s.interval, s.Flush)
	}
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		cb.cancelled = true
		s.mu.Unlock()
	}
}

// Flush runs all pending callbacks immediately and clears the tick.
// Called by the frame timer; tests call it directly to step frames.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	for _, cb := range batch {
		s.mu.Lock()
		skip := cb.cancelled
		s.mu.Unlock()
		if skip {
			continue
		}
		s.runIsolated(cb.fn)
	}
}

// Pending returns the number of callbacks waiting for the next tick.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, cb := range s.pending {
		if !cb.cancelled {
			n++
		}
	}
	return n
}

// Stop cancels any pending tick without running its callbacks.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = nil
}

// runIsolated runs one callback, containing a panic so a bad chart
// cannot take down the rest of the frame.
func (s *Scheduler) runIsolated(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("draw callback panicked: %v", r)
		}
	}()
	fn()
}
