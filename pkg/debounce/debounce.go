// Package debounce coalesces bursts of events into a single delayed action
// per key.
package debounce

import (
	"sync"
	"time"
)

const (
	// DefaultDelay is used for ordinary typing.
	DefaultDelay = 150 * time.Millisecond
	// NoisyDelay is the upper bound for pages that fire many events per keystroke.
	NoisyDelay = 300 * time.Millisecond
)

// Executor runs fired actions. Implementations must run posted funcs one at
// a time.
type Executor interface {
	Post(fn func())
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(fn func())

func (f ExecutorFunc) Post(fn func()) { f(fn) }

// Scheduler holds at most one pending action per key. Scheduling again for
// the same key supersedes the earlier action and restarts the delay.
type Scheduler struct {
	mu      sync.Mutex
	clock   Clock
	exec    Executor
	pending map[any]*entry
	gen     uint64
	stopped bool
}

type entry struct {
	gen   uint64
	timer Timer
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the real clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// New creates a scheduler that posts fired actions to exec.
func New(exec Executor, opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:   RealClock{},
		exec:    exec,
		pending: make(map[any]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule arranges for action to run once delay has passed with no newer
// Schedule call for key. Keys must be comparable.
func (s *Scheduler) Schedule(key any, delay time.Duration, action func()) {
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	if prev, ok := s.pending[key]; ok {
		prev.timer.Stop()
	}

	s.gen++
	e := &entry{gen: s.gen}
	gen := s.gen
	s.pending[key] = e
	e.timer = s.clock.AfterFunc(delay, func() {
		s.exec.Post(func() { s.fire(key, gen, action) })
	})
}

// fire runs on the executor. A timer that raced with a supersede or Cancel
// finds a newer generation (or nothing) and does nothing.
func (s *Scheduler) fire(key any, gen uint64, action func()) {
	s.mu.Lock()
	e, ok := s.pending[key]
	if !ok || e.gen != gen || s.stopped {
		s.mu.Unlock()
		return
	}
	delete(s.pending, key)
	s.mu.Unlock()

	action()
}

// Cancel drops the pending action for key. Returns false if none was pending.
func (s *Scheduler) Cancel(key any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.pending[key]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(s.pending, key)
	return true
}

// IsPending reports whether key has an action waiting.
func (s *Scheduler) IsPending(key any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[key]
	return ok
}

// Pending returns the number of keys with an action waiting.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Stop cancels everything and rejects further scheduling.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.pending {
		e.timer.Stop()
		delete(s.pending, k)
	}
	s.stopped = true
}

// Clamp bounds d to [DefaultDelay, NoisyDelay]. Zero means DefaultDelay.
func Clamp(d time.Duration) time.Duration {
	switch {
	case d < DefaultDelay:
		return DefaultDelay
	case d > NoisyDelay:
		return NoisyDelay
	}
	return d
}
