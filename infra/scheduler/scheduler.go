// Package scheduler fires zero-arg actions at absolute wall-clock instants.
// Runtimes use it to arm match start, match end, and post-shutdown eviction.
package scheduler

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrInPast rejects a schedule whose instant has already passed.
var ErrInPast = errors.New("scheduler: instant is in the past")

// Scheduler defines the timing contract the runtimes depend on.
type Scheduler interface {
	// Schedule arms action to run once, on its own goroutine, no earlier
	// than at. The name only labels log lines.
	Schedule(name string, at time.Time, action func()) (*Handle, error)
}

// Handle identifies one armed action.
type Handle struct {
	timer *time.Timer
}

// Cancel prevents a not-yet-started invocation. It is a no-op once the action
// has started; an in-flight action is never aborted.
func (h *Handle) Cancel() {
	h.timer.Stop()
}

type timerScheduler struct {
	logger *slog.Logger

	mu      sync.Mutex
	pending map[*Handle]struct{}
	closed  bool
}

func New(logger *slog.Logger) *timerScheduler {
	return &timerScheduler{
		logger:  logger,
		pending: make(map[*Handle]struct{}),
	}
}

func (s *timerScheduler) Schedule(name string, at time.Time, action func()) (*Handle, error) {
	delay := time.Until(at)
	if delay <= 0 {
		return nil, ErrInPast
	}

	h := &Handle{}
	h.timer = time.AfterFunc(delay, func() {
		s.forget(h)
		s.logger.Debug("scheduled task firing", "task", name)
		action()
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		h.timer.Stop()
		return nil, errors.New("scheduler: stopped")
	}
	s.pending[h] = struct{}{}
	s.logger.Debug("task scheduled", "task", name, "at", at)
	return h, nil
}

func (s *timerScheduler) forget(h *Handle) {
	s.mu.Lock()
	delete(s.pending, h)
	s.mu.Unlock()
}

// Shutdown cancels every armed action that has not fired yet.
func (s *timerScheduler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for h := range s.pending {
		h.timer.Stop()
	}
	s.pending = make(map[*Handle]struct{})
}
