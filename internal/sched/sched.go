// Package sched wraps clock timers in cancellable tasks. Every timer and
// polling interval in the server runs through a Scheduler so teardown paths
// can prove nothing is left ticking.
package sched

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Scheduler creates tasks against an injected clock. Tests use a
// clockwork fake clock to fire timers deterministically.
type Scheduler struct {
	clock clockwork.Clock

	mu    sync.Mutex
	tasks map[*Task]struct{}
}

// Task is one scheduled callback. Cancel is idempotent and safe to call
// after the task has fired.
type Task struct {
	s    *Scheduler
	stop chan struct{}
	once sync.Once
}

func New(clock clockwork.Clock) *Scheduler {
	return &Scheduler{clock: clock, tasks: make(map[*Task]struct{})}
}

func (s *Scheduler) Clock() clockwork.Clock { return s.clock }

// After runs fn once after d, unless cancelled first.
func (s *Scheduler) After(d time.Duration, fn func()) *Task {
	t := &Task{s: s, stop: make(chan struct{})}
	s.track(t)
	timer := s.clock.NewTimer(d)
	go func() {
		defer s.untrack(t)
		select {
		case <-timer.Chan():
			fn()
		case <-t.stop:
			timer.Stop()
		}
	}()
	return t
}

// Every runs fn on every tick of a d-period ticker until cancelled. Changing
// cadence means cancelling and creating a fresh task; there is deliberately
// no in-place reschedule.
func (s *Scheduler) Every(d time.Duration, fn func()) *Task {
	t := &Task{s: s, stop: make(chan struct{})}
	s.track(t)
	ticker := s.clock.NewTicker(d)
	go func() {
		defer s.untrack(t)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				fn()
			case <-t.stop:
				return
			}
		}
	}()
	return t
}

// Cancel stops the task. The callback will not run again after Cancel
// returns, though a callback already in flight finishes.
func (t *Task) Cancel() {
	if t == nil {
		return
	}
	t.once.Do(func() { close(t.stop) })
}

// Outstanding reports how many tasks are still live. Zero after a clean
// teardown.
func (s *Scheduler) Outstanding() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *Scheduler) track(t *Task) {
	s.mu.Lock()
	s.tasks[t] = struct{}{}
	s.mu.Unlock()
}

func (s *Scheduler) untrack(t *Task) {
	s.mu.Lock()
	delete(s.tasks, t)
	s.mu.Unlock()
}
