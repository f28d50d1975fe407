// Package sched provides the single run-token that makes task execution
// single-threaded and cooperative (spec.md §5) while still letting each
// task run on its own goroutine. Exactly one goroutine may hold the token
// at a time; a task releases it only at a suspension point (channel
// receive, await, wait, or a yielding handler continuation) and must
// reacquire it before resuming interpreter work. This "big lock" pattern
// mirrors how grafana/k6's vuHandle coordinates goroutines through a
// mutex plus context cancellation rather than unrestricted parallelism.
package sched

import (
	"log/slog"
	"sync"
)

// Scheduler is the process-wide run token. The zero value is usable.
type Scheduler struct {
	mu  sync.Mutex
	log *slog.Logger
}

// New returns a ready Scheduler.
func New() *Scheduler { return &Scheduler{} }

// SetLogger attaches a logger that Suspend emits debug lines through;
// nil disables logging (the zero value's behavior).
func (s *Scheduler) SetLogger(l *slog.Logger) { s.log = l }

// Acquire takes the run token; call once when a task goroutine starts or
// resumes after a suspension.
func (s *Scheduler) Acquire() { s.mu.Lock() }

// Release gives up the run token; call when a task goroutine finishes or
// is about to suspend.
func (s *Scheduler) Release() { s.mu.Unlock() }

// Suspend releases the run token, invokes wait (which performs the
// actual blocking operation on a real channel/condition), then
// reacquires the token before returning. Every suspension point in the
// evaluator funnels through this single function.
func (s *Scheduler) Suspend(wait func()) {
	if s.log != nil {
		s.log.Debug("scheduler: suspending run token")
	}
	s.Release()
	wait()
	s.Acquire()
	if s.log != nil {
		s.log.Debug("scheduler: resumed run token")
	}
}
