// Package task implements the task runtime (spec.md §4.E): creation,
// await, cancellation, and the parent-child registry that backs
// structured concurrency scopes. Each Task runs its thunk on its own
// goroutine but only one task's goroutine is ever actively interpreting
// at a time, enforced by the shared sched.Scheduler token — see
// internal/sched for the cooperative-scheduling rationale, grounded on
// grafana/k6's vuHandle (context+channel+mutex coordination) and
// sivakku/cadence-client's workflow.go (parent/child task registries for
// structured concurrency).
package task

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/uni-lang/uni/internal/sched"
	"github.com/uni-lang/uni/internal/value"
)

// Status is a task's terminal-or-not state.
type Status int

const (
	Pending Status = iota
	Done
	Failed
	Cancelled
)

// ErrCancelled is the error produced by Await for a Cancelled task, and
// by a task's own suspension points once it has been cancelled.
var ErrCancelled = errors.New("task: cancelled")

// Task is a handle to a cooperatively scheduled unit of execution. It
// implements value.Value so it flows through the language as a
// first-class Task value.
type Task struct {
	id     uuid.UUID
	sched  *sched.Scheduler
	mu     sync.Mutex
	status Status
	result value.Value
	err    error
	done   chan struct{}

	parent     *Task
	children   []*Task
	onCancel   []func()
	cancelCh   chan struct{}
	cancelOnce sync.Once

	steps       int
	steppedOnce bool
}

// RecordStep counts one suspension point this task has crossed and, the
// first time steps exceeds budget (0 disables the check), logs a
// warning through log — a soft signal of runaway concurrency (spec.md's
// resource model is otherwise unbounded), not an enforced limit.
func (t *Task) RecordStep(budget int, log *slog.Logger) {
	t.mu.Lock()
	t.steps++
	steps := t.steps
	already := t.steppedOnce
	if budget > 0 && steps > budget {
		t.steppedOnce = true
	}
	t.mu.Unlock()
	if budget > 0 && steps > budget && !already && log != nil {
		log.Warn("task: exceeded step budget", "task", t.id, "steps", steps, "budget", budget)
	}
}

// NewRoot creates the implicit top-level task that owns the initial
// script evaluation; it has no parent and is never itself cancelled by a
// structured scope.
func NewRoot(s *sched.Scheduler) *Task {
	return &Task{id: uuid.New(), sched: s, done: make(chan struct{}), cancelCh: make(chan struct{})}
}

func (t *Task) Kind() value.Kind { return value.KindTask }
func (t *Task) Inspect() string  { return "task(" + t.id.String() + ")" }

// CancelChan returns the channel that closes when this task is
// cancelled; callers performing a suspension select on it alongside
// their own resume channel.
func (t *Task) CancelChan() <-chan struct{} { return t.cancelCh }

// Fork spawns a new task evaluating thunk(), parented to parent (nil for
// a detached top-level task). The returned Task transitions to
// Done/Failed when thunk returns, or may be externally Cancelled first.
func Fork(s *sched.Scheduler, parent *Task, thunk func(self *Task) (value.Value, error)) *Task {
	t := &Task{
		id:       uuid.New(),
		sched:    s,
		done:     make(chan struct{}),
		cancelCh: make(chan struct{}),
		parent:   parent,
	}
	if parent != nil {
		parent.mu.Lock()
		parent.children = append(parent.children, t)
		parent.mu.Unlock()
	}
	go func() {
		s.Acquire()
		result, err := thunk(t)
		t.finish(result, err)
		s.Release()
	}()
	return t
}

func (t *Task) finish(result value.Value, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != Pending {
		// Already Cancelled by an external call; a terminal status never
		// transitions again (spec.md §4.E invariant).
		return
	}
	switch {
	case errors.Is(err, ErrCancelled):
		t.status = Cancelled
	case err != nil:
		t.status = Failed
		t.err = err
	default:
		t.status = Done
		t.result = result
	}
	close(t.done)
}

// Await blocks the calling task (identified by its own suspension
// machinery) until t reaches a terminal status, then returns its value
// or re-raises its error/cancellation.
func (t *Task) Await(s *sched.Scheduler, cancel <-chan struct{}) (value.Value, error) {
	t.mu.Lock()
	if t.status != Pending {
		status, result, err := t.status, t.result, t.err
		t.mu.Unlock()
		return terminalValue(status, result, err)
	}
	t.mu.Unlock()

	var cancelled bool
	s.Suspend(func() {
		select {
		case <-t.done:
		case <-cancel:
			cancelled = true
		}
	})
	if cancelled {
		return nil, ErrCancelled
	}
	t.mu.Lock()
	status, result, err := t.status, t.result, t.err
	t.mu.Unlock()
	return terminalValue(status, result, err)
}

func terminalValue(status Status, result value.Value, err error) (value.Value, error) {
	switch status {
	case Done:
		return result, nil
	case Failed:
		return nil, err
	case Cancelled:
		return nil, ErrCancelled
	default:
		return nil, errors.New("task: await observed non-terminal status")
	}
}

// Cancel transitions a Pending task to Cancelled and fires its
// registered cancellation callbacks (which may themselves cancel
// descendant tasks). It is a no-op on an already-terminal task.
func (t *Task) Cancel() {
	t.mu.Lock()
	if t.status != Pending {
		t.mu.Unlock()
		return
	}
	t.status = Cancelled
	callbacks := append([]func(){}, t.onCancel...)
	t.mu.Unlock()

	t.cancelOnce.Do(func() { close(t.cancelCh) })
	for _, cb := range callbacks {
		cb()
	}
	t.mu.Lock()
	select {
	case <-t.done:
	default:
		close(t.done)
	}
	t.mu.Unlock()
}

// OnCancel registers a callback invoked synchronously from Cancel. If
// the task is already terminal, cb runs immediately.
func (t *Task) OnCancel(cb func()) {
	t.mu.Lock()
	if t.status != Pending {
		t.mu.Unlock()
		cb()
		return
	}
	t.onCancel = append(t.onCancel, cb)
	t.mu.Unlock()
}

// Status returns the task's current status.
func (t *Task) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Children returns a snapshot of tasks forked with this task as parent.
func (t *Task) Children() []*Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Task, len(t.children))
	copy(out, t.children)
	return out
}
