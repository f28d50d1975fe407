// Package channel implements the channel runtime (spec.md §4.D): a
// rendezvous point with an unbounded FIFO queue and waiter list, plus
// status introspection. Grounded on the teacher's concurrency-adjacent
// idioms (mutex-guarded state machines, FIFO ordering guarantees) seen in
// grafana/k6's vuHandle and in the Channel invariants spec.md states
// explicitly.
package channel

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/uni-lang/uni/internal/sched"
	"github.com/uni-lang/uni/internal/value"
)

// ErrClosed is returned by Send when the channel has already been closed.
var ErrClosed = errors.New("channel: send on closed channel")

// ErrReceiveClosed is returned by Receive/await-style consumers once the
// channel is closed and its queue has fully drained.
var ErrReceiveClosed = errors.New("channel: receive on closed channel")

// ErrCancelled is returned by Receive when the calling task was cancelled
// while suspended waiting for a value.
var ErrCancelled = errors.New("channel: receive cancelled")

type msg struct {
	val value.Value
	err error // non-nil: the sent value was an Error; re-raise on receive
}

type waiter struct {
	resume chan msg
}

// Status mirrors the four channel states from spec.md §4.D as atoms.
type Status = *value.Symbol

var (
	StatusEmpty   = value.AtomEmpty
	StatusPending = value.AtomPending
	StatusQueued  = value.AtomQueued
	StatusClosed  = value.AtomClosed
)

// Chan is a handle to a channel object; it implements value.Value so it
// can flow through the language as a first-class Channel value.
type Chan struct {
	mu      sync.Mutex
	id      uuid.UUID
	name    string
	queue   []msg
	waiters []*waiter
	closed  bool

	softLimit int
	log       *slog.Logger
	warned    bool
}

func New(name string) *Chan {
	return &Chan{id: uuid.New(), name: name}
}

// SetQueueSoftLimit attaches a soft cap on the buffered queue length and
// a logger to warn through: channels are unbounded (spec.md §4.D), a
// sender is never blocked by this, but a queue growing past limit is a
// sign nothing is ever receiving, worth a diagnostic. limit <= 0 or a
// nil logger disables the check.
func (c *Chan) SetQueueSoftLimit(limit int, log *slog.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.softLimit = limit
	c.log = log
}

func (c *Chan) Kind() value.Kind { return value.KindChannel }

func (c *Chan) Inspect() string {
	if c.name != "" {
		return fmt.Sprintf("channel(%s)", c.name)
	}
	return fmt.Sprintf("channel(%s)", c.id)
}

// Status reports the channel's current state without consuming anything.
func (c *Chan) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

func (c *Chan) statusLocked() Status {
	switch {
	case c.closed && len(c.queue) == 0:
		return StatusClosed
	case len(c.queue) > 0:
		return StatusPending
	case len(c.waiters) > 0:
		return StatusQueued
	default:
		return StatusEmpty
	}
}

// Send resolves the head waiter (if any) or appends v to the queue.
// isError marks v as an Error value that must be re-raised by whichever
// receive eventually consumes it. Fails with ErrClosed on a closed
// channel.
func (c *Chan) Send(v value.Value, isError bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	m := msg{val: v}
	if isError {
		m.err = fmt.Errorf("%s", v.Inspect())
	}
	if len(c.waiters) > 0 {
		w := c.waiters[0]
		c.waiters = c.waiters[1:]
		w.resume <- m
		return nil
	}
	c.queue = append(c.queue, m)
	if c.softLimit > 0 && len(c.queue) > c.softLimit && !c.warned && c.log != nil {
		c.warned = true
		c.log.Warn("channel: buffered queue exceeded soft limit", "channel", c.id, "len", len(c.queue), "limit", c.softLimit)
	}
	return nil
}

// SendStatus is the non-raising variant used by the `SendStatus` AST
// node: it performs the same send but reports a status atom instead of
// an error.
func (c *Chan) SendStatus(v value.Value, isError bool) Status {
	if err := c.Send(v, isError); err != nil {
		return StatusClosed
	}
	return value.AtomOK
}

// Receive blocks (cooperatively, via sch.Suspend) until a value is
// available, the channel closes, or cancel fires. It dequeues in FIFO
// order and re-raises values that were sent as errors.
func (c *Chan) Receive(sch *sched.Scheduler, cancel <-chan struct{}) (value.Value, error) {
	c.mu.Lock()
	if len(c.queue) > 0 {
		m := c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()
		return m.val, m.err
	}
	if c.closed {
		c.mu.Unlock()
		return nil, ErrReceiveClosed
	}
	w := &waiter{resume: make(chan msg, 1)}
	c.waiters = append(c.waiters, w)
	c.mu.Unlock()

	var (
		m         msg
		cancelled bool
		gotClosed bool
	)
	sch.Suspend(func() {
		select {
		case m = <-w.resume:
		case <-cancel:
			cancelled = true
		}
	})
	if cancelled {
		return nil, ErrCancelled
	}
	if m.val == nil && m.err == nil {
		gotClosed = true
	}
	if gotClosed {
		return nil, ErrReceiveClosed
	}
	return m.val, m.err
}

// TryReceive is the non-blocking variant backing the `ReceiveStatus` AST
// node (`<-?`): it reports the channel's state and, when a value was
// available, consumes and returns it.
func (c *Chan) TryReceive() (value.Value, Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) > 0 {
		m := c.queue[0]
		c.queue = c.queue[1:]
		if m.err != nil {
			return wrapError(m.err), StatusPending
		}
		return m.val, StatusPending
	}
	return value.Nil, c.statusLocked()
}

func wrapError(err error) value.Value {
	return value.String{Value: err.Error()}
}

// Close marks the channel closed; queued messages remain available to
// future receives, but any currently-suspended waiters are woken with
// "closed" immediately, since nothing will ever resolve them now.
func (c *Chan) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for _, w := range c.waiters {
		w.resume <- msg{}
	}
	c.waiters = nil
}
