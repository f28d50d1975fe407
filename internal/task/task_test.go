package task

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uni-lang/uni/internal/sched"
	"github.com/uni-lang/uni/internal/value"
)

func TestForkAwaitReturnsResult(t *testing.T) {
	s := sched.New()
	s.Acquire()
	child := Fork(s, nil, func(self *Task) (value.Value, error) {
		return value.Number{Value: 42}, nil
	})
	v, err := child.Await(s, nil)
	require.NoError(t, err)
	assert.Equal(t, float64(42), v.(value.Number).Value)
	s.Release()
}

func TestCancellationSoundness(t *testing.T) {
	s := sched.New()
	s.Acquire()
	started := make(chan struct{})
	child := Fork(s, nil, func(self *Task) (value.Value, error) {
		close(started)
		s.Suspend(func() { <-self.CancelChan() })
		return nil, ErrCancelled
	})
	s.Release()

	<-started
	child.Cancel()

	s.Acquire()
	v, err := child.Await(s, nil)
	s.Release()

	assert.ErrorIs(t, err, ErrCancelled)
	assert.Nil(t, v)
	assert.Equal(t, Cancelled, child.Status())
}

func TestScopeContainmentAfterChildrenFinish(t *testing.T) {
	s := sched.New()
	scope := NewScope(nil)

	s.Acquire()
	a := Fork(s, scope.Parent(), func(self *Task) (value.Value, error) { return value.Nil, nil })
	b := Fork(s, scope.Parent(), func(self *Task) (value.Value, error) { return value.Nil, nil })
	s.Release()

	s.Acquire()
	_, _ = a.Await(s, nil)
	_, _ = b.Await(s, nil)
	s.Release()

	for _, c := range scope.Children() {
		assert.NotEqual(t, Pending, c.Status())
	}
}

func TestScopeCancelChildrenCancelsOnlyPending(t *testing.T) {
	s := sched.New()
	scope := NewScope(nil)

	s.Acquire()
	done := Fork(s, scope.Parent(), func(self *Task) (value.Value, error) { return value.Nil, nil })
	s.Release()
	s.Acquire()
	_, _ = done.Await(s, nil)
	s.Release()

	s.Acquire()
	blocked := Fork(s, scope.Parent(), func(self *Task) (value.Value, error) {
		s.Suspend(func() { <-self.CancelChan() })
		return nil, ErrCancelled
	})
	s.Release()

	scope.CancelChildren()

	s.Acquire()
	_, err := blocked.Await(s, nil)
	s.Release()

	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, Done, done.Status())
}

func TestOnCancelRunsImmediatelyOnTerminalTask(t *testing.T) {
	s := sched.New()
	s.Acquire()
	child := Fork(s, nil, func(self *Task) (value.Value, error) { return value.Nil, nil })
	s.Release()
	s.Acquire()
	_, _ = child.Await(s, nil)
	s.Release()

	var called bool
	child.OnCancel(func() { called = true })
	assert.True(t, called)
}

func TestRecordStepWarnsOnceAfterBudgetExceeded(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	root := NewRoot(sched.New())
	for i := 0; i < 5; i++ {
		root.RecordStep(3, log)
	}

	out := buf.String()
	assert.Contains(t, out, "exceeded step budget")
	assert.Equal(t, 1, strings.Count(out, "exceeded step budget"))
}

func TestRecordStepNoopWithZeroBudget(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	root := NewRoot(sched.New())
	for i := 0; i < 10; i++ {
		root.RecordStep(0, log)
	}
	assert.Empty(t, buf.String())
}
