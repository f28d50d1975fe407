package channel

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uni-lang/uni/internal/sched"
	"github.com/uni-lang/uni/internal/value"
)

func TestSendReceiveFIFO(t *testing.T) {
	c := New("t")
	require.NoError(t, c.Send(value.Number{Value: 1}, false))
	require.NoError(t, c.Send(value.Number{Value: 2}, false))
	require.NoError(t, c.Send(value.Number{Value: 3}, false))

	s := sched.New()
	for _, want := range []float64{1, 2, 3} {
		v, err := c.Receive(s, nil)
		require.NoError(t, err)
		assert.Equal(t, want, v.(value.Number).Value)
	}
}

func TestStatusTransitions(t *testing.T) {
	c := New("")
	assert.Equal(t, StatusEmpty, c.Status())

	require.NoError(t, c.Send(value.Number{Value: 1}, false))
	assert.Equal(t, StatusPending, c.Status())

	c.Close()
	assert.Equal(t, StatusPending, c.Status(), "queued message outlives close")

	s := sched.New()
	_, err := c.Receive(s, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, c.Status())
}

func TestSendOnClosedFails(t *testing.T) {
	c := New("")
	c.Close()
	err := c.Send(value.Number{Value: 1}, false)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestReceiveOnClosedEmptyQueueFails(t *testing.T) {
	c := New("")
	c.Close()
	s := sched.New()
	_, err := c.Receive(s, nil)
	assert.ErrorIs(t, err, ErrReceiveClosed)
}

func TestReceiveWakesOnCancel(t *testing.T) {
	c := New("")
	s := sched.New()
	cancel := make(chan struct{})
	close(cancel)

	s.Acquire()
	_, err := c.Receive(s, cancel)
	s.Release()
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestTryReceiveReportsEmptyThenValue(t *testing.T) {
	c := New("")
	_, status := c.TryReceive()
	assert.Equal(t, StatusEmpty, status)

	require.NoError(t, c.Send(value.String{Value: "x"}, false))
	v, status := c.TryReceive()
	assert.Equal(t, "x", v.(value.String).Value)
	assert.Equal(t, StatusPending, status)
}

func TestSendErrorValueIsReraisedOnReceive(t *testing.T) {
	c := New("")
	require.NoError(t, c.Send(value.String{Value: "boom"}, true))

	s := sched.New()
	_, err := c.Receive(s, nil)
	assert.Error(t, err)
}

func TestQueueSoftLimitWarnsOnceWhenExceeded(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	c := New("t")
	c.SetQueueSoftLimit(2, log)
	for i := 0; i < 5; i++ {
		require.NoError(t, c.Send(value.Number{Value: float64(i)}, false))
	}

	assert.Contains(t, buf.String(), "buffered queue exceeded soft limit")
}

func TestQueueSoftLimitDisabledByDefault(t *testing.T) {
	c := New("t") // SetQueueSoftLimit never called
	for i := 0; i < 5; i++ {
		require.NoError(t, c.Send(value.Number{Value: float64(i)}, false))
	}
	assert.Equal(t, StatusPending, c.Status())
}
