package mux

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend_Backpressure(t *testing.T) {
	m, _, _ := newTestMux[string, int](t)
	ctx := context.Background()

	s := mustRegister(t, m, "k", 1)
	require.NoError(t, s.Send(ctx, 1))
	assert.ErrorIs(t, s.TrySend(2), ErrFull)

	sent := make(chan error, 1)
	go func() {
		sent <- s.Send(ctx, 2)
	}()

	select {
	case err := <-sent:
		t.Fatalf("send on a full channel returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	assert.Equal(t, pair{"k", 1}, nextPair(t, m))

	select {
	case err := <-sent:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("send was not resumed after a read")
	}
	assert.Equal(t, pair{"k", 2}, nextPair(t, m))
}

func TestSend_ContextCancelledWhileFull(t *testing.T) {
	m, _, _ := newTestMux[string, int](t)

	s := mustRegister(t, m, "k", 1)
	require.NoError(t, s.TrySend(1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.Send(ctx, 2)
	assert.True(t, IsCancellationError(err), "got %v", err)

	// The failed send left no notification behind.
	assert.Equal(t, pair{"k", 1}, nextPair(t, m))
	_, err = m.TryNext()
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestSend_AfterClose(t *testing.T) {
	m, _, _ := newTestMux[string, int](t)
	ctx := context.Background()

	s := mustRegister(t, m, "k", 2)
	require.NoError(t, s.Send(ctx, 1))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Send(ctx, 2), ErrClosed)
	assert.ErrorIs(t, s.TrySend(2), ErrClosed)
	_, err := s.Clone()
	assert.ErrorIs(t, err, ErrClosed)

	// Values sent before the close are still delivered.
	assert.Equal(t, pair{"k", 1}, nextPair(t, m))
}

func TestClose_InterruptsOwnBlockedSend(t *testing.T) {
	m, _, _ := newTestMux[string, int](t)
	ctx := context.Background()

	s := mustRegister(t, m, "k", 1)
	require.NoError(t, s.Send(ctx, 1))

	blocked := make(chan error, 1)
	go func() {
		blocked <- s.Send(ctx, 2)
	}()
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, s.Close())
	select {
	case err := <-blocked:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("blocked send was not interrupted")
	}

	assert.Equal(t, pair{"k", 1}, nextPair(t, m))
	_, err := m.TryNext()
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestClone_KeyClosesWithLastHandle(t *testing.T) {
	m, metrics, _ := newTestMux[string, int](t)
	ctx := context.Background()

	first := mustRegister(t, m, "k", 4)
	second, err := first.Clone()
	require.NoError(t, err)
	assert.Equal(t, "k", second.Key())

	other := mustRegister(t, m, "other", 1)
	defer other.Close()

	require.NoError(t, first.Send(ctx, 1))
	require.NoError(t, first.Close())
	require.NoError(t, second.Send(ctx, 2))

	assert.Equal(t, pair{"k", 1}, nextPair(t, m))
	assert.Equal(t, pair{"k", 2}, nextPair(t, m))
	_, err = m.TryNext()
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Equal(t, 2, m.Keys())

	require.NoError(t, second.Close())
	_, err = m.TryNext()
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Equal(t, 1, m.Keys())
	assert.EqualValues(t, 1, metrics.closed.Load())

	// Other keys are untouched by the closure.
	require.NoError(t, other.Send(ctx, 9))
	assert.Equal(t, pair{"other", 9}, nextPair(t, m))
}

func TestSender_ImplementsSink(t *testing.T) {
	m, _, _ := newTestMux[string, int](t)

	var sink Sink[int] = mustRegister(t, m, "k", 1)
	require.NoError(t, sink.TrySend(1))
	require.NoError(t, sink.Close())
}
