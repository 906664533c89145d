package mux

import (
	"context"
	"time"
)

// Sequence is the consumer side of a multiplexer.
type Sequence[K comparable, V any] interface {
	// Next returns the next item, suspending until one is ready.
	// ErrExhausted signals permanent end of the sequence.
	Next(ctx context.Context) (Item[K, V], error)
	// TryNext returns the next item without suspending, or ErrNotReady.
	TryNext() (Item[K, V], error)
}

// Sink is the producer side for a single key.
type Sink[V any] interface {
	// Send pushes a value, suspending while the data channel is full.
	Send(ctx context.Context, value V) error
	// TrySend pushes a value or fails with ErrFull.
	TrySend(value V) error
	// Close releases the handle.
	Close() error
}

// Metrics receives multiplexer events.
type Metrics interface {
	// KeyRegistered is called after a successful registration.
	KeyRegistered()
	// KeyClosed is called when a closed and drained key leaves the registry.
	KeyClosed()
	// Notified is called with the number of notifications moved into the
	// ledger by one drain step.
	Notified(n int)
	// Emitted is called for every item handed to the consumer.
	Emitted(latency time.Duration)
	// Deferred is called when a served key had no visible value.
	Deferred()
	// ReadyKeys reports the ledger size after a pull.
	ReadyKeys(n int)
}

type noopMetrics struct{}

func (noopMetrics) KeyRegistered()        {}
func (noopMetrics) KeyClosed()            {}
func (noopMetrics) Notified(int)          {}
func (noopMetrics) Emitted(time.Duration) {}
func (noopMetrics) Deferred()             {}
func (noopMetrics) ReadyKeys(int)         {}

// NoopMetrics returns a Metrics that discards everything.
func NoopMetrics() Metrics {
	return noopMetrics{}
}
