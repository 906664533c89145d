package mux

import (
	"context"

	"github.com/juju/errors"
)

const (
	// ErrDuplicateKey is returned by Register for a key that is already
	// registered. It is a programming error.
	ErrDuplicateKey = errors.ConstError("key already registered")

	// ErrInvalidCapacity is returned by Register for a capacity below one or
	// above MaxCapacity.
	ErrInvalidCapacity = errors.ConstError("invalid capacity")

	// ErrClosed is returned when the sender or the consumer side is closed.
	ErrClosed = errors.ConstError("channel closed")

	// ErrFull is returned by TrySend when the data channel is at capacity.
	ErrFull = errors.ConstError("channel full")

	// ErrNotReady is returned by TryNext when no item is ready.
	ErrNotReady = errors.ConstError("no item ready")

	// ErrExhausted is returned by Next once no producers and no buffered
	// values remain.
	ErrExhausted = errors.ConstError("sequence exhausted")
)

// IsCancellationError reports whether err comes from a context ending.
func IsCancellationError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
