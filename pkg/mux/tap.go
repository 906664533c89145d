package mux

import (
	"context"

	"github.com/bobg/multichan"
)

// Tap observes the items a multiplexer emits. Any number of taps may exist;
// each sees every item emitted after it was created. A tap ends when the
// multiplexer is closed or exhausted.
type Tap[K comparable, V any] struct {
	r *multichan.R
}

// Read returns the next observed item, suspending until one is available.
// It returns false once the tap has ended or ctx is done.
func (t *Tap[K, V]) Read(ctx context.Context) (Item[K, V], bool) {
	v, ok := t.r.Read(ctx)
	if !ok {
		return Item[K, V]{}, false
	}
	return v.(Item[K, V]), true
}

// TryRead returns the next observed item if one is available.
func (t *Tap[K, V]) TryRead() (Item[K, V], bool) {
	v, ok := t.r.NBRead()
	if !ok {
		return Item[K, V]{}, false
	}
	return v.(Item[K, V]), true
}

// Dispose releases the tap.
func (t *Tap[K, V]) Dispose() {
	t.r.Dispose()
}
