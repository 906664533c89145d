package ledger

import (
	"github.com/juju/collections/deque"
)

// Ledger maps ready keys to their pending notification counts.
type Ledger[K comparable] struct {
	order  *deque.Deque
	counts map[K]uint64
}

// New returns an empty Ledger.
func New[K comparable]() *Ledger[K] {
	return &Ledger[K]{
		order:  deque.New(),
		counts: make(map[K]uint64),
	}
}

// Record counts one notification for key, appending the key to the tail if
// it was not ready yet.
func (l *Ledger[K]) Record(key K) {
	n := l.counts[key]
	if n == 0 {
		l.order.PushBack(key)
	}
	l.counts[key] = n + 1
}

// TakeReady removes the head key and consumes one of its notifications. If
// the key still has pending notifications it is moved to the tail.
func (l *Ledger[K]) TakeReady() (K, bool) {
	v, ok := l.order.PopFront()
	if !ok {
		var zero K
		return zero, false
	}
	key := v.(K)

	n := l.counts[key] - 1
	if n == 0 {
		delete(l.counts, key)
	} else {
		l.counts[key] = n
		l.order.PushBack(key)
	}
	return key, true
}

// Len returns the number of ready keys.
func (l *Ledger[K]) Len() int {
	return len(l.counts)
}

// Pending returns the pending notification count for key.
func (l *Ledger[K]) Pending(key K) uint64 {
	return l.counts[key]
}
