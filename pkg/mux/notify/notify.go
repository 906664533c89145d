package notify

import (
	"sync"

	"github.com/juju/collections/deque"
	"github.com/juju/errors"
)

const (
	// ErrReleased is returned when a released producer is used.
	ErrReleased = errors.ConstError("notification producer released")

	// ErrQueueClosed is returned when a producer is requested from a queue
	// whose producers have all been released.
	ErrQueueClosed = errors.ConstError("notification queue closed")
)

// State is the outcome of a non-suspending receive.
type State int

const (
	// Received means a key was dequeued.
	Received State = iota
	// Empty means nothing is buffered but producers remain.
	Empty
	// Closed means nothing is buffered and no producers remain.
	Closed
)

func (s State) String() string {
	switch s {
	case Received:
		return "received"
	case Empty:
		return "empty"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Queue is an unbounded multi-producer, single-consumer queue of keys.
type Queue[K comparable] struct {
	mu        sync.Mutex
	items     *deque.Deque
	producers int
	closed    bool

	wake chan struct{}
}

// New returns an open Queue with no producers.
func New[K comparable]() *Queue[K] {
	return &Queue[K]{
		items: deque.New(),
		wake:  make(chan struct{}, 1),
	}
}

// NewProducer returns a fresh producer handle.
func (q *Queue[K]) NewProducer() (*Producer[K], error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, ErrQueueClosed
	}
	q.producers++
	return &Producer[K]{q: q}, nil
}

// TryRecv dequeues the oldest key without suspending.
func (q *Queue[K]) TryRecv() (K, State) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if v, ok := q.items.PopFront(); ok {
		return v.(K), Received
	}

	var zero K
	if q.closed {
		return zero, Closed
	}
	return zero, Empty
}

// Wait returns a channel that receives a value after a push or a producer
// release. A receive on it may be spurious; callers retry TryRecv.
func (q *Queue[K]) Wait() <-chan struct{} {
	return q.wake
}

// Len returns the number of buffered keys.
func (q *Queue[K]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Producers returns the number of live producer handles.
func (q *Queue[K]) Producers() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.producers
}

func (q *Queue[K]) push(key K) {
	q.mu.Lock()
	q.items.PushBack(key)
	q.mu.Unlock()

	q.signal()
}

func (q *Queue[K]) clone() {
	q.mu.Lock()
	q.producers++
	q.mu.Unlock()
}

func (q *Queue[K]) release() {
	q.mu.Lock()
	q.producers--
	if q.producers == 0 {
		q.closed = true
	}
	q.mu.Unlock()

	q.signal()
}

func (q *Queue[K]) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Producer is a counted handle on the push side of a Queue.
type Producer[K comparable] struct {
	q *Queue[K]

	mu       sync.Mutex
	released bool
}

// Push enqueues key. It never suspends.
func (p *Producer[K]) Push(key K) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.released {
		return ErrReleased
	}
	p.q.push(key)
	return nil
}

// Clone returns another producer handle on the same queue.
func (p *Producer[K]) Clone() (*Producer[K], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.released {
		return nil, ErrReleased
	}
	p.q.clone()
	return &Producer[K]{q: p.q}, nil
}

// Release drops the handle. It is idempotent.
func (p *Producer[K]) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.released {
		return
	}
	p.released = true
	p.q.release()
}
