package mux

import (
	"sync"
	"sync/atomic"

	"github.com/juju/errors"
)

// channel is the bounded data channel of one key.
type channel[K comparable, V any] struct {
	key  K
	data chan envelope[V]

	// refs counts open Senders; the last one to close closes data.
	refs atomic.Int64
}

// registry owns the data channels by key.
type registry[K comparable, V any] struct {
	mu         sync.Mutex
	channels   map[K]*channel[K, V]
	registered int
	sealed     bool
}

func newRegistry[K comparable, V any]() *registry[K, V] {
	return &registry[K, V]{
		channels: make(map[K]*channel[K, V]),
	}
}

// add creates the data channel for key and hands it to attach while the
// registry is locked.
func (r *registry[K, V]) add(key K, capacity int, attach func(*channel[K, V]) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrExhausted
	}
	if _, ok := r.channels[key]; ok {
		return ErrDuplicateKey
	}

	ch := &channel[K, V]{
		key:  key,
		data: make(chan envelope[V], capacity),
	}
	ch.refs.Store(1)
	if err := attach(ch); err != nil {
		return errors.Trace(err)
	}

	r.channels[key] = ch
	r.registered++
	return nil
}

func (r *registry[K, V]) lookup(key K) *channel[K, V] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.channels[key]
}

func (r *registry[K, V]) remove(key K) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.channels, key)
}

func (r *registry[K, V]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.channels)
}

// sealIfDrained seals the registry when at least one key was registered,
// every key has been closed and drained, and idle reports true. A sealed
// registry refuses new keys.
func (r *registry[K, V]) sealIfDrained(idle func() bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return true
	}
	if r.registered == 0 || len(r.channels) != 0 || !idle() {
		return false
	}
	r.sealed = true
	return true
}
