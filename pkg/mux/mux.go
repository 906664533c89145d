package mux

import (
	"context"
	"iter"
	"sync"

	"github.com/bobg/multichan"
	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/errors"

	"github.com/ib-77/fairmux/pkg/mux/ledger"
	"github.com/ib-77/fairmux/pkg/mux/notify"
)

// Mux is a fair multiplexer over keyed data channels. Registration and
// sending may happen from any goroutine; pulls must come from a single
// consumer.
type Mux[K comparable, V any] struct {
	id      uuid.UUID
	clock   clock.Clock
	metrics Metrics
	logger  Logger

	registry *registry[K, V]
	queue    *notify.Queue[K]

	// producer is never used to push. It keeps queue open for as long as
	// the Mux lives, so a closed queue while the Mux is open is a bug.
	producer *notify.Producer[K]

	// consumer guards everything below.
	consumer  sync.Mutex
	ledger    *ledger.Ledger[K]
	exhausted bool

	tap *multichan.W

	done      chan struct{}
	closeOnce sync.Once
}

// New returns an empty multiplexer.
func New[K comparable, V any](config Config) (*Mux[K, V], error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}

	queue := notify.New[K]()
	producer, err := queue.NewProducer()
	if err != nil {
		return nil, errors.Trace(err)
	}

	m := &Mux[K, V]{
		id:       uuid.New(),
		clock:    config.Clock,
		metrics:  config.Metrics,
		logger:   config.Logger,
		registry: newRegistry[K, V](),
		queue:    queue,
		producer: producer,
		ledger:   ledger.New[K](),
		tap:      multichan.New(Item[K, V]{}),
		done:     make(chan struct{}),
	}
	m.logger.Debugf("mux %s started", m.id)
	return m, nil
}

// ID identifies the multiplexer in logs.
func (m *Mux[K, V]) ID() uuid.UUID {
	return m.id
}

// MaxCapacity is the largest per-key capacity Register accepts.
const MaxCapacity = 1 << 24

// Register adds key with a data channel holding up to capacity values and
// returns its Sender. Keys may be added while the sequence is being pulled.
func (m *Mux[K, V]) Register(key K, capacity int) (*Sender[K, V], error) {
	if capacity < 1 || capacity > MaxCapacity {
		return nil, errors.Annotatef(ErrInvalidCapacity, "key %v capacity %d", key, capacity)
	}
	select {
	case <-m.done:
		return nil, errors.Annotatef(ErrClosed, "registering key %v", key)
	default:
	}

	var sender *Sender[K, V]
	err := m.registry.add(key, capacity, func(ch *channel[K, V]) error {
		p, err := m.producer.Clone()
		if err != nil {
			return ErrClosed
		}
		sender = newSender(ch, p, m.done, m.clock, m.logger)
		return nil
	})
	if err != nil {
		return nil, errors.Annotatef(err, "registering key %v", key)
	}

	m.metrics.KeyRegistered()
	m.logger.Debugf("mux %s registered key %v with capacity %d", m.id, key, capacity)
	return sender, nil
}

// Keys returns the number of registered keys that are not yet closed and
// drained.
func (m *Mux[K, V]) Keys() int {
	return m.registry.len()
}

// Next returns the next item of the merged sequence, suspending until one
// is ready, the context ends, or the multiplexer is closed. ErrExhausted is
// returned once no producers and no buffered values remain.
func (m *Mux[K, V]) Next(ctx context.Context) (Item[K, V], error) {
	m.consumer.Lock()
	defer m.consumer.Unlock()

	for {
		item, err := m.pull()
		if !errors.Is(err, ErrNotReady) {
			return item, err
		}

		if m.ledger.Len() > 0 {
			// Only keys whose values were not yet visible are left.
			item, ok, err := m.awaitDeferred(ctx)
			if err != nil || ok {
				return item, err
			}
			continue
		}

		select {
		case <-m.queue.Wait():
		case <-ctx.Done():
			return Item[K, V]{}, errors.Trace(ctx.Err())
		case <-m.done:
			return Item[K, V]{}, ErrClosed
		}
	}
}

// TryNext performs a single pull without suspending. It returns
// ErrNotReady when no item is ready.
func (m *Mux[K, V]) TryNext() (Item[K, V], error) {
	m.consumer.Lock()
	defer m.consumer.Unlock()

	return m.pull()
}

// All returns the sequence as an iterator. Iteration stops at exhaustion or
// at the first error; use Next to observe the error.
func (m *Mux[K, V]) All(ctx context.Context) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for {
			item, err := m.Next(ctx)
			if err != nil {
				if !errors.Is(err, ErrExhausted) {
					m.logger.Debugf("mux %s iteration stopped: %v", m.id, err)
				}
				return
			}
			if !yield(item.Unpack()) {
				return
			}
		}
	}
}

// Tap returns a reader that observes every item emitted from now on.
func (m *Mux[K, V]) Tap() *Tap[K, V] {
	return &Tap[K, V]{r: m.tap.Reader()}
}

// Close drops the consumer side. Outstanding and future sends fail with
// ErrClosed and Next returns ErrClosed. Close is idempotent.
func (m *Mux[K, V]) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
		m.producer.Release()
		m.tap.Close()
		m.logger.Debugf("mux %s closed", m.id)
	})
	return nil
}

func (m *Mux[K, V]) closed() bool {
	select {
	case <-m.done:
		return true
	default:
		return false
	}
}

// pull drains notifications into the ledger and serves the oldest ready
// key whose value is visible.
func (m *Mux[K, V]) pull() (Item[K, V], error) {
	if m.closed() {
		return Item[K, V]{}, ErrClosed
	}
	if m.exhausted {
		return Item[K, V]{}, ErrExhausted
	}

	m.drain()

	var deferred []K
	defer func() {
		for _, key := range deferred {
			m.ledger.Record(key)
		}
		m.metrics.ReadyKeys(m.ledger.Len())
	}()

	for m.ledger.Len() > 0 {
		key, _ := m.ledger.TakeReady()
		ch := m.lookup(key)

		select {
		case env, ok := <-ch.data:
			if item, emitted := m.serve(ch, env, ok); emitted {
				return item, nil
			}
		default:
			m.metrics.Deferred()
			m.logger.Warningf("mux %s: value for key %v not yet visible, deferring", m.id, key)
			deferred = append(deferred, key)
		}
	}

	if len(deferred) == 0 && m.exhaust() {
		return Item[K, V]{}, ErrExhausted
	}
	return Item[K, V]{}, ErrNotReady
}

// drain moves every buffered notification into the ledger.
func (m *Mux[K, V]) drain() {
	n := 0
	defer func() {
		if n > 0 {
			m.metrics.Notified(n)
		}
	}()

	for {
		key, state := m.queue.TryRecv()
		switch state {
		case notify.Received:
			m.ledger.Record(key)
			n++
		case notify.Empty:
			return
		case notify.Closed:
			if m.closed() {
				return
			}
			m.logger.Criticalf("mux %s: notification queue closed while open", m.id)
			panic(errors.Errorf("invariant violation: notification queue of mux %s closed while open", m.id))
		}
	}
}

// awaitDeferred suspends on the oldest deferred key only.
func (m *Mux[K, V]) awaitDeferred(ctx context.Context) (Item[K, V], bool, error) {
	key, _ := m.ledger.TakeReady()
	ch := m.lookup(key)

	select {
	case env, ok := <-ch.data:
		item, emitted := m.serve(ch, env, ok)
		return item, emitted, nil
	case <-m.queue.Wait():
		m.ledger.Record(key)
		return Item[K, V]{}, false, nil
	case <-ctx.Done():
		m.ledger.Record(key)
		return Item[K, V]{}, false, errors.Trace(ctx.Err())
	case <-m.done:
		return Item[K, V]{}, false, ErrClosed
	}
}

// serve turns one receive from ch into an item, or retires ch when the
// receive observed closure.
func (m *Mux[K, V]) serve(ch *channel[K, V], env envelope[V], ok bool) (Item[K, V], bool) {
	if !ok {
		m.registry.remove(ch.key)
		m.metrics.KeyClosed()
		m.logger.Debugf("mux %s: key %v closed and drained", m.id, ch.key)
		return Item[K, V]{}, false
	}

	item := newItem(ch.key, env)
	m.metrics.Emitted(m.clock.Now().Sub(env.sentAt))
	m.tap.Write(item)
	m.logger.Tracef("mux %s: emit key %v", m.id, ch.key)
	return item, true
}

func (m *Mux[K, V]) lookup(key K) *channel[K, V] {
	ch := m.registry.lookup(key)
	if ch == nil {
		m.logger.Criticalf("mux %s: notification for unknown key %v", m.id, key)
		panic(errors.Errorf("invariant violation: notification for unknown key %v", key))
	}
	return ch
}

// exhaust reports whether the sequence has ended, recording it if so.
func (m *Mux[K, V]) exhaust() bool {
	idle := func() bool {
		return m.queue.Len() == 0 && m.queue.Producers() == 1
	}
	if !m.registry.sealIfDrained(idle) {
		return false
	}
	m.exhausted = true
	m.tap.Close()
	m.logger.Debugf("mux %s exhausted", m.id)
	return true
}
