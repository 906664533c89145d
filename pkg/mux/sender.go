package mux

import (
	"context"
	"sync"

	"github.com/juju/clock"
	"github.com/juju/errors"

	"github.com/ib-77/fairmux/pkg/mux/notify"
)

// Sender is the write capability for one key. It is safe for concurrent
// use.
type Sender[K comparable, V any] struct {
	ch     *channel[K, V]
	notify *notify.Producer[K]
	done   <-chan struct{}
	clock  clock.Clock
	logger Logger

	stop     chan struct{}
	stopOnce sync.Once

	// mu is held for reading by in-flight sends and for writing by Close,
	// so a handle never releases its notification producer while one of
	// its own sends is between the data push and the notification push.
	mu     sync.RWMutex
	closed bool
}

func newSender[K comparable, V any](ch *channel[K, V], p *notify.Producer[K], done <-chan struct{},
	clk clock.Clock, log Logger) *Sender[K, V] {
	return &Sender[K, V]{
		ch:     ch,
		notify: p,
		done:   done,
		clock:  clk,
		logger: log,
		stop:   make(chan struct{}),
	}
}

// Key returns the key this sender writes to.
func (s *Sender[K, V]) Key() K {
	return s.ch.key
}

// Send pushes value into the key's data channel, suspending while it is
// full, then publishes one readiness notification for the key.
func (s *Sender[K, V]) Send(ctx context.Context, value V) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.usable(); err != nil {
		return err
	}

	env := envelope[V]{value: value, sentAt: s.clock.Now().UTC()}
	select {
	case s.ch.data <- env:
	case <-ctx.Done():
		return errors.Trace(ctx.Err())
	case <-s.stop:
		return ErrClosed
	case <-s.done:
		return ErrClosed
	}

	s.publish()
	return nil
}

// TrySend is Send without suspension; it fails with ErrFull when the data
// channel is at capacity.
func (s *Sender[K, V]) TrySend(value V) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.usable(); err != nil {
		return err
	}

	env := envelope[V]{value: value, sentAt: s.clock.Now().UTC()}
	select {
	case s.ch.data <- env:
	default:
		return errors.Annotatef(ErrFull, "key %v", s.ch.key)
	}

	s.publish()
	return nil
}

// Clone returns another open handle for the same key. The key's data
// channel stays open until every handle is closed.
func (s *Sender[K, V]) Clone() (*Sender[K, V], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.usable(); err != nil {
		return nil, err
	}

	p, err := s.notify.Clone()
	if err != nil {
		return nil, errors.Annotatef(ErrClosed, "cloning sender for key %v", s.ch.key)
	}
	s.ch.refs.Add(1)
	return newSender(s.ch, p, s.done, s.clock, s.logger), nil
}

// Close releases the handle and fails its in-flight sends with ErrClosed.
// Closing the last handle of a key closes the key's data channel; values
// already sent are still delivered. Close is idempotent.
func (s *Sender[K, V]) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.ch.refs.Add(-1) == 0 {
		// Every other handle has closed and waited for its own sends, so
		// nothing can write to data any more. The closing notification is
		// queued after all data notifications of this key.
		close(s.ch.data)
		s.publish()
		s.logger.Debugf("key %v closed", s.ch.key)
	}
	s.notify.Release()
	return nil
}

func (s *Sender[K, V]) usable() error {
	if s.closed {
		return errors.Annotatef(ErrClosed, "sender for key %v", s.ch.key)
	}
	select {
	case <-s.stop:
		return errors.Annotatef(ErrClosed, "sender for key %v", s.ch.key)
	case <-s.done:
		return errors.Annotatef(ErrClosed, "consumer gone, key %v", s.ch.key)
	default:
		return nil
	}
}

func (s *Sender[K, V]) publish() {
	if err := s.notify.Push(s.ch.key); err != nil {
		s.logger.Criticalf("notification for key %v lost: %v", s.ch.key, err)
		panic(errors.Annotatef(err, "invariant violation: notification producer of open sender for key %v", s.ch.key))
	}
}
