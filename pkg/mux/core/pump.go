package core

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"gopkg.in/tomb.v2"

	"github.com/ib-77/fairmux/pkg/mux"
)

var logger = loggo.GetLogger("fairmux.core")

const defaultPumpBuffer = 0

type PumpHandlers[K comparable, V any] struct {
	OnSuccess         func(ctx context.Context, item mux.Item[K, V])
	OnCancelProcessed func(ctx context.Context, item mux.Item[K, V])
	OnCancelRemaining func(ctx context.Context, rest []mux.Item[K, V])
}

// Pump is the consumer goroutine of a sequence. It pulls items and delivers
// them on Out until the sequence ends or the pump is killed. Nothing else
// may pull from the sequence while the pump runs.
type Pump[K comparable, V any] struct {
	tomb     *tomb.Tomb
	ctx      context.Context
	seq      mux.Sequence[K, V]
	out      chan mux.Item[K, V]
	handlers PumpHandlers[K, V]
	remain   bool
}

// NewPump starts a pump over seq. Cancelling ctx stops the pump with the
// context error.
func NewPump[K comparable, V any](ctx context.Context, seq mux.Sequence[K, V], handlers PumpHandlers[K, V]) *Pump[K, V] {
	t, tctx := tomb.WithContext(ctx)
	p := &Pump[K, V]{
		tomb:     t,
		ctx:      tctx,
		seq:      seq,
		out:      make(chan mux.Item[K, V], GetPumpBuffer(ctx, defaultPumpBuffer)),
		handlers: handlers,
		remain:   IsProcessRemainingEnabled(ctx, false),
	}
	p.tomb.Go(p.run)
	return p
}

// Out delivers the pulled items. It is closed when the pump stops.
func (p *Pump[K, V]) Out() <-chan mux.Item[K, V] {
	return p.out
}

// Kill asks the pump to stop.
func (p *Pump[K, V]) Kill() {
	p.tomb.Kill(nil)
}

// Wait waits for the pump to stop and returns its error. Exhaustion and a
// closed sequence are not errors.
func (p *Pump[K, V]) Wait() error {
	return p.tomb.Wait()
}

func (p *Pump[K, V]) run() error {
	defer close(p.out)

	for {
		item, err := p.seq.Next(p.ctx)
		switch {
		case errors.Is(err, mux.ErrExhausted), errors.Is(err, mux.ErrClosed):
			logger.Debugf("pump stopped: %v", err)
			return nil
		case err != nil:
			if p.dying() {
				p.cancelRemaining()
				return tomb.ErrDying
			}
			return errors.Trace(err)
		}

		select {
		case p.out <- item:
			if p.handlers.OnSuccess != nil {
				p.handlers.OnSuccess(p.ctx, item)
			}
		case <-p.tomb.Dying():
			if p.handlers.OnCancelProcessed != nil {
				p.handlers.OnCancelProcessed(p.ctx, item)
			}
			p.cancelRemaining()
			return tomb.ErrDying
		}
	}
}

func (p *Pump[K, V]) dying() bool {
	select {
	case <-p.tomb.Dying():
		return true
	default:
		return false
	}
}

// cancelRemaining hands over the items that are ready without suspending.
func (p *Pump[K, V]) cancelRemaining() {
	if !p.remain || p.handlers.OnCancelRemaining == nil {
		return
	}

	var rest []mux.Item[K, V]
	for {
		item, err := p.seq.TryNext()
		if err != nil {
			break
		}
		rest = append(rest, item)
	}
	p.handlers.OnCancelRemaining(p.ctx, rest)
}
