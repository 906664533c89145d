package core

import (
	"context"
	"sync"

	"github.com/juju/errors"

	"github.com/ib-77/fairmux/pkg/mux"
)

type FeedHandlers[V any] struct {
	OnStartFail func(ctx context.Context, input []V)
	OnSuccess   func(ctx context.Context, input V)
	OnBreak     func(ctx context.Context, rest []V, err error)
}

// FeedFromArgs sends values to sink in order and stops at the first
// failure, handing the unsent rest to OnBreak.
func FeedFromArgs[V any](ctx context.Context, sink mux.Sink[V], handlers FeedHandlers[V], values ...V) error {
	if err := ctx.Err(); err != nil {
		if handlers.OnStartFail != nil {
			handlers.OnStartFail(ctx, values)
		}
		return errors.Trace(err)
	}

	for i, v := range values {
		if err := sink.Send(ctx, v); err != nil {
			if handlers.OnBreak != nil {
				handlers.OnBreak(ctx, values[i:], err)
			}
			return errors.Trace(err)
		}
		if handlers.OnSuccess != nil {
			handlers.OnSuccess(ctx, v)
		}
	}
	return nil
}

func FeedMany[V any](ctx context.Context, sink mux.Sink[V], values []V) error {
	return FeedFromArgs(ctx, sink, FeedHandlers[V]{}, values...)
}

// FeedChan forwards every value of in to sink and closes sink once in is
// closed. On failure the sink is closed as well.
func FeedChan[V any](ctx context.Context, sink mux.Sink[V], in <-chan V) error {
	defer func() { _ = sink.Close() }()

	for {
		select {
		case v, ok := <-in:
			if !ok {
				return nil
			}
			if err := sink.Send(ctx, v); err != nil {
				return errors.Trace(err)
			}
		case <-ctx.Done():
			return errors.Trace(ctx.Err())
		}
	}
}

func ToChanFromArgs[T any](ctx context.Context, values ...T) <-chan T {
	in := make(chan T)

	go func() {
		defer close(in)

		for _, v := range values {
			select {
			case in <- v:
			case <-ctx.Done():
				return
			}
		}
	}()

	return in
}

func ToChanMany[T any](ctx context.Context, values []T) <-chan T {
	return ToChanFromArgs[T](ctx, values...)
}

// Collect pulls up to n items from seq. It stops early without error when
// the sequence is exhausted; any other error is returned with the items
// pulled so far.
func Collect[K comparable, V any](ctx context.Context, seq mux.Sequence[K, V], n int) ([]mux.Item[K, V], error) {
	res := make([]mux.Item[K, V], 0, n)
	for len(res) < n {
		item, err := seq.Next(ctx)
		if errors.Is(err, mux.ErrExhausted) {
			return res, nil
		}
		if err != nil {
			return res, errors.Trace(err)
		}
		res = append(res, item)
	}
	return res, nil
}

func FromChanMany[T any](ctx context.Context, out <-chan T) []T {
	res := make([]T, 0)
	wg := &sync.WaitGroup{}
	wg.Add(1)

	go func() {
		defer wg.Done()
		for {
			select {
			case v, ok := <-out:
				if !ok {
					return
				}
				res = append(res, v)
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	return res
}
