package core

import (
	"context"
	"errors"
	"iter"
	"sync"
	"sync/atomic"
)

// Stream is the lazy, asynchronous, unbounded sequence of decoded payloads of
// one event subscription. It ends when the consumer calls Close or the
// underlying subscription channel closes, and it cannot be restarted.
// Next and Close may be called from different goroutines.
type Stream[T any] struct {
	name   string
	sub    RawSubscription
	codec  Codec
	done   chan struct{}
	once   sync.Once
	err    error
	ranged atomic.Bool
}

func newStream[T any](name string, sub RawSubscription, codec Codec) *Stream[T] {
	return &Stream[T]{name: name, sub: sub, codec: codec, done: make(chan struct{})}
}

// Name returns the event identifier the stream listens to.
func (s *Stream[T]) Name() string { return s.name }

// Next blocks until the next payload arrives, the context is done or the
// stream ends (ErrStreamClosed). A payload that cannot be decoded is reported
// as *HostError and consumption may continue.
func (s *Stream[T]) Next(ctx context.Context) (T, error) {
	var zero T
	select {
	case <-s.done:
		return zero, ErrStreamClosed
	default:
	}

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-s.done:
		return zero, ErrStreamClosed
	case data, ok := <-s.sub.C():
		if !ok {
			return zero, ErrStreamClosed
		}
		var v T
		if err := s.codec.Unmarshal(data, &v); err != nil {
			return zero, &HostError{Op: "decode", Name: s.name, Message: "undecodable payload", Err: err}
		}
		return v, nil
	}
}

// All returns a single-use iterator over the stream. Decode errors are
// yielded alongside a zero value; the iteration stops when the stream ends,
// the context is done (yielding ctx.Err()) or the loop body breaks. Leaving
// the loop closes the stream and releases the subscription.
func (s *Stream[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		if !s.ranged.CompareAndSwap(false, true) {
			var zero T
			yield(zero, ErrStreamConsumed)
			return
		}
		defer s.Close()

		for {
			v, err := s.Next(ctx)
			switch {
			case errors.Is(err, ErrStreamClosed):
				return
			case err != nil && ctx.Err() != nil:
				yield(v, err)
				return
			}
			if !yield(v, err) {
				return
			}
		}
	}
}

// Close cancels the subscription. It is idempotent and returns the error of
// the first release.
func (s *Stream[T]) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.err = s.sub.Close()
	})
	return s.err
}
