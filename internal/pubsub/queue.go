// Package pubsub holds the subscriber queue shared by the broker transports.
package pubsub

import (
	"context"
	"sync"
)

// Queue is one subscriber's buffered delivery channel. It implements
// core.RawSubscription. Deliveries block while the buffer is full; Shutdown
// releases blocked deliveries and closes the channel exactly once.
type Queue struct {
	ch      chan []byte
	done    chan struct{}
	release func()

	mu     sync.Mutex // serializes deliveries with shutdown
	once   sync.Once
	closed bool
}

// NewQueue returns a Queue with the given buffer. release, if set, runs once
// when the subscriber calls Close.
func NewQueue(buffer int, release func()) *Queue {
	if buffer < 0 {
		buffer = 0
	}
	return &Queue{
		ch:      make(chan []byte, buffer),
		done:    make(chan struct{}),
		release: release,
	}
}

// C returns the delivery channel. It is closed on shutdown.
func (q *Queue) C() <-chan []byte { return q.ch }

// Done is closed on shutdown.
func (q *Queue) Done() <-chan struct{} { return q.done }

// Deliver hands data to the subscriber. Deliveries to a closed queue are
// dropped silently.
func (q *Queue) Deliver(ctx context.Context, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	select {
	case q.ch <- data:
		return nil
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the subscription. It is idempotent.
func (q *Queue) Close() error {
	closed := false
	q.once.Do(func() {
		q.shut()
		closed = true
	})
	if closed && q.release != nil {
		q.release()
	}
	return nil
}

// Shutdown ends the subscription from the broker side without running
// release.
func (q *Queue) Shutdown() {
	q.once.Do(q.shut)
}

func (q *Queue) shut() {
	close(q.done)
	q.mu.Lock()
	q.closed = true
	close(q.ch)
	q.mu.Unlock()
}
