package dispatch

import (
	"context"
	"sync/atomic"
)

// limiter bounds the number of handlers running at once. A zero max admits
// every call.
type limiter struct {
	slots  chan struct{}
	active atomic.Int64
}

func newLimiter(max int) *limiter {
	l := &limiter{}
	if max > 0 {
		l.slots = make(chan struct{}, max)
	}
	return l
}

// acquire waits for a free slot or the end of ctx.
func (l *limiter) acquire(ctx context.Context) error {
	if l.slots != nil {
		select {
		case l.slots <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	l.active.Add(1)
	return nil
}

func (l *limiter) release() {
	l.active.Add(-1)
	if l.slots != nil {
		<-l.slots
	}
}

// Active returns the number of calls holding a slot.
func (l *limiter) Active() int { return int(l.active.Load()) }
