// Package memory provides in-process transports: a loopback RoundTripper that
// hands requests straight to a callee (typically a *dispatch.Router) and a
// fan-out Hub implementing core.Broker.
//
// Both copy every byte slice crossing the boundary, so neither side can
// observe later mutations by the other.
package memory

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/hupe1980/ipcmesh/core"
	"github.com/hupe1980/ipcmesh/internal/pubsub"
	"github.com/hupe1980/ipcmesh/logging"
)

// ErrClosed is returned by a closed Hub.
var ErrClosed = errors.New("memory: hub closed")

// Loopback delivers requests to an in-process RoundTripper.
type Loopback struct {
	target core.RoundTripper
}

// NewLoopback returns a Loopback delivering to target.
func NewLoopback(target core.RoundTripper) *Loopback {
	return &Loopback{target: target}
}

// RoundTrip implements core.RoundTripper.
func (l *Loopback) RoundTrip(ctx context.Context, req core.Request) (core.Reply, error) {
	if err := ctx.Err(); err != nil {
		return core.Reply{}, err
	}
	req.Args = bytes.Clone(req.Args)
	reply, err := l.target.RoundTrip(ctx, req)
	if err != nil {
		return core.Reply{}, err
	}
	reply.Payload = bytes.Clone(reply.Payload)
	return reply, nil
}

// HubOptions configures a Hub.
type HubOptions struct {
	// Buffer is the per-subscriber queue length. Defaults to 64.
	Buffer int
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// Hub is a broadcast Broker. Every subscription owns a buffered queue;
// Publish delivers a copy of the message to each queue and blocks while a
// queue is full, until the subscriber drains it, unsubscribes or ctx ends.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[string]*subscription
	buffer int
	logger logging.Logger
	closed bool
}

// NewHub constructs an empty Hub.
func NewHub(optFns ...func(o *HubOptions)) *Hub {
	opts := HubOptions{Buffer: 64, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Buffer < 0 {
		opts.Buffer = 0
	}
	return &Hub{
		topics: map[string]map[string]*subscription{},
		buffer: opts.Buffer,
		logger: logging.OrNoOp(opts.Logger),
	}
}

// Subscribe implements core.Broker.
func (h *Hub) Subscribe(ctx context.Context, topic string) (core.RawSubscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}

	sub := &subscription{id: uuid.NewString(), topic: topic}
	sub.Queue = pubsub.NewQueue(h.buffer, func() { h.remove(sub) })
	subs, ok := h.topics[topic]
	if !ok {
		subs = map[string]*subscription{}
		h.topics[topic] = subs
	}
	subs[sub.id] = sub
	h.logger.Debug("memory.hub.subscribe", "topic", topic, "subscription", sub.id)
	return sub, nil
}

// Publish implements core.Broker. Messages to topics without subscribers are
// dropped.
func (h *Hub) Publish(ctx context.Context, topic string, data []byte) error {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return ErrClosed
	}
	subs := make([]*subscription, 0, len(h.topics[topic]))
	for _, s := range h.topics[topic] {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	for _, s := range subs {
		if err := s.Deliver(ctx, bytes.Clone(data)); err != nil {
			return err
		}
	}
	h.logger.Debug("memory.hub.publish", "topic", topic, "subscribers", len(subs), "bytes", len(data))
	return nil
}

// Subscribers returns the number of live subscriptions to topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Topics returns the topics with at least one live subscription.
func (h *Hub) Topics() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.topics))
	for t := range h.topics {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Close ends every subscription. Further calls fail with ErrClosed.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	var all []*subscription
	for _, subs := range h.topics {
		for _, s := range subs {
			all = append(all, s)
		}
	}
	h.topics = map[string]map[string]*subscription{}
	h.mu.Unlock()

	for _, s := range all {
		s.Shutdown()
	}
	return nil
}

func (h *Hub) remove(s *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.topics[s.topic]
	if !ok {
		return
	}
	delete(subs, s.id)
	if len(subs) == 0 {
		delete(h.topics, s.topic)
	}
	h.logger.Debug("memory.hub.unsubscribe", "topic", s.topic, "subscription", s.id)
}

type subscription struct {
	*pubsub.Queue
	id    string
	topic string
}
