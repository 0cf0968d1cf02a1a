// Package natsbus carries requests and events over NATS.
//
// Calls travel as request/reply on "<prefix>.rpc", served by a queue group so
// several callee processes can share the load. Events are plain publishes on
// "<prefix>.event.<name>"; every live subscriber receives each one.
package natsbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/hupe1980/ipcmesh/core"
	"github.com/hupe1980/ipcmesh/internal/pubsub"
	"github.com/hupe1980/ipcmesh/logging"
)

// ErrInvalidTopic is returned for event names NATS cannot carry as a subject
// token.
var ErrInvalidTopic = errors.New("natsbus: invalid topic")

// Options configures a Bus.
type Options struct {
	// Prefix is the subject namespace. Defaults to "ipcmesh".
	Prefix string
	// Queue is the queue group of Serve. Defaults to Prefix.
	Queue string
	// Buffer is the per-subscription queue length. Defaults to 64.
	Buffer int
	Logger logging.Logger
}

// Bus implements core.RoundTripper and core.Broker on a NATS connection.
type Bus struct {
	conn   *nats.Conn
	prefix string
	queue  string
	buffer int
	logger logging.Logger
	owned  bool

	mu   sync.Mutex
	subs []*nats.Subscription
}

// New wraps an established connection. The caller keeps ownership of conn.
func New(conn *nats.Conn, optFns ...func(o *Options)) *Bus {
	opts := Options{Prefix: "ipcmesh", Buffer: 64, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Queue == "" {
		opts.Queue = opts.Prefix
	}
	return &Bus{
		conn:   conn,
		prefix: opts.Prefix,
		queue:  opts.Queue,
		buffer: opts.Buffer,
		logger: logging.OrNoOp(opts.Logger),
	}
}

// Connect dials url and returns a Bus owning the connection.
func Connect(url string, optFns ...func(o *Options)) (*Bus, error) {
	conn, err := nats.Connect(url, nats.Name("ipcmesh"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	b := New(conn, optFns...)
	b.owned = true
	return b, nil
}

func (b *Bus) rpcSubject() string { return b.prefix + ".rpc" }

func (b *Bus) eventSubject(topic string) (string, error) {
	if topic == "" || strings.ContainsAny(topic, " \t\r\n*>") || strings.HasPrefix(topic, ".") || strings.HasSuffix(topic, ".") || strings.Contains(topic, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}
	return b.prefix + ".event." + topic, nil
}

// RoundTrip implements core.RoundTripper.
func (b *Bus) RoundTrip(ctx context.Context, req core.Request) (core.Reply, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return core.Reply{}, err
	}
	msg, err := b.conn.RequestWithContext(ctx, b.rpcSubject(), data)
	if err != nil {
		return core.Reply{}, fmt.Errorf("natsbus: request %s: %w", req.Method, err)
	}
	var reply core.Reply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return core.Reply{}, fmt.Errorf("natsbus: undecodable reply for %s: %w", req.Method, err)
	}
	return reply, nil
}

// Serve answers calls with target until ctx ends or Close is called.
func (b *Bus) Serve(ctx context.Context, target core.RoundTripper) error {
	sub, err := b.conn.QueueSubscribe(b.rpcSubject(), b.queue, func(msg *nats.Msg) {
		var req core.Request
		reply := core.Reply{Status: core.StatusError}
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			reply.Error = "natsbus: undecodable request: " + err.Error()
		} else if r, err := target.RoundTrip(ctx, req); err != nil {
			reply.Error = err.Error()
		} else {
			reply = r
		}
		reply.ID = req.ID

		data, err := json.Marshal(reply)
		if err != nil {
			b.logger.Error("natsbus.reply.encode", "method", req.Method, "error", err)
			return
		}
		if err := msg.Respond(data); err != nil {
			b.logger.Warn("natsbus.reply.failed", "method", req.Method, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to serve %s: %w", b.rpcSubject(), err)
	}
	if err := b.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return err
	}
	b.track(sub)
	b.logger.Info("natsbus.serve", "subject", b.rpcSubject(), "queue", b.queue)

	go func() {
		<-ctx.Done()
		_ = sub.Unsubscribe()
	}()
	return nil
}

// Publish implements core.Broker.
func (b *Bus) Publish(ctx context.Context, topic string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	subject, err := b.eventSubject(topic)
	if err != nil {
		return err
	}
	if err := b.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to topic %q: %w", topic, err)
	}
	return nil
}

// Subscribe implements core.Broker. The subscription is registered with the
// server before Subscribe returns.
func (b *Bus) Subscribe(ctx context.Context, topic string) (core.RawSubscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	subject, err := b.eventSubject(topic)
	if err != nil {
		return nil, err
	}

	var sub *nats.Subscription
	q := pubsub.NewQueue(b.buffer, func() {
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			b.logger.Warn("natsbus.unsubscribe.failed", "topic", topic, "error", err)
		}
	})
	sub, err = b.conn.Subscribe(subject, func(msg *nats.Msg) {
		if err := q.Deliver(context.Background(), msg.Data); err != nil {
			b.logger.Warn("natsbus.event.dropped", "topic", topic, "error", err)
		}
	})
	if err != nil {
		q.Shutdown()
		return nil, fmt.Errorf("failed to subscribe to topic %q: %w", topic, err)
	}
	if err := b.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		q.Shutdown()
		return nil, err
	}
	return q, nil
}

func (b *Bus) track(sub *nats.Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, sub)
}

// Close stops serving and closes the connection when the Bus owns it.
func (b *Bus) Close() error {
	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()
	for _, sub := range subs {
		_ = sub.Unsubscribe()
	}
	if b.owned {
		b.conn.Close()
	}
	return nil
}
