// Package redisbus carries requests and events over Redis.
//
// Events use Redis pub/sub on "<prefix>:event:<name>". Calls are queued on the
// list "<prefix>:rpc" and answered on a per-call pub/sub channel the caller
// subscribes to before enqueuing, so a reply can never be missed.
package redisbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hupe1980/ipcmesh/core"
	"github.com/hupe1980/ipcmesh/internal/pubsub"
	"github.com/hupe1980/ipcmesh/logging"
)

// Options configures a Bus.
type Options struct {
	// Prefix is the key and channel namespace. Defaults to "ipcmesh".
	Prefix string
	// Buffer is the per-subscription queue length. Defaults to 64.
	Buffer int
	// PollTimeout bounds one blocking pop of Serve, and so how long Serve
	// takes to notice a cancelled context. Defaults to one second.
	PollTimeout time.Duration
	Logger      logging.Logger
}

// Bus implements core.RoundTripper and core.Broker on a Redis client.
type Bus struct {
	client redis.UniversalClient
	prefix string
	buffer int
	poll   time.Duration
	logger logging.Logger
}

type envelope struct {
	ReplyTo string       `json:"reply_to"`
	Request core.Request `json:"request"`
}

// New returns a Bus using client. The caller keeps ownership of client.
func New(client redis.UniversalClient, optFns ...func(o *Options)) *Bus {
	opts := Options{Prefix: "ipcmesh", Buffer: 64, PollTimeout: time.Second, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Bus{
		client: client,
		prefix: opts.Prefix,
		buffer: opts.Buffer,
		poll:   opts.PollTimeout,
		logger: logging.OrNoOp(opts.Logger),
	}
}

func (b *Bus) queueKey() string { return b.prefix + ":rpc" }

func (b *Bus) eventChannel(topic string) string { return b.prefix + ":event:" + topic }

// RoundTrip implements core.RoundTripper.
func (b *Bus) RoundTrip(ctx context.Context, req core.Request) (core.Reply, error) {
	replyTo := b.prefix + ":reply:" + uuid.NewString()
	ps := b.client.Subscribe(ctx, replyTo)
	defer ps.Close()
	if _, err := ps.Receive(ctx); err != nil {
		return core.Reply{}, fmt.Errorf("redisbus: subscribe reply channel: %w", err)
	}

	data, err := json.Marshal(envelope{ReplyTo: replyTo, Request: req})
	if err != nil {
		return core.Reply{}, err
	}
	if err := b.client.RPush(ctx, b.queueKey(), data).Err(); err != nil {
		return core.Reply{}, fmt.Errorf("redisbus: enqueue %s: %w", req.Method, err)
	}

	select {
	case msg, ok := <-ps.Channel():
		if !ok {
			return core.Reply{}, fmt.Errorf("redisbus: reply channel closed for %s", req.Method)
		}
		var reply core.Reply
		if err := json.Unmarshal([]byte(msg.Payload), &reply); err != nil {
			return core.Reply{}, fmt.Errorf("redisbus: undecodable reply for %s: %w", req.Method, err)
		}
		return reply, nil
	case <-ctx.Done():
		return core.Reply{}, ctx.Err()
	}
}

// Serve pops queued calls and answers them with target. It blocks until ctx
// ends and waits for in-flight calls before returning.
func (b *Bus) Serve(ctx context.Context, target core.RoundTripper) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	b.logger.Info("redisbus.serve", "queue", b.queueKey())
	for {
		if ctx.Err() != nil {
			return nil
		}
		res, err := b.client.BLPop(ctx, b.poll, b.queueKey()).Result()
		switch {
		case errors.Is(err, redis.Nil):
			continue
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("redisbus: pop %s: %w", b.queueKey(), err)
		}

		var env envelope
		if err := json.Unmarshal([]byte(res[1]), &env); err != nil {
			b.logger.Error("redisbus.request.undecodable", "error", err)
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.answer(ctx, target, env)
		}()
	}
}

func (b *Bus) answer(ctx context.Context, target core.RoundTripper, env envelope) {
	reply, err := target.RoundTrip(ctx, env.Request)
	if err != nil {
		reply = core.Reply{Status: core.StatusError, Error: err.Error()}
	}
	reply.ID = env.Request.ID

	data, err := json.Marshal(reply)
	if err != nil {
		b.logger.Error("redisbus.reply.encode", "method", env.Request.Method, "error", err)
		return
	}
	// The caller may have given up; replies to an empty channel are dropped.
	if err := b.client.Publish(context.WithoutCancel(ctx), env.ReplyTo, data).Err(); err != nil {
		b.logger.Warn("redisbus.reply.failed", "method", env.Request.Method, "error", err)
	}
}

// Publish implements core.Broker.
func (b *Bus) Publish(ctx context.Context, topic string, data []byte) error {
	if err := b.client.Publish(ctx, b.eventChannel(topic), data).Err(); err != nil {
		return fmt.Errorf("failed to publish to topic %q: %w", topic, err)
	}
	return nil
}

// Subscribe implements core.Broker. It returns once Redis confirmed the
// subscription.
func (b *Bus) Subscribe(ctx context.Context, topic string) (core.RawSubscription, error) {
	ps := b.client.Subscribe(ctx, b.eventChannel(topic))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe to topic %q: %w", topic, err)
	}

	q := pubsub.NewQueue(b.buffer, func() { _ = ps.Close() })
	msgs := ps.Channel()
	go func() {
		defer q.Shutdown()
		for msg := range msgs {
			if err := q.Deliver(context.Background(), []byte(msg.Payload)); err != nil {
				b.logger.Warn("redisbus.event.dropped", "topic", topic, "error", err)
			}
		}
	}()
	return q, nil
}
