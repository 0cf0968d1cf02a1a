package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hupe1980/ipcmesh/core"
	"github.com/hupe1980/ipcmesh/internal/pubsub"
	"github.com/hupe1980/ipcmesh/logging"
)

// ErrClosed is returned once the client connection is gone.
var ErrClosed = errors.New("ws: connection closed")

// ClientOptions configures a Client.
type ClientOptions struct {
	Dialer *websocket.Dialer
	Header http.Header
	// Buffer is the per-subscription queue length. Defaults to 64.
	Buffer int
	Logger logging.Logger
}

// Client is the caller side of a websocket session. It is safe for
// concurrent use.
type Client struct {
	conn   *websocket.Conn
	wmu    sync.Mutex
	buffer int
	logger logging.Logger

	mu      sync.Mutex
	pending map[string]chan frame
	subs    map[string]*pubsub.Queue
	closed  bool
	err     error
	done    chan struct{}
}

// Dial connects to a Server at url (ws:// or wss://).
func Dial(ctx context.Context, url string, optFns ...func(o *ClientOptions)) (*Client, error) {
	opts := ClientOptions{
		Dialer: websocket.DefaultDialer,
		Buffer: 64,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	conn, _, err := opts.Dialer.DialContext(ctx, url, opts.Header)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}

	c := &Client{
		conn:    conn,
		buffer:  opts.Buffer,
		logger:  logging.OrNoOp(opts.Logger),
		pending: map[string]chan frame{},
		subs:    map[string]*pubsub.Queue{},
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// RoundTrip implements core.RoundTripper.
func (c *Client) RoundTrip(ctx context.Context, req core.Request) (core.Reply, error) {
	r, err := c.call(ctx, frame{Kind: kindCall, ID: uuid.NewString(), Request: &req})
	if err != nil {
		return core.Reply{}, err
	}
	if r.Error != "" {
		return core.Reply{}, errors.New(r.Error)
	}
	if r.Reply == nil {
		return core.Reply{}, fmt.Errorf("ws: empty reply for %s", req.Method)
	}
	return *r.Reply, nil
}

// Publish implements core.Broker.
func (c *Client) Publish(ctx context.Context, topic string, data []byte) error {
	r, err := c.call(ctx, frame{Kind: kindPublish, ID: uuid.NewString(), Topic: topic, Data: data})
	if err != nil {
		return err
	}
	if r.Error != "" {
		return errors.New(r.Error)
	}
	return nil
}

// Subscribe implements core.Broker. It returns once the server acknowledged
// the subscription, so every event published afterwards is delivered.
func (c *Client) Subscribe(ctx context.Context, topic string) (core.RawSubscription, error) {
	id := uuid.NewString()
	q := pubsub.NewQueue(c.buffer, func() { c.unsubscribe(id) })

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.subs[id] = q
	c.mu.Unlock()

	r, err := c.call(ctx, frame{Kind: kindSubscribe, ID: id, Topic: topic})
	if err == nil && r.Error != "" {
		err = errors.New(r.Error)
	}
	if err != nil {
		c.drop(id)
		q.Shutdown()
		return nil, err
	}
	return q, nil
}

// Close ends the session and every subscription.
func (c *Client) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	c.wmu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	c.wmu.Unlock()
	c.shutdown(ErrClosed)
	return c.conn.Close()
}

func (c *Client) unsubscribe(id string) {
	if !c.drop(id) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := c.call(ctx, frame{Kind: kindUnsubscribe, ID: id}); err != nil && !errors.Is(err, ErrClosed) {
		c.logger.Warn("ws.unsubscribe.failed", "subscription", id, "error", err)
	}
}

func (c *Client) drop(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.subs[id]
	delete(c.subs, id)
	return ok
}

func (c *Client) call(ctx context.Context, f frame) (frame, error) {
	ch := make(chan frame, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return frame{}, ErrClosed
	}
	c.pending[f.ID] = ch
	c.mu.Unlock()

	forget := func() {
		c.mu.Lock()
		delete(c.pending, f.ID)
		c.mu.Unlock()
	}

	if err := c.write(f); err != nil {
		forget()
		return frame{}, err
	}

	select {
	case r := <-ch:
		return r, nil
	case <-ctx.Done():
		forget()
		return frame{}, ctx.Err()
	case <-c.done:
		return frame{}, c.closeErr()
	}
}

func (c *Client) write(f frame) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.conn.WriteJSON(f)
}

func (c *Client) readLoop() {
	for {
		var f frame
		if err := c.conn.ReadJSON(&f); err != nil {
			c.shutdown(err)
			return
		}
		switch f.Kind {
		case kindReply, kindAck:
			c.mu.Lock()
			ch, ok := c.pending[f.ID]
			delete(c.pending, f.ID)
			c.mu.Unlock()
			if ok {
				ch <- f
			}
		case kindEvent:
			c.mu.Lock()
			q, ok := c.subs[f.ID]
			c.mu.Unlock()
			if !ok {
				continue
			}
			// Blocks while the listener lags, pausing the session.
			if err := q.Deliver(context.Background(), f.Data); err != nil {
				c.logger.Warn("ws.event.dropped", "topic", f.Topic, "error", err)
			}
		default:
			c.logger.Warn("ws.frame.unexpected", "kind", string(f.Kind), "id", f.ID)
		}
	}
}

func (c *Client) shutdown(err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.err = err
	subs := c.subs
	c.subs = map[string]*pubsub.Queue{}
	close(c.done)
	c.mu.Unlock()

	for _, q := range subs {
		q.Shutdown()
	}
}

func (c *Client) closeErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil || errors.Is(c.err, ErrClosed) {
		return ErrClosed
	}
	return fmt.Errorf("%w: %v", ErrClosed, c.err)
}
