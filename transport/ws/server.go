// Package ws carries requests and events over a websocket connection.
//
// A Server sits on the callee side: it answers calls through a
// core.RoundTripper (normally a *dispatch.Router) and forwards broker topics
// the peer subscribed to. A Client sits on the caller side and implements
// both core.RoundTripper and core.Broker, so it can back a core.Client and
// a core.Events at the same time.
package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/ipcmesh/core"
	"github.com/hupe1980/ipcmesh/logging"
)

// ServerOptions configures a Server.
type ServerOptions struct {
	Upgrader websocket.Upgrader
	Logger   logging.Logger
}

// Server is an http.Handler upgrading every request to a websocket session.
type Server struct {
	target   core.RoundTripper
	broker   core.Broker
	upgrader websocket.Upgrader
	logger   logging.Logger
}

// NewServer returns a Server answering calls with target and serving
// subscriptions from broker. broker may be nil when the peer only invokes.
func NewServer(target core.RoundTripper, broker core.Broker, optFns ...func(o *ServerOptions)) *Server {
	opts := ServerOptions{
		Upgrader: websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096},
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Server{
		target:   target,
		broker:   broker,
		upgrader: opts.Upgrader,
		logger:   logging.OrNoOp(opts.Logger),
	}
}

// ServeHTTP implements http.Handler. It returns when the session ends.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws.upgrade.failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	s.logger.Debug("ws.session.start", "remote", r.RemoteAddr)
	err = s.serve(r.Context(), conn)
	if err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !errors.Is(err, context.Canceled) {
		s.logger.Warn("ws.session.end", "remote", r.RemoteAddr, "error", err)
		return
	}
	s.logger.Debug("ws.session.end", "remote", r.RemoteAddr)
}

type session struct {
	conn *websocket.Conn
	wmu  sync.Mutex

	mu   sync.Mutex
	subs map[string]core.RawSubscription
}

func (c *session) write(f frame) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.conn.WriteJSON(f)
}

func (c *session) add(id string, sub core.RawSubscription) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.subs[id]; dup {
		return false
	}
	c.subs[id] = sub
	return true
}

func (c *session) remove(id string) {
	c.mu.Lock()
	sub, ok := c.subs[id]
	delete(c.subs, id)
	c.mu.Unlock()
	if ok {
		_ = sub.Close()
	}
}

func (c *session) closeAll() {
	c.mu.Lock()
	subs := c.subs
	c.subs = map[string]core.RawSubscription{}
	c.mu.Unlock()
	for _, sub := range subs {
		_ = sub.Close()
	}
}

func (s *Server) serve(ctx context.Context, conn *websocket.Conn) error {
	defer conn.Close()

	sess := &session{conn: conn, subs: map[string]core.RawSubscription{}}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		return conn.Close()
	})

	g.Go(func() error {
		defer sess.closeAll()
		for {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				return err
			}
			switch f.Kind {
			case kindCall:
				if f.Request == nil {
					if err := sess.write(ack(f.ID, errors.New("ws: call frame without request"))); err != nil {
						return err
					}
					continue
				}
				req := *f.Request
				id := f.ID
				g.Go(func() error {
					reply, err := s.target.RoundTrip(ctx, req)
					if err != nil {
						reply = core.Reply{Status: core.StatusError, Error: err.Error()}
					}
					reply.ID = req.ID
					return sess.write(frame{Kind: kindReply, ID: id, Reply: &reply})
				})

			case kindSubscribe:
				if err := s.subscribe(ctx, g, sess, f); err != nil {
					return err
				}

			case kindUnsubscribe:
				sess.remove(f.ID)
				if err := sess.write(ack(f.ID, nil)); err != nil {
					return err
				}

			case kindPublish:
				var err error
				if s.broker == nil {
					err = errors.New("ws: server has no broker")
				} else {
					err = s.broker.Publish(ctx, f.Topic, f.Data)
				}
				if err := sess.write(ack(f.ID, err)); err != nil {
					return err
				}

			default:
				if err := sess.write(ack(f.ID, fmt.Errorf("ws: unexpected %q frame", f.Kind))); err != nil {
					return err
				}
			}
		}
	})

	return g.Wait()
}

// subscribe opens a broker subscription for the peer. The ack is written
// before the first event, so the peer never sees an event for a subscription
// it does not know yet.
func (s *Server) subscribe(ctx context.Context, g *errgroup.Group, sess *session, f frame) error {
	if s.broker == nil {
		return sess.write(ack(f.ID, errors.New("ws: server has no broker")))
	}
	sub, err := s.broker.Subscribe(ctx, f.Topic)
	if err != nil {
		return sess.write(ack(f.ID, err))
	}
	if !sess.add(f.ID, sub) {
		_ = sub.Close()
		return sess.write(ack(f.ID, fmt.Errorf("ws: subscription %s already exists", f.ID)))
	}
	if err := sess.write(ack(f.ID, nil)); err != nil {
		return err
	}
	s.logger.Debug("ws.subscribe", "topic", f.Topic, "subscription", f.ID)

	g.Go(func() error {
		for data := range sub.C() {
			if err := sess.write(frame{Kind: kindEvent, ID: f.ID, Topic: f.Topic, Data: data}); err != nil {
				return err
			}
		}
		return nil
	})
	return nil
}
