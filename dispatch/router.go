package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/ipcmesh/core"
	"github.com/hupe1980/ipcmesh/logging"
)

var (
	// ErrSealed is returned when registering on a sealed router.
	ErrSealed = errors.New("dispatch: router is sealed")
	// ErrDuplicate is returned when a wire identifier is registered twice.
	ErrDuplicate = errors.New("dispatch: duplicate handler")
	// ErrUnknownMethod is reported for requests naming no registered handler.
	ErrUnknownMethod = errors.New("dispatch: unknown method")
)

// Options configures a Router.
type Options struct {
	// Codec decodes argument records and encodes payloads. Defaults to JSON.
	Codec core.Codec
	// Logger receives one line per dispatched request. Defaults to NoOpLogger.
	Logger logging.Logger
	// MaxConcurrent bounds the handlers running at once. Further calls wait
	// for a slot or the end of their context. Zero means unlimited.
	MaxConcurrent int
}

// Router is the generated dispatch table.
//
// Registration is serialized by a mutex. Sealing freezes the table; after
// that Lookup and RoundTrip read the map without locking. RoundTrip seals the
// router on first use.
type Router struct {
	mu       sync.Mutex
	handlers map[string]Handler
	sealed   atomic.Bool
	codec    core.Codec
	logger   logging.Logger
	limit    *limiter
}

// New constructs an empty Router.
func New(optFns ...func(o *Options)) *Router {
	opts := Options{
		Codec:  core.DefaultCodec,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = core.DefaultCodec
	}
	return &Router{
		handlers: map[string]Handler{},
		codec:    opts.Codec,
		logger:   logging.OrNoOp(opts.Logger),
		limit:    newLimiter(opts.MaxConcurrent),
	}
}

// Register adds handlers. Either all of them are added or none: a duplicate
// name (within the call or against the table) fails the whole registration.
func (r *Router) Register(handlers ...Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.Load() {
		return ErrSealed
	}

	batch := make(map[string]bool, len(handlers))
	for _, h := range handlers {
		name := h.Name()
		if _, ok := r.handlers[name]; ok || batch[name] {
			return fmt.Errorf("%w: %s", ErrDuplicate, name)
		}
		batch[name] = true
	}
	for _, h := range handlers {
		r.handlers[h.Name()] = h
		r.logger.Debug("dispatch.register", "method", h.Name())
	}
	return nil
}

// Seal freezes the table. It is idempotent.
func (r *Router) Seal() {
	r.mu.Lock()
	r.sealed.Store(true)
	r.mu.Unlock()
}

// Sealed reports whether the table is frozen.
func (r *Router) Sealed() bool { return r.sealed.Load() }

// Lookup returns the handler registered under name.
func (r *Router) Lookup(name string) (Handler, bool) {
	if !r.sealed.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	h, ok := r.handlers[name]
	return h, ok
}

// Names returns the registered wire identifiers in sorted order.
func (r *Router) Names() []string {
	if !r.sealed.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InFlight returns the number of handlers currently running.
func (r *Router) InFlight() int { return r.limit.Active() }

// Codec returns the codec used for arguments and payloads.
func (r *Router) Codec() core.Codec { return r.codec }

// RoundTrip implements core.RoundTripper. Handler problems (unknown method,
// undecodable arguments, panics, handler errors) are returned as
// core.StatusError replies, never as Go errors; the error result is reserved
// for a context that ends before the handler runs.
func (r *Router) RoundTrip(ctx context.Context, req core.Request) (core.Reply, error) {
	if err := ctx.Err(); err != nil {
		return core.Reply{}, err
	}
	if !r.sealed.Load() {
		r.Seal()
	}

	reply := core.Reply{ID: req.ID}
	h, ok := r.handlers[req.Method]
	if !ok {
		r.logger.Warn("dispatch.unknown_method", "method", req.Method, "request_id", req.ID)
		reply.Status = core.StatusError
		reply.Error = fmt.Sprintf("%v: %s", ErrUnknownMethod, req.Method)
		return reply, nil
	}

	if err := r.limit.acquire(ctx); err != nil {
		r.logger.Warn("dispatch.saturated", "method", req.Method, "request_id", req.ID, "in_flight", r.limit.Active())
		return core.Reply{}, err
	}
	defer r.limit.release()

	start := time.Now()
	status, payload, err := r.serve(ctx, h, req)
	if err != nil {
		logging.Dispatch(r.logger, req.Method, time.Since(start), string(core.StatusError), err)
		reply.Status = core.StatusError
		reply.Error = err.Error()
		return reply, nil
	}

	logging.Dispatch(r.logger, req.Method, time.Since(start), string(status), nil)
	reply.Status = status
	reply.Payload = payload
	return reply, nil
}

func (r *Router) serve(ctx context.Context, h Handler, req core.Request) (status core.Status, payload []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &PanicError{Method: req.Method, Value: rec, Stack: debug.Stack()}
		}
	}()
	return h.Serve(ctx, r.codec, req.Args)
}

// PanicError is reported when a handler panics.
type PanicError struct {
	Method string
	Value  any
	Stack  []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("dispatch: handler %s panicked: %v", e.Method, e.Value)
}
