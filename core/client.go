package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/ipcmesh/logging"
)

// Caller is what generated stubs call. Invoke is the plain path: the reply is
// decoded into out (which may be nil for Unit methods) and a failure branch is
// never decoded. InvokeOutcome decodes the success payload into success or the
// declared failure into failure and reports which branch was taken.
type Caller interface {
	Invoke(ctx context.Context, name string, args any, out any) error
	InvokeOutcome(ctx context.Context, name string, args any, success any, failure any) (failed bool, err error)
}

// ClientOptions configures a Client.
type ClientOptions struct {
	// Codec encodes argument records and decodes replies. Defaults to JSON.
	Codec Codec
	// Logger receives one debug line per call. Defaults to NoOpLogger.
	Logger logging.Logger
	// NewID generates request identifiers. Defaults to random UUIDs.
	NewID func() string
}

// Client binds a RoundTripper to a Codec and implements Caller. It holds no
// mutable state and is safe for concurrent use.
type Client struct {
	rt     RoundTripper
	codec  Codec
	logger logging.Logger
	newID  func() string
}

// NewClient constructs a Client issuing requests through rt.
func NewClient(rt RoundTripper, optFns ...func(o *ClientOptions)) *Client {
	opts := ClientOptions{
		Codec:  DefaultCodec,
		Logger: logging.NoOpLogger{},
		NewID:  uuid.NewString,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Client{
		rt:     rt,
		codec:  codecOrDefault(opts.Codec),
		logger: logging.OrNoOp(opts.Logger),
		newID:  opts.NewID,
	}
}

// Codec returns the codec used by the client.
func (c *Client) Codec() Codec { return c.codec }

// Invoke implements Caller.
func (c *Client) Invoke(ctx context.Context, name string, args any, out any) error {
	start := time.Now()
	reply, err := c.roundTrip(ctx, name, args)
	if err != nil {
		return err
	}

	switch reply.Status {
	case StatusOK:
		if out == nil {
			break
		}
		if err := c.codec.Unmarshal(reply.Payload, out); err != nil {
			return &InvocationError{Method: name, Err: &HostError{Op: "decode", Name: name, Message: "undecodable result", Err: err}}
		}
	case StatusFailure:
		// The plain path has no failure type to decode into.
		return &InvocationError{Method: name, Err: &HostError{Op: "invoke", Name: name, Message: "remote reported a failure on the plain invoke path"}}
	default:
		return c.hostError(name, reply)
	}

	logging.Invocation(c.logger, name, time.Since(start), false, nil)
	return nil
}

// InvokeOutcome implements Caller.
func (c *Client) InvokeOutcome(ctx context.Context, name string, args any, success any, failure any) (bool, error) {
	start := time.Now()
	reply, err := c.roundTrip(ctx, name, args)
	if err != nil {
		return false, err
	}

	var (
		target = success
		failed bool
	)
	switch reply.Status {
	case StatusOK:
	case StatusFailure:
		target, failed = failure, true
	default:
		return false, c.hostError(name, reply)
	}

	if target != nil {
		if err := c.codec.Unmarshal(reply.Payload, target); err != nil {
			return failed, &InvocationError{Method: name, Err: &HostError{Op: "decode", Name: name, Message: fmt.Sprintf("undecodable %s payload", reply.Status), Err: err}}
		}
	}

	logging.Invocation(c.logger, name, time.Since(start), failed, nil)
	return failed, nil
}

func (c *Client) roundTrip(ctx context.Context, name string, args any) (Reply, error) {
	data, err := c.codec.Marshal(args)
	if err != nil {
		return Reply{}, &InvocationError{Method: name, Err: &HostError{Op: "encode", Name: name, Message: "unencodable arguments", Err: err}}
	}

	req := Request{ID: c.newID(), Method: name, Args: data}
	reply, err := c.rt.RoundTrip(ctx, req)
	if err != nil {
		c.logger.Error("invoke.error", "method", name, "request_id", req.ID, "error", err)
		return Reply{}, &InvocationError{Method: name, Err: err}
	}
	return reply, nil
}

func (c *Client) hostError(name string, reply Reply) error {
	msg := reply.Error
	if reply.Status != StatusError {
		msg = fmt.Sprintf("unknown reply status %q", reply.Status)
	}
	c.logger.Error("invoke.error", "method", name, "request_id", reply.ID, "error", msg)
	return &InvocationError{Method: name, Err: &HostError{Op: "invoke", Name: name, Message: msg}}
}

// Invoke calls name on the plain path and decodes the result as T.
func Invoke[T any](ctx context.Context, c Caller, name string, args any) (T, error) {
	var out T
	if err := c.Invoke(ctx, name, args, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// InvokeUnit calls name on the plain path and discards any result.
func InvokeUnit(ctx context.Context, c Caller, name string, args any) error {
	return c.Invoke(ctx, name, args, nil)
}

// InvokeOutcome calls name on the outcome path. The declared failure is
// returned inside the Outcome; the error result only reports transport-level
// problems.
func InvokeOutcome[S, F any](ctx context.Context, c Caller, name string, args any) (Outcome[S, F], error) {
	var (
		s S
		f F
	)
	failed, err := c.InvokeOutcome(ctx, name, args, &s, &f)
	if err != nil {
		return Outcome[S, F]{}, err
	}
	if failed {
		return Failure[S, F](f), nil
	}
	return Success[S, F](s), nil
}
