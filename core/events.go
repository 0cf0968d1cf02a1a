package core

import (
	"context"
	"errors"

	"github.com/hupe1980/ipcmesh/logging"
)

// Emitter broadcasts an event payload under its verbatim name. Generated
// emit-side event wrappers call it.
type Emitter interface {
	Emit(ctx context.Context, name string, payload any) error
}

// Listener opens subscriptions for generated listen-side event wrappers.
type Listener interface {
	Subscribe(ctx context.Context, name string) (RawSubscription, error)
	Codec() Codec
}

// EventsOptions configures Events.
type EventsOptions struct {
	Codec  Codec
	Logger logging.Logger
}

// Events binds a Broker to a Codec and implements both Emitter and Listener.
type Events struct {
	broker Broker
	codec  Codec
	logger logging.Logger
}

// NewEvents constructs an Events binding for broker.
func NewEvents(broker Broker, optFns ...func(o *EventsOptions)) *Events {
	opts := EventsOptions{Codec: DefaultCodec, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Events{broker: broker, codec: codecOrDefault(opts.Codec), logger: logging.OrNoOp(opts.Logger)}
}

// Codec returns the payload codec.
func (e *Events) Codec() Codec { return e.codec }

// Emit encodes payload and publishes it. Failures are reported as *HostError.
func (e *Events) Emit(ctx context.Context, name string, payload any) error {
	data, err := e.codec.Marshal(payload)
	if err != nil {
		return &HostError{Op: "emit", Name: name, Message: "unencodable payload", Err: err}
	}
	if err := e.broker.Publish(ctx, name, data); err != nil {
		e.logger.Error("events.emit.error", "event", name, "error", err)
		return &HostError{Op: "emit", Name: name, Err: err}
	}
	e.logger.Debug("events.emit", "event", name, "bytes", len(data))
	return nil
}

// Subscribe opens a raw subscription. Failures are reported as *SubscriptionError.
func (e *Events) Subscribe(ctx context.Context, name string) (RawSubscription, error) {
	sub, err := e.broker.Subscribe(ctx, name)
	if err != nil {
		logging.Subscription(e.logger, name, false, err)
		return nil, &SubscriptionError{Event: name, Err: err}
	}
	logging.Subscription(e.logger, name, true, nil)
	return sub, nil
}

// Emit broadcasts payload under name through e.
func Emit[T any](ctx context.Context, e Emitter, name string, payload T) error {
	return e.Emit(ctx, name, payload)
}

// Listen subscribes to name and returns a typed Stream. A failure to subscribe
// is returned as *SubscriptionError before any payload exists.
func Listen[T any](ctx context.Context, l Listener, name string) (*Stream[T], error) {
	sub, err := l.Subscribe(ctx, name)
	if err != nil {
		var se *SubscriptionError
		if !errors.As(err, &se) {
			err = &SubscriptionError{Event: name, Err: err}
		}
		return nil, err
	}
	return newStream[T](name, sub, codecOrDefault(l.Codec())), nil
}
