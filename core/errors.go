package core

import (
	"errors"
	"fmt"
)

var (
	// ErrStreamClosed is returned by Stream.Next once the stream was closed
	// by its consumer or the underlying subscription ended.
	ErrStreamClosed = errors.New("core: stream closed")

	// ErrStreamConsumed is yielded when Stream.All is ranged over a second time.
	ErrStreamConsumed = errors.New("core: stream already consumed")
)

// HostError is the undifferentiated error reported by the host side of the
// boundary (or by the local transport binding) for a named operation.
type HostError struct {
	Op      string `json:"op"`   // invoke, emit, subscribe, decode
	Name    string `json:"name"` // method or event wire identifier
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *HostError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("host error [%s] %s: %s", e.Op, e.Name, msg)
}

func (e *HostError) Unwrap() error { return e.Err }

// InvocationError reports a transport-level failure of one stub call. A
// declared failure of an Outcome method is never an InvocationError: it is
// returned as the failure branch of the Outcome value.
type InvocationError struct {
	Method string
	Err    error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("invoke %s: %v", e.Method, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// SubscriptionError reports that an event subscription could not be
// established. It is always returned before any payload is produced.
type SubscriptionError struct {
	Event string
	Err   error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("subscribe %s: %v", e.Event, e.Err)
}

func (e *SubscriptionError) Unwrap() error { return e.Err }

// IsInvocationError reports whether err carries an InvocationError.
func IsInvocationError(err error) bool {
	var ie *InvocationError
	return errors.As(err, &ie)
}

// IsSubscriptionError reports whether err carries a SubscriptionError.
func IsSubscriptionError(err error) bool {
	var se *SubscriptionError
	return errors.As(err, &se)
}
