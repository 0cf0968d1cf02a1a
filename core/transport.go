package core

import "context"

// Status classifies a Reply.
type Status string

const (
	// StatusOK carries the encoded success (or plain) result.
	StatusOK Status = "ok"
	// StatusFailure carries the encoded declared failure of an Outcome method.
	StatusFailure Status = "failure"
	// StatusError reports a host-level problem: unknown method, undecodable
	// arguments, a handler panic or a handler error on a non-Outcome method.
	StatusError Status = "error"
)

// Request is one logical call crossing the process boundary. Method is the
// verbatim wire identifier; Args is the codec-encoded argument record.
type Request struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	Args   []byte `json:"args,omitempty"`
}

// Reply answers exactly one Request.
type Reply struct {
	ID      string `json:"id"`
	Status  Status `json:"status"`
	Payload []byte `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RoundTripper is the invoke half of the transport primitive: it delivers one
// request and waits for its reply. Implementations own retries, timeouts and
// ordering; a returned error means no reply was obtained.
type RoundTripper interface {
	RoundTrip(ctx context.Context, req Request) (Reply, error)
}

// RoundTripperFunc adapts a function to RoundTripper.
type RoundTripperFunc func(ctx context.Context, req Request) (Reply, error)

// RoundTrip calls f.
func (f RoundTripperFunc) RoundTrip(ctx context.Context, req Request) (Reply, error) {
	return f(ctx, req)
}

// Broker is the broadcast half of the transport primitive. Every live
// subscription to a topic receives its own copy of each published message.
type Broker interface {
	Publish(ctx context.Context, topic string, data []byte) error
	Subscribe(ctx context.Context, topic string) (RawSubscription, error)
}

// RawSubscription delivers encoded payloads for one subscriber. C is closed
// when the subscription ends; Close releases the underlying resources and is
// safe to call more than once.
type RawSubscription interface {
	C() <-chan []byte
	Close() error
}
