// Package core provides the runtime contracts shared by generated caller stubs,
// generated dispatch registration and generated event bindings. It defines:
//
//   - Outcome, the two-variant success/failure value returned by contract methods
//   - Codec, the marshaling primitive used for argument records and payloads
//   - RoundTripper and Broker, the transport primitives concrete adapters implement
//   - Client (Caller) and Events (Emitter, Listener), which bind a transport to a codec
//   - Stream, the cancellable lazy sequence produced by event subscriptions
//   - HostError, InvocationError and SubscriptionError, the runtime error taxonomy
//
// The package keeps transport implementations (memory, websocket, NATS, Redis)
// out of scope, exposing small interfaces so generated code never depends on a
// concrete process boundary. No retry, timeout or ordering policy lives here.
package core
