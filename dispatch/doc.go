// Package dispatch is the callee-side dispatch table: a Router maps wire
// identifiers to typed handlers and answers core.Request values.
//
// Handlers are registered once (normally by a generated Register<Contract>
// function), after which the router is sealed. A sealed router is read-only
// and safe for concurrent lookup without locking. Router implements
// core.RoundTripper, so it can be served by any transport or used directly
// through memory.NewLoopback.
//
// Reply semantics:
//
//	Outcome handler, success   -> core.StatusOK      payload = encoded S
//	Outcome handler, failure   -> core.StatusFailure payload = encoded F
//	Value / Unit handler       -> core.StatusOK
//	Func handler error         -> core.StatusError   (undifferentiated host error)
//	unknown method, bad args,
//	handler panic              -> core.StatusError
package dispatch
