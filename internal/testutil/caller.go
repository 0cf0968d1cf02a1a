package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Call is one invocation seen by a RecordingCaller. Args holds the JSON form
// of the argument record.
type Call struct {
	Name string
	Args json.RawMessage
}

type cannedReply struct {
	payload any
	failure any
	failed  bool
	err     error
}

// RecordingCaller is a core.Caller fake. It records every call and answers
// from canned replies keyed by wire name; unknown names fail with an error.
type RecordingCaller struct {
	mu      sync.Mutex
	calls   []Call
	replies map[string]cannedReply
}

// NewRecordingCaller returns an empty RecordingCaller.
func NewRecordingCaller() *RecordingCaller {
	return &RecordingCaller{replies: map[string]cannedReply{}}
}

// Reply makes name succeed with payload (chainable).
func (c *RecordingCaller) Reply(name string, payload any) *RecordingCaller {
	return c.set(name, cannedReply{payload: payload})
}

// Fail makes name report the declared failure on the outcome path
// (chainable).
func (c *RecordingCaller) Fail(name string, failure any) *RecordingCaller {
	return c.set(name, cannedReply{failure: failure, failed: true})
}

// Error makes name fail with err (chainable).
func (c *RecordingCaller) Error(name string, err error) *RecordingCaller {
	return c.set(name, cannedReply{err: err})
}

func (c *RecordingCaller) set(name string, r cannedReply) *RecordingCaller {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies[name] = r
	return c
}

// Calls returns the recorded calls in order.
func (c *RecordingCaller) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// Invoke implements core.Caller.
func (c *RecordingCaller) Invoke(ctx context.Context, name string, args any, out any) error {
	r, err := c.record(ctx, name, args)
	if err != nil {
		return err
	}
	if r.failed {
		return fmt.Errorf("testutil: %s failed on the plain invoke path", name)
	}
	return decodeInto(r.payload, out)
}

// InvokeOutcome implements core.Caller.
func (c *RecordingCaller) InvokeOutcome(ctx context.Context, name string, args any, success any, failure any) (bool, error) {
	r, err := c.record(ctx, name, args)
	if err != nil {
		return false, err
	}
	if r.failed {
		return true, decodeInto(r.failure, failure)
	}
	return false, decodeInto(r.payload, success)
}

func (c *RecordingCaller) record(ctx context.Context, name string, args any) (cannedReply, error) {
	if err := ctx.Err(); err != nil {
		return cannedReply{}, err
	}
	data, err := json.Marshal(args)
	if err != nil {
		return cannedReply{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, Call{Name: name, Args: data})
	r, ok := c.replies[name]
	if !ok {
		return cannedReply{}, fmt.Errorf("testutil: no reply for %s", name)
	}
	return r, r.err
}

// decodeInto copies v into out through JSON, the way a real round trip would.
func decodeInto(v any, out any) error {
	if out == nil || v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
