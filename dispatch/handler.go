package dispatch

import (
	"context"
	"fmt"

	"github.com/hupe1980/ipcmesh/core"
)

// Handler serves one wire identifier. Serve decodes the argument record with
// codec, runs the implementation and returns the reply status and payload.
// A returned error is reported to the caller as core.StatusError.
type Handler interface {
	Name() string
	Serve(ctx context.Context, codec core.Codec, args []byte) (core.Status, []byte, error)
}

type handlerFunc struct {
	name  string
	serve func(ctx context.Context, codec core.Codec, args []byte) (core.Status, []byte, error)
}

func (h *handlerFunc) Name() string { return h.name }

func (h *handlerFunc) Serve(ctx context.Context, codec core.Codec, args []byte) (core.Status, []byte, error) {
	return h.serve(ctx, codec, args)
}

// ArgumentError reports an argument record that could not be decoded.
type ArgumentError struct {
	Method string
	Err    error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("dispatch: undecodable arguments for %s: %v", e.Method, e.Err)
}

func (e *ArgumentError) Unwrap() error { return e.Err }

func decodeArgs[A any](name string, codec core.Codec, data []byte) (A, error) {
	var a A
	if err := codec.Unmarshal(data, &a); err != nil {
		return a, &ArgumentError{Method: name, Err: err}
	}
	return a, nil
}

func encode(codec core.Codec, status core.Status, v any) (core.Status, []byte, error) {
	data, err := codec.Marshal(v)
	if err != nil {
		return core.StatusError, nil, fmt.Errorf("dispatch: unencodable %s payload: %w", status, err)
	}
	return status, data, nil
}

// Outcome adapts a handler with an Outcome return. Both branches are encoded
// and sent as values; the failure branch travels as core.StatusFailure.
func Outcome[A, S, F any](name string, fn func(ctx context.Context, args A) core.Outcome[S, F]) Handler {
	return &handlerFunc{name: name, serve: func(ctx context.Context, codec core.Codec, data []byte) (core.Status, []byte, error) {
		a, err := decodeArgs[A](name, codec, data)
		if err != nil {
			return core.StatusError, nil, err
		}
		out := fn(ctx, a)
		if f, failed := out.Failure(); failed {
			return encode(codec, core.StatusFailure, f)
		}
		s, _ := out.Success()
		return encode(codec, core.StatusOK, s)
	}}
}

// Value adapts a handler returning a plain value.
func Value[A, R any](name string, fn func(ctx context.Context, args A) R) Handler {
	return &handlerFunc{name: name, serve: func(ctx context.Context, codec core.Codec, data []byte) (core.Status, []byte, error) {
		a, err := decodeArgs[A](name, codec, data)
		if err != nil {
			return core.StatusError, nil, err
		}
		return encode(codec, core.StatusOK, fn(ctx, a))
	}}
}

// Unit adapts a handler without a result.
func Unit[A any](name string, fn func(ctx context.Context, args A)) Handler {
	return &handlerFunc{name: name, serve: func(ctx context.Context, codec core.Codec, data []byte) (core.Status, []byte, error) {
		a, err := decodeArgs[A](name, codec, data)
		if err != nil {
			return core.StatusError, nil, err
		}
		fn(ctx, a)
		return core.StatusOK, nil, nil
	}}
}

// Func adapts a handler whose only result is an error. The error has no
// decodable payload and reaches the caller as an undifferentiated host error.
func Func[A any](name string, fn func(ctx context.Context, args A) error) Handler {
	return &handlerFunc{name: name, serve: func(ctx context.Context, codec core.Codec, data []byte) (core.Status, []byte, error) {
		a, err := decodeArgs[A](name, codec, data)
		if err != nil {
			return core.StatusError, nil, err
		}
		if err := fn(ctx, a); err != nil {
			return core.StatusError, nil, err
		}
		return core.StatusOK, nil, nil
	}}
}
