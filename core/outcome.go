package core

import "fmt"

// Unit is the empty success or failure payload, the Go spelling of "no value".
type Unit struct{}

// Outcome carries either a success payload S or a failure payload F. It is the
// declared return shape of contract methods whose failure must be decodable by
// callers. The zero value is a success holding the zero S.
type Outcome[S, F any] struct {
	value   S
	failure F
	failed  bool
}

// Success constructs a successful Outcome.
func Success[S, F any](v S) Outcome[S, F] {
	return Outcome[S, F]{value: v}
}

// Failure constructs a failed Outcome.
func Failure[S, F any](f F) Outcome[S, F] {
	return Outcome[S, F]{failure: f, failed: true}
}

// IsSuccess reports whether the outcome holds a success payload.
func (o Outcome[S, F]) IsSuccess() bool { return !o.failed }

// IsFailure reports whether the outcome holds a failure payload.
func (o Outcome[S, F]) IsFailure() bool { return o.failed }

// Success returns the success payload and true, or the zero S and false.
func (o Outcome[S, F]) Success() (S, bool) {
	if o.failed {
		var zero S
		return zero, false
	}
	return o.value, true
}

// Failure returns the failure payload and true, or the zero F and false.
func (o Outcome[S, F]) Failure() (F, bool) {
	if !o.failed {
		var zero F
		return zero, false
	}
	return o.failure, true
}

// Fold applies onSuccess or onFailure depending on the variant.
func (o Outcome[S, F]) Fold(onSuccess func(S), onFailure func(F)) {
	if o.failed {
		if onFailure != nil {
			onFailure(o.failure)
		}
		return
	}
	if onSuccess != nil {
		onSuccess(o.value)
	}
}

// String implements fmt.Stringer.
func (o Outcome[S, F]) String() string {
	if o.failed {
		return fmt.Sprintf("Failure(%v)", o.failure)
	}
	return fmt.Sprintf("Success(%v)", o.value)
}
