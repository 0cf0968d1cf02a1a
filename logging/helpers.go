package logging

import "time"

// DispatchLogger is implemented by loggers with a structured dispatch record.
type DispatchLogger interface {
	LogDispatch(method string, dur time.Duration, status string, err error)
}

// InvocationLogger is implemented by loggers with a structured stub call record.
type InvocationLogger interface {
	LogInvocation(method string, dur time.Duration, failed bool, err error)
}

// GenerationLogger is implemented by loggers with a structured artifact record.
type GenerationLogger interface {
	LogGeneration(artifact string, items int, dur time.Duration, err error)
}

// SubscriptionLogger is implemented by loggers with a structured subscription record.
type SubscriptionLogger interface {
	LogSubscription(event string, opened bool, err error)
}

// Dispatch records a handler execution on l, using LogDispatch when available.
func Dispatch(l Logger, method string, dur time.Duration, status string, err error) {
	if dl, ok := l.(DispatchLogger); ok {
		dl.LogDispatch(method, dur, status, err)
		return
	}
	if err != nil {
		l.Error("dispatch.call.error", "method", method, "status", status, "duration_ms", dur.Milliseconds(), "error", err.Error())
		return
	}
	l.Debug("dispatch.call.done", "method", method, "status", status, "duration_ms", dur.Milliseconds())
}

// Invocation records a stub call on l, using LogInvocation when available.
func Invocation(l Logger, method string, dur time.Duration, failed bool, err error) {
	if il, ok := l.(InvocationLogger); ok {
		il.LogInvocation(method, dur, failed, err)
		return
	}
	if err != nil {
		l.Error("invoke.error", "method", method, "duration_ms", dur.Milliseconds(), "error", err.Error())
		return
	}
	l.Debug("invoke.done", "method", method, "failure_branch", failed, "duration_ms", dur.Milliseconds())
}

// Generation records an emitted artifact on l, using LogGeneration when available.
func Generation(l Logger, artifact string, items int, dur time.Duration, err error) {
	if gl, ok := l.(GenerationLogger); ok {
		gl.LogGeneration(artifact, items, dur, err)
		return
	}
	if err != nil {
		l.Error("gen.artifact.error", "artifact", artifact, "error", err.Error())
		return
	}
	l.Info("gen.artifact.done", "artifact", artifact, "items", items, "duration_ms", dur.Milliseconds())
}

// Subscription records a subscription change on l, using LogSubscription when available.
func Subscription(l Logger, event string, opened bool, err error) {
	if sl, ok := l.(SubscriptionLogger); ok {
		sl.LogSubscription(event, opened, err)
		return
	}
	if err != nil {
		l.Error("events.subscription.error", "event", event, "error", err.Error())
		return
	}
	l.Debug("events.subscription", "event", event, "opened", opened)
}
