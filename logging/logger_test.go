package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Logger             = (*MeshLogger)(nil)
	_ Logger             = NoOpLogger{}
	_ DispatchLogger     = (*MeshLogger)(nil)
	_ InvocationLogger   = (*MeshLogger)(nil)
	_ GenerationLogger   = (*MeshLogger)(nil)
	_ SubscriptionLogger = (*MeshLogger)(nil)
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in    string
		want  LogLevel
		known bool
	}{
		{"debug", LogLevelDebug, true},
		{"WARN", LogLevelWarn, true},
		{"warning", LogLevelWarn, true},
		{"error", LogLevelError, true},
		{"info", LogLevelInfo, true},
		{"", LogLevelInfo, false},
		{"verbose", LogLevelInfo, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.known, ok)
		})
	}
	assert.Equal(t, "WARN", LogLevelWarn.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func newBufferLogger(level LogLevel) (*MeshLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	cfg.Output = buf
	return NewLogger(cfg), buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestMeshLogger_ContextAttrs(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)
	l.WithComponent("gen").WithContract("API").WithContext("package", "api").Info("gen.start", "mode", "listen")
	l.Debug("hidden")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "gen.start", lines[0]["msg"])
	assert.Equal(t, "gen", lines[0]["component"])
	assert.Equal(t, "API", lines[0]["contract"])
	assert.Equal(t, "api", lines[0]["package"])
	assert.Equal(t, "listen", lines[0]["mode"])
}

func TestMeshLogger_WithDoesNotMutate(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)
	_ = l.WithContext("k", "v").WithComponent("dispatch")
	l.Info("plain")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.NotContains(t, lines[0], "k")
	assert.NotContains(t, lines[0], "component")
}

func TestMeshLogger_DomainRecords(t *testing.T) {
	l, buf := newBufferLogger(LogLevelDebug)
	Dispatch(l, "get_ticket", time.Millisecond, "ok", nil)
	Invocation(l, "get_ticket", time.Millisecond, true, nil)
	Generation(l, "api_stubs.gen.go", 3, time.Millisecond, nil)
	Subscription(l, "connection", false, errors.New("boom"))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 4)
	assert.Equal(t, "dispatch.call.done", lines[0]["msg"])
	assert.Equal(t, "ok", lines[0]["status"])
	assert.Equal(t, "invoke.done", lines[1]["msg"])
	assert.Equal(t, true, lines[1]["failure_branch"])
	assert.Equal(t, "gen.artifact.done", lines[2]["msg"])
	assert.EqualValues(t, 3, lines[2]["items"])
	assert.Equal(t, "events.subscription.error", lines[3]["msg"])
	assert.Equal(t, "boom", lines[3]["error"])
}

func TestMeshLogger_LevelFiltersDomainRecords(t *testing.T) {
	l, buf := newBufferLogger(LogLevelWarn)
	Dispatch(l, "get_ticket", time.Millisecond, "ok", nil)
	Invocation(l, "get_ticket", time.Millisecond, false, nil)
	Dispatch(l, "get_ticket", time.Millisecond, "error", errors.New("panic"))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "dispatch.call.error", lines[0]["msg"])
}

type recordingLogger struct {
	NoOpLogger
	msgs []string
}

func (r *recordingLogger) Debug(msg string, _ ...any) { r.msgs = append(r.msgs, "debug:"+msg) }
func (r *recordingLogger) Error(msg string, _ ...any) { r.msgs = append(r.msgs, "error:"+msg) }
func (r *recordingLogger) Info(msg string, _ ...any)  { r.msgs = append(r.msgs, "info:"+msg) }

func TestHelpers_PlainLogger(t *testing.T) {
	r := &recordingLogger{}
	Dispatch(r, "m", 0, "ok", nil)
	Invocation(r, "m", 0, false, errors.New("x"))
	Generation(r, "a", 1, 0, nil)
	Subscription(r, "e", true, nil)
	assert.Equal(t, []string{
		"debug:dispatch.call.done",
		"error:invoke.error",
		"info:gen.artifact.done",
		"debug:events.subscription",
	}, r.msgs)
}

func TestOrNoOp(t *testing.T) {
	assert.Equal(t, NoOpLogger{}, OrNoOp(nil))
	r := &recordingLogger{}
	assert.Same(t, r, OrNoOp(r))
}

func TestNewSlogLogger_TextFormat(t *testing.T) {
	l := NewSlogLogger(LogLevelDebug, "text", false)
	require.NotNil(t, l)
	assert.Equal(t, LogLevelDebug, l.level)
}
