package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitHostContext(t *testing.T) {
	tests := []struct {
		name     string
		params   []Param
		marker   string
		public   []string
		injected []string
	}{
		{
			name:   "zero host params",
			params: []Param{{Name: "message", Type: "api.Message"}, {Name: "retries", Type: "int"}},
			marker: "HostState",
			public: []string{"message", "retries"},
		},
		{
			name:     "one host param",
			params:   []Param{{Name: "message", Type: "Message"}, {Name: "ctx", Type: "HostState"}},
			marker:   "HostState",
			public:   []string{"message"},
			injected: []string{"ctx"},
		},
		{
			name: "many host params",
			params: []Param{
				{Name: "app", Type: "*host.State"},
				{Name: "id", Type: "string"},
				{Name: "ref", Type: "host.Ref[int]"},
				{Name: "other", Type: "hostile.State"},
				{Name: "list", Type: "[]host.State"},
			},
			marker:   "host",
			public:   []string{"id", "other", "list"},
			injected: []string{"app", "ref"},
		},
		{
			name:   "prefix is not a segment match",
			params: []Param{{Name: "s", Type: "HostStateful"}},
			marker: "HostState",
			public: []string{"s"},
		},
		{
			name:   "empty marker",
			params: []Param{{Name: "s", Type: "HostState"}},
			public: []string{"s"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bound := SplitHostContext(HandlerBinding{Params: tt.params}, tt.marker)

			var public, injected []string
			for _, p := range bound.Public {
				public = append(public, p.Name)
			}
			for _, p := range bound.Injected {
				injected = append(injected, p.Name)
				assert.Equal(t, "_"+p.Name, p.Binding)
			}
			assert.Equal(t, tt.public, public)
			assert.Equal(t, tt.injected, injected)
			assert.Len(t, bound.Params, len(tt.params))
		})
	}
}

func TestBoundHandler_CallArgs(t *testing.T) {
	b := SplitHostContext(HandlerBinding{Params: []Param{
		{Name: "message", Type: "Message"},
		{Name: "ctx", Type: "HostState"},
		{Name: "n", Type: "int"},
	}}, "HostState")
	assert.Equal(t, []string{"message", "h._ctx", "n"}, b.CallArgs("h"))
}

func TestValidateBindings(t *testing.T) {
	iface := &Interface{Name: "API", Methods: []Method{
		{Name: "get_ticket"},
		{Name: "broadcast", Params: []Param{{Name: "message", Type: "Message"}}},
	}}
	ok := []HandlerBinding{
		{Contract: "API", MethodName: "GetTicket", FuncName: "getTicket"},
		{Contract: "API", MethodName: "broadcast", FuncName: "broadcast", Params: []Param{{Name: "message", Type: "Message"}, {Name: "ctx", Type: "HostState"}}},
		{Contract: "Other", MethodName: "Ignored", FuncName: "ignored"},
	}
	require.NoError(t, ValidateBindings(iface, ok))

	tests := []struct {
		name     string
		bindings []HandlerBinding
		code     string
	}{
		{name: "missing", bindings: ok[:1], code: CodeMissingHandler},
		{name: "unknown", bindings: append(append([]HandlerBinding{}, ok...), HandlerBinding{Contract: "API", MethodName: "Nope", FuncName: "nope"}), code: CodeUnknownHandler},
		{name: "duplicate", bindings: append(append([]HandlerBinding{}, ok...), HandlerBinding{Contract: "API", MethodName: "get_ticket", FuncName: "again"}), code: CodeDuplicateHandler},
		{name: "unnamed param", bindings: []HandlerBinding{ok[0], {Contract: "API", MethodName: "Broadcast", FuncName: "b", Params: []Param{{Type: "Message"}}}}, code: CodeUnsupportedParam},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, DefinitionErrorCode(ValidateBindings(iface, tt.bindings)))
		})
	}
}
