package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ipcmesh/internal/testutil"
	"github.com/hupe1980/ipcmesh/schema"
)

func TestGenerate_BuiltDefinition(t *testing.T) {
	iface := testutil.NewInterfaceBuilder("Chat").
		Undeclared().
		Import("core", "github.com/hupe1980/ipcmesh/core").
		Method("get_serialized_ticket", "core.Outcome[string, string]").
		Method("connect_via_serialized_ticket", "core.Outcome[string, string]", testutil.P("ticket", "string")).
		Method("close", "").
		Capability("Scanner", "mobile", testutil.M("scan", "core.Outcome[string, string]", testutil.P("windowed", "bool"))).
		Build()
	def := testutil.NewDefinitionBuilder("api").
		Interface(iface).
		Event("connection", "string").
		ListenOnlyEvent("connection_type", "string").
		Build()

	g, err := New(listen(func(c *Config) {
		c.CommandPrefix = "plugin:chat|"
		c.RestrictedCapability = "mobile"
	}))
	require.NoError(t, err)
	b, err := g.Generate(Input{Definition: def})
	require.NoError(t, err)
	assert.Equal(t, []string{"chat_stubs.gen.go", "events_listen.gen.go"}, b.Names())

	stubs, ok := b.File("chat_stubs.gen.go")
	require.True(t, ok)
	src := mustParse(t, stubs)
	assert.Contains(t, src, "type Chat interface {")
	assert.Contains(t, src, `"plugin:chat|get_serialized_ticket"`)
	assert.Contains(t, src, `connectViaSerializedTicketArgs{Ticket: ticket}`)
	assert.Contains(t, src, `func Close(ctx context.Context, c core.Caller) error {`)
	// Capability commands keep their own namespace.
	assert.Contains(t, src, `"scan"`)
	assert.NotContains(t, src, `"plugin:chat|scan"`)

	events, ok := b.File("events_listen.gen.go")
	require.True(t, ok)
	src = mustParse(t, events)
	assert.Contains(t, src, `const ConnectionTypeEvent = "connection_type"`)
	assert.Contains(t, src, "func NewConnection(payload string) Connection {")
}

func TestGenerate_BuiltDefinitionEmitSkipsListenOnly(t *testing.T) {
	def := testutil.NewDefinitionBuilder("api").
		ImportPath(contractImport).
		Event("connection", "string").
		ListenOnlyEvent("connection_type", "string").
		Build()

	g, err := New(emit())
	require.NoError(t, err)
	f, err := g.Events(def)
	require.NoError(t, err)
	src := mustParse(t, f)
	assert.Contains(t, src, "ConnectionEvent")
	assert.NotContains(t, src, "ConnectionType")
}

func TestInterfaceBuilder_NoContext(t *testing.T) {
	iface := testutil.NewInterfaceBuilder("API").
		Method("count", "int").NoContext().
		Build()
	require.Len(t, iface.Methods, 1)
	assert.False(t, iface.Methods[0].Context)
	assert.Equal(t, schema.KindOpaque, iface.Methods[0].Return().Kind)
}
