package ipcmesh

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ipcmesh/gen"
	"github.com/hupe1980/ipcmesh/schema"
)

const chatAPI = `package api

import (
	"context"

	"github.com/hupe1980/ipcmesh/core"
)

type Message struct {
	Body string
}

//ipcmesh:event conversation []Message
//ipcmesh:event connection string

//ipcmesh:contract
type API interface {
	//ipcmesh:name get_serialized_ticket
	GetSerializedTicket(ctx context.Context) core.Outcome[string, string]

	//ipcmesh:name broadcast_message
	BroadcastMessage(ctx context.Context, message Message) core.Outcome[core.Unit, string]
}
`

const chatBackend = `package backend

import (
	"context"

	"example.com/chat/api"
	"example.com/chat/host"
	"github.com/hupe1980/ipcmesh/core"
)

//ipcmesh:handler API
func GetSerializedTicket(ctx context.Context, state *host.State) core.Outcome[string, string] {
	return core.Success[string, string]("ticket")
}

//ipcmesh:handler API
func BroadcastMessage(ctx context.Context, message api.Message, state *host.State) core.Outcome[core.Unit, string] {
	return core.Success[core.Unit, string](core.Unit{})
}
`

func writeModule(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for name, src := range map[string]string{
		"go.mod":             "module example.com/chat\n\ngo 1.25\n",
		"api/api.go":         chatAPI,
		"backend/backend.go": chatBackend,
	} {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}
	return root
}

func TestGenerateFiles_ListenSide(t *testing.T) {
	root := writeModule(t)
	apiDir := filepath.Join(root, "api")

	bundle, err := GenerateFiles(Job{Schema: apiDir, Output: apiDir})
	require.NoError(t, err)
	assert.Equal(t, []string{"api_stubs.gen.go", "events_listen.gen.go"}, bundle.Names())

	stubs, err := os.ReadFile(filepath.Join(apiDir, "api_stubs.gen.go"))
	require.NoError(t, err)
	assert.Contains(t, string(stubs), `"get_serialized_ticket"`)
	assert.NotContains(t, string(stubs), "Emit(")
}

func TestGenerateFiles_EmitSide(t *testing.T) {
	root := writeModule(t)
	backendDir := filepath.Join(root, "backend")

	bundle, err := GenerateFiles(Job{
		Schema:   filepath.Join(root, "api"),
		Handlers: backendDir,
		Output:   backendDir,
	}, func(c *gen.Config) {
		c.SetMode(gen.ModeEmit)
		c.HostContextMarker = "host"
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"api_dispatch.gen.go", "events_emit.gen.go"}, bundle.Names())

	src, err := os.ReadFile(filepath.Join(backendDir, "api_dispatch.gen.go"))
	require.NoError(t, err)
	assert.Contains(t, string(src), "package backend")
	assert.Contains(t, string(src), `"example.com/chat/api"`)
	assert.Contains(t, string(src), "BroadcastMessage(ctx context.Context, message api.Message)")
}

func TestGenerateFiles_NothingWrittenOnFailure(t *testing.T) {
	root := writeModule(t)
	out := filepath.Join(root, "out")

	_, err := GenerateFiles(Job{Schema: filepath.Join(root, "api"), Output: out}, func(c *gen.Config) {
		c.EmitCapable = true
		c.ListenCapable = true
	})
	require.Error(t, err)
	assert.True(t, schema.IsConfigurationError(err))
	assert.NoDirExists(t, out)

	// Emit side without handlers cannot build the dispatch file.
	_, err = GenerateFiles(Job{Schema: filepath.Join(root, "api"), Output: out}, func(c *gen.Config) {
		c.SetMode(gen.ModeEmit)
	})
	require.Error(t, err)
	assert.NoDirExists(t, out)
}

func TestLoadDefinition_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
package: api
imports:
  core: github.com/hupe1980/ipcmesh/core
contracts:
  - name: API
    methods:
      - name: get_serialized_ticket
        returns: core.Outcome[string, string]
events:
  - name: connection
    payload: string
`), 0o644))

	def, err := LoadDefinition(path)
	require.NoError(t, err)
	require.Len(t, def.Interfaces, 1)
	assert.Equal(t, []string{"connection"}, def.Events.Names())

	bundle, err := Generate(def, "", nil)
	require.NoError(t, err)
	_, ok := bundle.File("api_stubs.gen.go")
	assert.True(t, ok)
}
