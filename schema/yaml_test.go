package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chatYAML = `
package: api
import_path: example.com/chat/api
imports:
  core: github.com/hupe1980/ipcmesh/core
contracts:
  - name: API
    methods:
      - name: get_serialized_ticket
        doc: Returns the ticket of the local node.
        returns: core.Outcome[string, string]
      - name: broadcast_message
        params:
          - {name: message, type: Message}
        returns: core.Outcome[(), string]
      - name: reset
      - name: stats
        returns: [int]
    capabilities:
      - name: barcode
        gate: mobile
        methods:
          - name: plugin:barcode-scanner|scan
            go_name: Scan
            params:
              - {name: windowed, type: bool}
            returns: core.Outcome[string, string]
events:
  - {name: conversation, payload: "[]Message"}
  - {name: connection, payload: string, emit: false}
`

func TestParseYAML(t *testing.T) {
	def, err := ParseYAML([]byte(chatYAML))
	require.NoError(t, err)

	iface, err := def.Interface("API")
	require.NoError(t, err)
	assert.Equal(t, "api", iface.Package)
	assert.Equal(t, "example.com/chat/api", iface.ImportPath)
	assert.False(t, iface.Declared)
	require.Len(t, iface.Methods, 4)

	m := iface.Methods[0]
	assert.Equal(t, "get_serialized_ticket", m.Name)
	assert.Equal(t, "GetSerializedTicket", m.Identifier())
	assert.Equal(t, "Returns the ticket of the local node.", m.Doc)
	assert.True(t, m.Context)
	assert.Equal(t, KindOutcome, m.Return().Kind)

	assert.Equal(t, "core.Unit", iface.Methods[1].Return().Success)
	assert.Equal(t, KindUnit, iface.Methods[2].Return().Kind)
	assert.Equal(t, KindOpaque, iface.Methods[3].Return().Kind)

	require.Len(t, iface.Capabilities, 1)
	assert.Equal(t, "Scan", iface.Capabilities[0].Methods[0].Identifier())

	require.Len(t, def.Events.Events, 2)
	assert.True(t, def.Events.Events[0].EmitSide)
	assert.True(t, def.Events.Events[0].ListenSide)
	assert.False(t, def.Events.Events[1].EmitSide)
	assert.True(t, def.Events.Events[1].ListenSide)
}

func TestParseYAML_Errors(t *testing.T) {
	t.Run("unknown key", func(t *testing.T) {
		_, err := ParseYAML([]byte("contracts:\n  - name: API\n    method: []\n"))
		require.Error(t, err)
		assert.False(t, IsDefinitionError(err))
	})

	t.Run("returns mapping", func(t *testing.T) {
		_, err := ParseYAML([]byte("contracts:\n  - name: API\n    methods:\n      - name: a\n        returns: {x: y}\n"))
		require.Error(t, err)
	})

	t.Run("duplicate method", func(t *testing.T) {
		_, err := ParseYAML([]byte("contracts:\n  - name: API\n    methods:\n      - name: sync\n      - name: sync\n"))
		assert.Equal(t, CodeDuplicateMethod, DefinitionErrorCode(err))
	})

	t.Run("receiver param", func(t *testing.T) {
		_, err := ParseYAML([]byte("contracts:\n  - name: API\n    methods:\n      - name: a\n        params: [{name: s, type: Server, receiver: true}]\n"))
		assert.Equal(t, CodeReceiverParam, DefinitionErrorCode(err))
	})
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(chatYAML), 0o600))

	def, err := LoadYAML(path)
	require.NoError(t, err)
	assert.Len(t, def.Interfaces, 1)

	_, err = LoadYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
