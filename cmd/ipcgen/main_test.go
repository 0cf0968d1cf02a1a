package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ipcmesh/schema"
)

const schemaYAML = `
package: api
imports:
  core: github.com/hupe1980/ipcmesh/core
contracts:
  - name: API
    methods:
      - name: get_serialized_ticket
        returns: core.Outcome[string, string]
      - name: connect_via_serialized_ticket
        params:
          - {name: ticket, type: string}
        returns: core.Outcome[string, string]
events:
  - name: connection
    payload: string
`

func TestRun_Flags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "api.yaml")
	require.NoError(t, os.WriteFile(path, []byte(schemaYAML), 0o644))
	out := filepath.Join(dir, "api")

	require.NoError(t, run([]string{"-schema", path, "-out", out, "-prefix", "plugin:chat|"}))

	src, err := os.ReadFile(filepath.Join(out, "api_stubs.gen.go"))
	require.NoError(t, err)
	assert.Contains(t, string(src), `"plugin:chat|connect_via_serialized_ticket"`)
	assert.FileExists(t, filepath.Join(out, "events_listen.gen.go"))
}

func TestRun_Manifest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "api.yaml"), []byte(schemaYAML), 0o644))
	manifest := filepath.Join(dir, "ipcgen.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte("schema: api.yaml\noutput: gen\nmode: listen\n"), 0o644))

	require.NoError(t, run([]string{"-config", manifest}))
	assert.FileExists(t, filepath.Join(dir, "gen", "api_stubs.gen.go"))
}

func TestRun_EnvOverridesMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "api.yaml")
	require.NoError(t, os.WriteFile(path, []byte(schemaYAML), 0o644))
	t.Setenv("IPCMESH_MODE", "sideways")

	err := run([]string{"-schema", path, "-out", filepath.Join(dir, "out")})
	require.Error(t, err)
	assert.True(t, schema.IsConfigurationError(err))
	assert.NoDirExists(t, filepath.Join(dir, "out"))
}

func TestRun_MissingSchema(t *testing.T) {
	err := run([]string{"-out", t.TempDir()})
	require.Error(t, err)
	assert.True(t, schema.IsConfigurationError(err))
}
