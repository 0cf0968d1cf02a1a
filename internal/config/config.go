// Package config loads the generator manifest used by cmd/ipcgen.
//
// A manifest is a YAML document naming the schema source, the side to build
// and where to write the result. Every generator option of gen.Config may
// appear inline. Environment variables override the manifest:
//
//	IPCMESH_MODE             emit | listen
//	IPCMESH_COMMAND_PREFIX   wire prefix of contract methods
//	IPCMESH_CAPABILITY       restricted capability gate
//	IPCMESH_HOST_MARKER      host-context type marker
//	IPCMESH_LENIENT          degrade ambiguous returns instead of failing
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/ipcmesh/gen"
	"github.com/hupe1980/ipcmesh/schema"
)

// Manifest describes one generation job.
type Manifest struct {
	// Mode selects the side, "emit" or "listen". It takes precedence over the
	// emit_capable and listen_capable gates when set.
	Mode string `yaml:"mode"`
	// Schema is a YAML schema file or a directory of Go contract source.
	Schema string `yaml:"schema"`
	// Contract names the contract to build when the schema holds several.
	Contract string `yaml:"contract"`
	// Handlers is the directory of callee handler functions. Only the emit
	// side reads it.
	Handlers string `yaml:"handlers"`
	// Output is the directory generated files are written to.
	Output string `yaml:"output"`

	Generator gen.Config `yaml:",inline"`
}

type envOverrides struct {
	Mode          string  `env:"IPCMESH_MODE"`
	CommandPrefix *string `env:"IPCMESH_COMMAND_PREFIX"`
	Capability    *string `env:"IPCMESH_CAPABILITY"`
	HostMarker    *string `env:"IPCMESH_HOST_MARKER"`
	Lenient       *bool   `env:"IPCMESH_LENIENT"`
}

// Default returns an empty listen-side manifest writing next to the schema.
func Default() *Manifest {
	return &Manifest{Generator: gen.DefaultConfig()}
}

// Load reads the manifest at path. Relative paths inside it are resolved
// against the manifest's directory.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest %s: %w", path, err)
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	m.resolve(filepath.Dir(path))
	return m, nil
}

// Parse decodes a manifest. Unknown keys are rejected; an empty document
// yields Default.
func Parse(r io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m := Default()
	m.Generator.ListenCapable = false

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	// A manifest naming neither a gate nor a mode stays on the listen side.
	if m.Mode == "" && !m.Generator.EmitCapable && !m.Generator.ListenCapable {
		m.Generator.ListenCapable = true
	}
	return m, nil
}

func (m *Manifest) resolve(base string) {
	for _, p := range []*string{&m.Schema, &m.Handlers, &m.Output} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

// ApplyEnv overrides the manifest from the process environment.
func (m *Manifest) ApplyEnv() error {
	return m.applyEnv(env.Options{})
}

// ApplyEnvFrom overrides the manifest from environ instead of the process
// environment.
func (m *Manifest) ApplyEnvFrom(environ map[string]string) error {
	return m.applyEnv(env.Options{Environment: environ})
}

func (m *Manifest) applyEnv(opts env.Options) error {
	var o envOverrides
	if err := env.ParseWithOptions(&o, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if o.Mode != "" {
		m.Mode = o.Mode
	}
	if o.CommandPrefix != nil {
		m.Generator.CommandPrefix = *o.CommandPrefix
	}
	if o.Capability != nil {
		m.Generator.RestrictedCapability = *o.Capability
	}
	if o.HostMarker != nil {
		m.Generator.HostContextMarker = *o.HostMarker
	}
	if o.Lenient != nil {
		m.Generator.Lenient = *o.Lenient
	}
	return nil
}

// Config returns the generator configuration with Mode applied. Gate
// conflicts are left for gen.New to report.
func (m *Manifest) Config() (gen.Config, error) {
	cfg := m.Generator
	if m.Mode != "" {
		mode, ok := gen.ParseMode(m.Mode)
		if !ok {
			return gen.Config{}, &schema.ConfigurationError{Option: "mode", Message: fmt.Sprintf("unknown mode %q; use emit or listen", m.Mode)}
		}
		cfg.SetMode(mode)
	}
	return cfg, nil
}

// Validate checks that the manifest names a schema and an output.
func (m *Manifest) Validate() error {
	switch {
	case m.Schema == "":
		return &schema.ConfigurationError{Option: "schema", Message: "no schema source given"}
	case m.Output == "":
		return &schema.ConfigurationError{Option: "output", Message: "no output directory given"}
	}
	_, err := m.Config()
	return err
}
