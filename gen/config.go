package gen

import (
	"strings"

	"github.com/hupe1980/ipcmesh/logging"
	"github.com/hupe1980/ipcmesh/schema"
)

// Mode names one side of the event boundary.
type Mode string

const (
	// ModeEmit builds the callee side: dispatch registration and emitting events.
	ModeEmit Mode = "emit"
	// ModeListen builds the caller side: stubs and listening events.
	ModeListen Mode = "listen"
)

// ParseMode maps a manifest value to a Mode. It accepts the short names and
// the "-capable" spellings.
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "emit", "emit-capable", "emit_capable", "callee":
		return ModeEmit, true
	case "listen", "listen-capable", "listen_capable", "caller":
		return ModeListen, true
	}
	return "", false
}

// Config is the build-time configuration of one generation run.
type Config struct {
	// EmitCapable and ListenCapable are the mutually exclusive event mode
	// gates. Exactly one must be set.
	EmitCapable   bool `yaml:"emit_capable"`
	ListenCapable bool `yaml:"listen_capable"`

	// CommandPrefix is prepended to every method wire identifier.
	CommandPrefix string `yaml:"command_prefix"`

	// RestrictedCapability enables the capability module with this gate.
	RestrictedCapability string `yaml:"restricted_capability"`

	// HostContextMarker is the leading type-name segment identifying
	// host-injected handler parameters.
	HostContextMarker string `yaml:"host_context_marker"`

	// Package overrides the package clause of generated files.
	Package string `yaml:"package"`

	// ContractImport overrides the import path of the contract package.
	ContractImport string `yaml:"contract_import"`

	// ContractAlias qualifies contract types in files generated outside the
	// contract package. Defaults to the contract package name.
	ContractAlias string `yaml:"contract_alias"`

	// Lenient degrades ambiguous return shapes to the plain invoke path
	// instead of rejecting them. Tuples are always rejected.
	Lenient bool `yaml:"lenient"`

	Logger logging.Logger `yaml:"-"`
}

// DefaultConfig returns a listen-side configuration.
func DefaultConfig() Config {
	return Config{
		ListenCapable: true,
		Logger:        logging.NoOpLogger{},
	}
}

// SetMode sets exactly the gate of m.
func (c *Config) SetMode(m Mode) {
	c.EmitCapable = m == ModeEmit
	c.ListenCapable = m == ModeListen
}

// Mode returns the active side. Call Validate first.
func (c Config) Mode() Mode {
	if c.EmitCapable {
		return ModeEmit
	}
	return ModeListen
}

// Validate enforces that exactly one event mode gate is active.
func (c Config) Validate() error {
	switch {
	case c.EmitCapable && c.ListenCapable:
		return &schema.ConfigurationError{Option: "emit_capable,listen_capable", Message: "both event mode gates are enabled; enable exactly one"}
	case !c.EmitCapable && !c.ListenCapable:
		return &schema.ConfigurationError{Option: "emit_capable,listen_capable", Message: "no event mode gate is enabled; enable exactly one"}
	}
	if c.HostContextMarker != "" && !isIdent(c.HostContextMarker) {
		return &schema.ConfigurationError{Option: "host_context_marker", Message: "marker must be a single identifier segment"}
	}
	if c.ContractAlias != "" && !isIdent(c.ContractAlias) {
		return &schema.ConfigurationError{Option: "contract_alias", Message: "alias must be an identifier"}
	}
	return nil
}
