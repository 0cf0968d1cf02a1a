// Package capability decides which restricted capability modules a build may
// use.
//
// A platform name maps to a set of gates. Mobile targets carry the "mobile"
// gate plus one gate naming the operating system; desktop targets carry only
// "desktop". An unknown or empty platform has no gates at all, so every
// restricted module stays unavailable.
package capability

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Gate names.
const (
	Mobile  = "mobile"
	Android = "android"
	IOS     = "ios"
	Desktop = "desktop"
)

// ErrRestricted is returned when a capability module is used on a platform
// that lacks its gate.
var ErrRestricted = errors.New("capability: restricted")

// Platform is a build target and the gates it enables.
type Platform struct {
	Name  string
	gates []string
}

// ForName returns the Platform for name. Matching ignores case and
// surrounding space.
func ForName(name string) Platform {
	name = strings.ToLower(strings.TrimSpace(name))
	p := Platform{Name: name}
	switch name {
	case Android:
		p.gates = []string{Mobile, Android}
	case IOS:
		p.gates = []string{Mobile, IOS}
	case Desktop:
		p.gates = []string{Desktop}
	}
	return p
}

type platformEnv struct {
	Platform string `env:"IPCMESH_PLATFORM"`
}

// Detect reads the platform from IPCMESH_PLATFORM.
func Detect() (Platform, error) {
	var cfg platformEnv
	if err := env.Parse(&cfg); err != nil {
		return Platform{}, fmt.Errorf("parse env: %w", err)
	}
	return ForName(cfg.Platform), nil
}

// Has reports whether gate is enabled.
func (p Platform) Has(gate string) bool {
	return slices.Contains(p.gates, strings.ToLower(gate))
}

// Gates returns the enabled gates.
func (p Platform) Gates() []string { return slices.Clone(p.gates) }

// Require returns ErrRestricted unless gate is enabled.
func (p Platform) Require(gate string) error {
	if p.Has(gate) {
		return nil
	}
	name := p.Name
	if name == "" {
		name = "unknown"
	}
	return fmt.Errorf("%w: gate %q is not enabled on platform %s", ErrRestricted, gate, name)
}
