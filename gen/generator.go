package gen

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hupe1980/ipcmesh/internal/util"
	"github.com/hupe1980/ipcmesh/logging"
	"github.com/hupe1980/ipcmesh/schema"
)

// Header starts every generated file. schema.ParseDir skips files carrying it.
const Header = "// Code generated by ipcgen. DO NOT EDIT."

// File is one generated Go source file.
type File struct {
	Name    string
	Package string
	Source  []byte
}

// Bundle is the output of one generation run. It is only returned when every
// artifact was produced, so writing it never leaves a partial build behind.
type Bundle struct {
	Files []File
}

// File returns the generated file with the given name.
func (b *Bundle) File(name string) (File, bool) {
	for _, f := range b.Files {
		if f.Name == name {
			return f, true
		}
	}
	return File{}, false
}

// Names returns the file names in generation order.
func (b *Bundle) Names() []string {
	out := make([]string, 0, len(b.Files))
	for _, f := range b.Files {
		out = append(out, f.Name)
	}
	return out
}

// Write stores every file in dir.
func (b *Bundle) Write(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	for _, f := range b.Files {
		if err := os.WriteFile(filepath.Join(dir, f.Name), f.Source, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.Name, err)
		}
	}
	return nil
}

// Generator turns schema definitions into Go source. It holds no mutable
// state; every method is a pure transform of its inputs and the Config.
type Generator struct {
	cfg    Config
	logger logging.Logger
}

// New validates cfg and returns a Generator. Conflicting or missing event mode
// gates fail here with *schema.ConfigurationError, before any artifact exists.
func New(optFns ...func(c *Config)) (*Generator, error) {
	cfg := DefaultConfig()
	for _, fn := range optFns {
		fn(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Generator{cfg: cfg, logger: logging.OrNoOp(cfg.Logger)}, nil
}

// Config returns the generator configuration.
func (g *Generator) Config() Config { return g.cfg }

// wireName is the identifier a contract method travels under. Capability
// methods address a host plugin and keep their name verbatim.
func (g *Generator) wireName(m schema.Method) string {
	return g.cfg.CommandPrefix + m.Name
}

// returnShape classifies m and applies the ambiguity policy: tuples are always
// rejected, other ambiguous shapes only unless Lenient is set.
func (g *Generator) returnShape(iface string, m schema.Method) (schema.ReturnShape, error) {
	shape := m.Return()
	if shape.IsTuple() {
		return shape, &schema.DefinitionError{
			Code:      schema.CodeUnsupportedReturn,
			Interface: iface,
			Method:    m.Name,
			Message:   shape.Ambiguous,
		}
	}
	if shape.IsAmbiguous() {
		if !g.cfg.Lenient {
			return shape, &schema.DefinitionError{
				Code:      schema.CodeUnsupportedReturn,
				Interface: iface,
				Method:    m.Name,
				Message:   shape.Ambiguous + "; declare core.Outcome[S, F] or enable lenient mode",
			}
		}
		g.logger.Warn("gen.return.degraded", "interface", iface, "method", m.Name, "shape", shape.String(), "reason", shape.Ambiguous)
	}
	return shape, nil
}

// errorOnly reports a degraded bare error result, which travels as an
// undifferentiated host error.
func errorOnly(shape schema.ReturnShape) bool {
	return shape.Kind == schema.KindOpaque && shape.Type == "error"
}

// resultType is the Go result of a contract method as seen from s.
func resultType(s *scope, m schema.Method, shape schema.ReturnShape) (string, error) {
	switch shape.Kind {
	case schema.KindOutcome:
		succ, err := s.contractType(shape.Success)
		if err != nil {
			return "", err
		}
		fail, err := s.contractType(shape.Failure)
		if err != nil {
			return "", err
		}
		s.use("core")
		return "core.Outcome[" + succ + ", " + fail + "]", nil
	case schema.KindOpaque:
		return s.contractType(shape.Type)
	default:
		if len(m.Results) == 1 && strings.ReplaceAll(m.Results[0], " ", "") != "()" {
			s.use("core")
			return schema.UnitType, nil
		}
		return "", nil
	}
}

func render(name, pkg string, tmpl templateName, data any) (File, error) {
	src, err := util.RenderTemplate(templates[tmpl], data)
	if err != nil {
		return File{}, err
	}
	out, err := util.FormatSource(name, src)
	if err != nil {
		return File{}, err
	}
	return File{Name: name, Package: pkg, Source: out}, nil
}

func (g *Generator) logArtifact(name string, items int, start time.Time, err error) {
	logging.Generation(g.logger, name, items, time.Since(start), err)
}

// checkCollisions fails when two generated declarations of one package share
// an identifier.
func checkCollisions(groups ...map[string]string) error {
	seen := map[string]string{}
	for _, g := range groups {
		keys := make([]string, 0, len(g))
		for k := range g {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, id := range keys {
			origin := g[id]
			if prev, ok := seen[id]; ok && prev != origin {
				return &schema.DefinitionError{Code: schema.CodeInvalidName, Message: fmt.Sprintf("generated identifier %s is declared for both %s and %s", id, prev, origin)}
			}
			seen[id] = origin
		}
	}
	return nil
}
