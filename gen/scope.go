package gen

import (
	"fmt"
	"go/token"
	"sort"
	"strings"

	"github.com/hupe1980/ipcmesh/internal/util"
	"github.com/hupe1980/ipcmesh/schema"
)

// Import paths of the runtime packages generated code depends on.
const (
	CoreImport     = "github.com/hupe1980/ipcmesh/core"
	DispatchImport = "github.com/hupe1980/ipcmesh/dispatch"
)

type importSpec struct {
	Name string // empty when the path's default name is used
	Path string
}

// scope tracks the package qualifiers one generated file refers to and turns
// them into an exact import block.
type scope struct {
	pkg   string
	alias string // contract qualifier, empty inside the contract package
	paths map[string]string
	used  map[string]bool
}

func newScope(pkg string) *scope {
	s := &scope{
		pkg:   pkg,
		paths: map[string]string{},
		used:  map[string]bool{},
	}
	s.known("context", "context")
	s.known("core", CoreImport)
	s.known("dispatch", DispatchImport)
	return s
}

// known registers a candidate qualifier. The first registration wins.
func (s *scope) known(name, path string) {
	if name == "" || path == "" {
		return
	}
	if _, ok := s.paths[name]; !ok {
		s.paths[name] = path
	}
}

func (s *scope) knownAll(imports map[string]string) {
	names := make([]string, 0, len(imports))
	for n := range imports {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		s.known(n, imports[n])
	}
}

// contract sets the qualifier for contract-local types.
func (s *scope) contract(alias, path string) {
	s.alias = alias
	if alias != "" {
		s.paths[alias] = path
	}
}

func (s *scope) use(name string) { s.used[name] = true }

// contractType normalizes expr as written in the contract package and
// qualifies it when the file lives elsewhere.
func (s *scope) contractType(expr string) (string, error) {
	expr = schema.NormalizeUnit(expr)
	out, err := util.QualifyType(expr, s.alias)
	if err != nil {
		return "", err
	}
	return out, s.track(out)
}

// localType normalizes expr as written in the output package.
func (s *scope) localType(expr string) (string, error) {
	out, err := util.NormalizeType(schema.NormalizeUnit(expr))
	if err != nil {
		return "", err
	}
	return out, s.track(out)
}

func (s *scope) track(expr string) error {
	for _, ref := range util.PackageRefs(expr) {
		if _, ok := s.paths[ref]; !ok {
			return fmt.Errorf("unknown package qualifier %q in %s", ref, expr)
		}
		s.used[ref] = true
	}
	return nil
}

func (s *scope) imports() []importSpec {
	var out []importSpec
	for name := range s.used {
		path := s.paths[name]
		spec := importSpec{Path: path}
		if schema.ImportName(path) != name {
			spec.Name = name
		}
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// reserved returns the identifiers a generated body needs besides params.
func (s *scope) reserved(extra ...string) map[string]bool {
	r := map[string]bool{}
	for name := range s.paths {
		r[name] = true
	}
	for _, e := range extra {
		r[e] = true
	}
	return r
}

// localName keeps a parameter name unless it is a keyword or collides with a
// reserved identifier of the generated body.
func localName(name string, reserved map[string]bool) string {
	for token.IsKeyword(name) || reserved[name] {
		name += "_"
	}
	return name
}

func isIdent(s string) bool { return util.IsIdentifier(s) }

// docLines renders doc text as line comments.
func docLines(doc string) []string {
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return nil
	}
	var out []string
	for _, l := range strings.Split(doc, "\n") {
		l = strings.TrimRight(l, " \t")
		if l == "" {
			out = append(out, "//")
			continue
		}
		out = append(out, "// "+l)
	}
	return out
}
