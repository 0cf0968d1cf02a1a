package schema

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/mod/modfile"

	"github.com/hupe1980/ipcmesh/internal/util"
)

// DirectivePrefix starts every ipcmesh source directive.
const DirectivePrefix = "//ipcmesh:"

// Directive names.
const (
	DirectiveContract   = "contract"
	DirectiveCapability = "capability"
	DirectiveName       = "name"
	DirectiveEvent      = "event"
	DirectiveHandler    = "handler"
)

// Event directive side flags.
const (
	EmitOnly   = "emit-only"
	ListenOnly = "listen-only"
)

type directive struct {
	name string
	args []string
	pos  token.Pos
}

func directives(cg *ast.CommentGroup) []directive {
	if cg == nil {
		return nil
	}
	var out []directive
	for _, c := range cg.List {
		if d, ok := parseDirective(c); ok {
			out = append(out, d)
		}
	}
	return out
}

func parseDirective(c *ast.Comment) (directive, bool) {
	if !strings.HasPrefix(c.Text, DirectivePrefix) {
		return directive{}, false
	}
	fields := strings.Fields(strings.TrimPrefix(c.Text, DirectivePrefix))
	if len(fields) == 0 {
		return directive{}, false
	}
	return directive{name: fields[0], args: fields[1:], pos: c.Slash}, true
}

func lookup(dirs []directive, name string) (directive, bool) {
	for _, d := range dirs {
		if d.name == name {
			return d, true
		}
	}
	return directive{}, false
}

type sourceFile struct {
	fset    *token.FileSet
	file    *ast.File
	imports map[string]string
}

func (f *sourceFile) position(p token.Pos) string {
	return f.fset.Position(p).String()
}

// ParseDir loads the contracts, capability modules and events declared in the
// Go package in dir. Test files and generated files are ignored. The import
// path is resolved from the enclosing go.mod when there is one.
func ParseDir(dir string) (*Definition, error) {
	files, err := parseDir(dir)
	if err != nil {
		return nil, err
	}
	def, err := buildDefinition(files)
	if err != nil {
		return nil, err
	}
	if ip, err := ResolveImportPath(dir); err == nil {
		def.ImportPath = ip
		for _, i := range def.Interfaces {
			i.ImportPath = ip
		}
	}
	return def, nil
}

// ParseSource loads a definition from a single Go file. src may be nil, a
// string or a []byte, as for go/parser.
func ParseSource(filename string, src any) (*Definition, error) {
	f, err := parseFile(token.NewFileSet(), filename, src)
	if err != nil {
		return nil, err
	}
	return buildDefinition([]*sourceFile{f})
}

// ParseHandlers loads the handler bindings declared in the Go package in dir.
func ParseHandlers(dir string) ([]HandlerBinding, error) {
	files, err := parseDir(dir)
	if err != nil {
		return nil, err
	}
	return collectHandlers(files)
}

// ParseHandlerSource loads the handler bindings of a single Go file.
func ParseHandlerSource(filename string, src any) ([]HandlerBinding, error) {
	f, err := parseFile(token.NewFileSet(), filename, src)
	if err != nil {
		return nil, err
	}
	return collectHandlers([]*sourceFile{f})
}

// ResolveImportPath returns the import path of dir from the nearest go.mod.
func ResolveImportPath(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for cur := abs; ; cur = filepath.Dir(cur) {
		data, err := os.ReadFile(filepath.Join(cur, "go.mod"))
		if err == nil {
			mod := modfile.ModulePath(data)
			if mod == "" {
				return "", fmt.Errorf("go.mod in %s declares no module path", cur)
			}
			rel, err := filepath.Rel(cur, abs)
			if err != nil {
				return "", err
			}
			if rel == "." {
				return mod, nil
			}
			return path.Join(mod, filepath.ToSlash(rel)), nil
		}
		if filepath.Dir(cur) == cur {
			return "", fmt.Errorf("no go.mod found above %s", abs)
		}
	}
}

func parseDir(dir string) ([]*sourceFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read package directory %s: %w", dir, err)
	}
	fset := token.NewFileSet()
	var files []*sourceFile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parseFile(fset, filepath.Join(dir, name), nil)
		if err != nil {
			return nil, err
		}
		if ast.IsGenerated(f.file) {
			continue
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no Go source files in %s", dir)
	}
	pkg := files[0].file.Name.Name
	for _, f := range files[1:] {
		if f.file.Name.Name != pkg {
			return nil, fmt.Errorf("%s: found packages %s and %s", dir, pkg, f.file.Name.Name)
		}
	}
	return files, nil
}

func parseFile(fset *token.FileSet, filename string, src any) (*sourceFile, error) {
	f, err := parser.ParseFile(fset, filename, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	imports := map[string]string{}
	for _, spec := range f.Imports {
		p, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		name := ImportName(p)
		if spec.Name != nil {
			name = spec.Name.Name
		}
		if name == "_" || name == "." {
			continue
		}
		imports[name] = p
	}
	return &sourceFile{fset: fset, file: f, imports: imports}, nil
}

var (
	majorVersion  = regexp.MustCompile(`^v[0-9]+$`)
	gopkgInSuffix = regexp.MustCompile(`\.v[0-9]+$`)
)

// ImportName guesses the package name of an import path the way goimports
// does: the last element, skipping a major version suffix and trimming a
// "go-" prefix, a ".go" or "-go" suffix and a gopkg.in ".vN" suffix.
func ImportName(importPath string) string {
	elems := strings.Split(importPath, "/")
	name := elems[len(elems)-1]
	if majorVersion.MatchString(name) && len(elems) > 1 {
		name = elems[len(elems)-2]
	}
	name = strings.TrimPrefix(name, "go-")
	name = strings.TrimSuffix(name, ".go")
	name = strings.TrimSuffix(name, "-go")
	name = gopkgInSuffix.ReplaceAllString(name, "")
	return strings.ReplaceAll(name, "-", "")
}

func buildDefinition(files []*sourceFile) (*Definition, error) {
	def := &Definition{Imports: map[string]string{}}
	var caps []Capability
	for _, f := range files {
		def.Package = f.file.Name.Name
		for name, p := range f.imports {
			def.Imports[name] = p
		}

		for _, decl := range f.file.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.TYPE {
				continue
			}
			for _, spec := range gd.Specs {
				ts := spec.(*ast.TypeSpec)
				doc := ts.Doc
				if doc == nil && len(gd.Specs) == 1 {
					doc = gd.Doc
				}
				dirs := directives(doc)
				_, isContract := lookup(dirs, DirectiveContract)
				capDir, isCap := lookup(dirs, DirectiveCapability)
				if !isContract && !isCap {
					continue
				}

				it, ok := ts.Type.(*ast.InterfaceType)
				if !ok {
					return nil, &DefinitionError{Code: CodeUnsupportedMember, Interface: ts.Name.Name, Message: fmt.Sprintf("%s: directive on a non-interface type", f.position(ts.Pos()))}
				}
				methods, err := interfaceMethods(f, ts.Name.Name, it)
				if err != nil {
					return nil, err
				}

				if isCap {
					if len(capDir.args) != 1 {
						return nil, &DefinitionError{Code: CodeInvalidName, Interface: ts.Name.Name, Message: fmt.Sprintf("%s: capability directive needs exactly one gate", f.position(capDir.pos))}
					}
					caps = append(caps, Capability{Name: ts.Name.Name, Gate: capDir.args[0], Methods: methods})
					continue
				}
				def.Interfaces = append(def.Interfaces, &Interface{
					Name:     ts.Name.Name,
					Package:  f.file.Name.Name,
					Imports:  def.Imports,
					Methods:  methods,
					Declared: true,
				})
			}
		}

		events, err := eventDirectives(f)
		if err != nil {
			return nil, err
		}
		def.Events.Events = append(def.Events.Events, events...)
	}

	if len(caps) > 0 && len(def.Interfaces) == 0 {
		return nil, &DefinitionError{Code: CodeUnknownContract, Message: "capability modules need a contract to attach to"}
	}
	for _, i := range def.Interfaces {
		i.Capabilities = caps
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

func interfaceMethods(f *sourceFile, iface string, it *ast.InterfaceType) ([]Method, error) {
	var methods []Method
	for _, field := range it.Methods.List {
		ft, ok := field.Type.(*ast.FuncType)
		if !ok || len(field.Names) == 0 {
			return nil, &DefinitionError{Code: CodeUnsupportedMember, Interface: iface, Message: fmt.Sprintf("%s: embedded interfaces and type constraints are not supported", f.position(field.Pos()))}
		}
		name := field.Names[0].Name
		m := Method{Name: name, GoName: name, Doc: strings.TrimSpace(field.Doc.Text())}
		if d, ok := lookup(directives(field.Doc), DirectiveName); ok {
			if len(d.args) != 1 {
				return nil, &DefinitionError{Code: CodeInvalidName, Interface: iface, Method: name, Message: fmt.Sprintf("%s: name directive needs exactly one wire identifier", f.position(d.pos))}
			}
			m.Name = d.args[0]
		}

		params, hasCtx, err := funcParams(f, iface, m.Name, ft.Params)
		if err != nil {
			return nil, err
		}
		m.Params = params
		m.Context = hasCtx
		m.Results = fieldTypes(ft.Results)
		methods = append(methods, m)
	}
	return methods, nil
}

// funcParams expands a parameter list. A leading context.Context is the call
// context, not a contract parameter. Unnamed parameters keep an empty name so
// validation can report them.
func funcParams(f *sourceFile, iface, method string, list *ast.FieldList) ([]Param, bool, error) {
	var (
		params []Param
		hasCtx bool
		idx    int
	)
	if list == nil {
		return nil, false, nil
	}
	for _, field := range list.List {
		if _, ok := field.Type.(*ast.Ellipsis); ok {
			return nil, false, &DefinitionError{Code: CodeUnsupportedParam, Interface: iface, Method: method, Message: fmt.Sprintf("%s: variadic parameters are not supported", f.position(field.Pos()))}
		}
		typ := util.ExprString(field.Type)
		names := field.Names
		if len(names) == 0 {
			names = []*ast.Ident{{Name: ""}}
		}
		for _, n := range names {
			if isContextType(field.Type, f.imports) {
				if idx != 0 {
					return nil, false, &DefinitionError{Code: CodeUnsupportedParam, Interface: iface, Method: method, Param: n.Name, Message: "context.Context must be the first parameter"}
				}
				hasCtx = true
				idx++
				continue
			}
			params = append(params, Param{Name: n.Name, Type: typ})
			idx++
		}
	}
	return params, hasCtx, nil
}

func fieldTypes(list *ast.FieldList) []string {
	if list == nil {
		return nil
	}
	var out []string
	for _, field := range list.List {
		typ := util.ExprString(field.Type)
		n := len(field.Names)
		if n == 0 {
			n = 1
		}
		for range n {
			out = append(out, typ)
		}
	}
	return out
}

func isContextType(e ast.Expr, imports map[string]string) bool {
	sel, ok := e.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != "Context" {
		return false
	}
	id, ok := sel.X.(*ast.Ident)
	return ok && imports[id.Name] == "context"
}

func eventDirectives(f *sourceFile) ([]Event, error) {
	var events []Event
	for _, cg := range f.file.Comments {
		for _, c := range cg.List {
			d, ok := parseDirective(c)
			if !ok || d.name != DirectiveEvent {
				continue
			}
			args := d.args
			e := Event{EmitSide: true, ListenSide: true}
			if n := len(args); n > 0 {
				switch args[n-1] {
				case EmitOnly:
					e.ListenSide = false
					args = args[:n-1]
				case ListenOnly:
					e.EmitSide = false
					args = args[:n-1]
				}
			}
			if len(args) < 2 {
				return nil, &DefinitionError{Code: CodeInvalidName, Message: fmt.Sprintf("%s: event directive needs a name and a payload type", f.position(d.pos))}
			}
			e.Name = args[0]
			e.PayloadType = strings.Join(args[1:], " ")
			events = append(events, e)
		}
	}
	return events, nil
}

func collectHandlers(files []*sourceFile) ([]HandlerBinding, error) {
	var out []HandlerBinding
	for _, f := range files {
		for _, decl := range f.file.Decls {
			fd, ok := decl.(*ast.FuncDecl)
			if !ok {
				continue
			}
			d, ok := lookup(directives(fd.Doc), DirectiveHandler)
			if !ok {
				continue
			}
			if len(d.args) < 1 || len(d.args) > 2 {
				return nil, &DefinitionError{Code: CodeInvalidName, Message: fmt.Sprintf("%s: handler directive needs a contract and an optional method", f.position(d.pos))}
			}
			b := HandlerBinding{
				Contract:   d.args[0],
				MethodName: fd.Name.Name,
				FuncName:   fd.Name.Name,
				Package:    f.file.Name.Name,
				Imports:    f.imports,
			}
			if len(d.args) == 2 {
				b.MethodName = d.args[1]
			}
			if fd.Recv != nil && len(fd.Recv.List) > 0 {
				b.Receiver = util.ExprString(fd.Recv.List[0].Type)
			}
			params, hasCtx, err := funcParams(f, b.Contract, b.MethodName, fd.Type.Params)
			if err != nil {
				return nil, err
			}
			b.Params = params
			b.HasContext = hasCtx
			b.Results = fieldTypes(fd.Type.Results)
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FuncName < out[j].FuncName })
	return out, nil
}
