package gen

import (
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/ipcmesh/internal/util"
	"github.com/hupe1980/ipcmesh/schema"
)

type implField struct {
	Name string
	Type string
}

type implMethod struct {
	Name   string
	Params string
	Result string
	Return bool
	Call   string

	Wire          string
	Record        record
	Adapter       string
	ClosureResult string
	ClosureReturn bool
	Invoke        string
}

type dispatchFileData struct {
	Header       string
	Package      string
	Imports      []importSpec
	Impl         string
	Contract     string
	ContractName string
	Returns      string
	Assert       bool
	Fields       []implField
	Methods      []implMethod
	HostParams   string
	HostInit     string
}

// DispatchFileName is the name of the callee-side file of a contract.
func DispatchFileName(contract string) string {
	return strings.ToLower(contract) + "_dispatch.gen.go"
}

// Dispatch renders the callee side of iface: an implementor delegating every
// contract method to its bound handler, and a registration function binding
// the implementor to a dispatch.Router.
//
// Handler parameters whose type carries the host context marker are removed
// from the public signature. Their values are supplied once to New<Contract>
// and Register<Contract> and passed to the handler on every call. Nothing
// else is removed.
func (g *Generator) Dispatch(iface *schema.Interface, bindings []schema.HandlerBinding) (File, error) {
	start := time.Now()
	name := DispatchFileName(iface.Name)
	f, ids, err := g.dispatch(iface, bindings)
	g.logArtifact(name, len(ids), start, err)
	return f, err
}

func (g *Generator) dispatch(iface *schema.Interface, bindings []schema.HandlerBinding) (File, map[string]string, error) {
	if err := iface.Validate(); err != nil {
		return File{}, nil, err
	}
	if err := schema.ValidateBindings(iface, bindings); err != nil {
		return File{}, nil, err
	}

	var bound []schema.HandlerBinding
	byMethod := map[string]schema.HandlerBinding{}
	for _, b := range bindings {
		if b.Contract != iface.Name {
			continue
		}
		m, _ := iface.Method(b.MethodName)
		byMethod[m.Identifier()] = b
		bound = append(bound, b)
	}

	pkg := g.cfg.Package
	if pkg == "" && len(bound) > 0 {
		pkg = bound[0].Package
	}
	if pkg == "" {
		pkg = iface.Package
	}
	if pkg == "" {
		return File{}, nil, &schema.ConfigurationError{Option: "package", Message: "no package name for the dispatch file"}
	}

	s := newScope(pkg)
	s.knownAll(iface.Imports)
	importPath := iface.ImportPath
	if g.cfg.ContractImport != "" {
		importPath = g.cfg.ContractImport
	}
	for _, b := range bound {
		s.knownAll(b.Imports)
	}
	if err := g.contractScope(s, iface.Package, importPath); err != nil {
		return File{}, nil, err
	}
	// Handlers may import the contract package under another name.
	if s.alias != "" && g.cfg.ContractAlias == "" {
		if alias, ok := handlerAlias(bound, importPath); ok && alias != s.alias {
			s.contract(alias, importPath)
		}
	}

	contractName := util.ExportedName(iface.Name)
	if isIdent(iface.Name) {
		contractName = iface.Name
	}
	data := dispatchFileData{
		Header:       Header,
		Package:      pkg,
		Impl:         util.UnexportedName(iface.Name) + "Impl",
		ContractName: contractName,
		Assert:       iface.Declared,
	}
	data.Contract = contractName
	if s.alias != "" {
		data.Contract = s.alias + "." + contractName
	}
	data.Returns = "*" + data.Impl
	if data.Assert {
		data.Returns = data.Contract
		// The assertion and the constructor name the contract even when no
		// method signature does.
		if s.alias != "" {
			s.use(s.alias)
		}
	}

	ids := map[string]string{data.Impl: "implementor"}
	ids["New"+contractName] = "constructor"
	ids["Register"+contractName] = "registration"
	reserved := s.reserved("impl", "req", "r", "ctx")
	fieldsByType := map[string]string{}
	fieldNames := map[string]bool{}

	s.use("context")
	s.use("dispatch")

	for _, m := range iface.Methods {
		b := byMethod[m.Identifier()]
		split := schema.SplitHostContext(b, g.cfg.HostContextMarker)
		mismatch := func(format string, args ...any) error {
			return &schema.DefinitionError{Code: schema.CodeSignatureMismatch, Interface: iface.Name, Method: m.Name, Message: fmt.Sprintf("handler %s: ", b.FuncName) + fmt.Sprintf(format, args...)}
		}

		if b.HasContext && !m.Context {
			return File{}, nil, mismatch("takes a context the contract method does not declare")
		}
		if len(split.Public) != len(m.Params) {
			return File{}, nil, mismatch("has %d public parameters, the contract method declares %d", len(split.Public), len(m.Params))
		}
		for _, p := range split.Public {
			if reserved[p.Name] {
				return File{}, nil, &schema.DefinitionError{Code: schema.CodeUnsupportedParam, Interface: iface.Name, Method: m.Name, Param: p.Name, Message: fmt.Sprintf("handler %s: %q is a reserved name in generated code", b.FuncName, p.Name)}
			}
		}

		shape, err := g.returnShape(iface.Name, m)
		if err != nil {
			return File{}, nil, err
		}

		goName := m.Identifier()
		reqType := util.UnexportedName(goName) + "Request"
		origin := fmt.Sprintf("method %q", m.Name)
		ids[reqType] = origin

		im := implMethod{
			Name:   goName,
			Wire:   g.wireName(m),
			Record: record{Type: reqType},
		}

		var params, reqArgs []string
		if m.Context {
			params = append(params, "ctx context.Context")
			reqArgs = append(reqArgs, "ctx")
		}
		for i, p := range split.Public {
			want, err := s.contractType(m.Params[i].Type)
			if err != nil {
				return File{}, nil, &schema.DefinitionError{Code: schema.CodeInvalidType, Interface: iface.Name, Method: m.Name, Param: m.Params[i].Name, Message: err.Error()}
			}
			got, err := s.localType(p.Type)
			if err != nil {
				return File{}, nil, &schema.DefinitionError{Code: schema.CodeInvalidType, Interface: iface.Name, Method: m.Name, Param: p.Name, Message: err.Error()}
			}
			if got != want {
				return File{}, nil, mismatch("parameter %s has type %s, the contract declares %s", p.Name, got, want)
			}
			fieldName := util.ExportedName(m.Params[i].Name)
			im.Record.Fields = append(im.Record.Fields, field{Name: fieldName, Type: want, Tag: util.WireCase(m.Params[i].Name)})
			params = append(params, p.Name+" "+want)
			reqArgs = append(reqArgs, "req."+fieldName)
		}
		im.Params = strings.Join(params, ", ")

		for i, inj := range split.Injected {
			typ, err := s.localType(inj.Type)
			if err != nil {
				return File{}, nil, &schema.DefinitionError{Code: schema.CodeInvalidType, Interface: iface.Name, Method: m.Name, Param: inj.Name, Message: err.Error()}
			}
			name, ok := fieldsByType[typ]
			if !ok {
				name = "_" + inj.Name
				for n := 2; fieldNames[name]; n++ {
					name = fmt.Sprintf("_%s%d", inj.Name, n)
				}
				fieldsByType[typ] = name
				fieldNames[name] = true
				data.Fields = append(data.Fields, implField{Name: name, Type: typ})
			}
			split.Injected[i].Binding = name
		}

		result, err := resultType(s, m, shape)
		if err != nil {
			return File{}, nil, &schema.DefinitionError{Code: schema.CodeInvalidType, Interface: iface.Name, Method: m.Name, Message: err.Error()}
		}
		switch {
		case result == "" && len(b.Results) != 0:
			return File{}, nil, mismatch("returns %s, the contract method returns nothing", strings.Join(b.Results, ", "))
		case result != "" && len(b.Results) != 1:
			return File{}, nil, mismatch("must return exactly %s", result)
		case result != "":
			got, err := s.localType(b.Results[0])
			if err != nil {
				return File{}, nil, &schema.DefinitionError{Code: schema.CodeInvalidType, Interface: iface.Name, Method: m.Name, Message: err.Error()}
			}
			if got != result {
				return File{}, nil, mismatch("returns %s, the contract declares %s", got, result)
			}
		}

		args := split.CallArgs("impl")
		if b.HasContext {
			args = append([]string{"ctx"}, args...)
		}
		im.Call = b.FuncName + "(" + strings.Join(args, ", ") + ")"
		im.Invoke = "impl." + goName + "(" + strings.Join(reqArgs, ", ") + ")"
		if result != "" {
			im.Result = " " + result
			im.Return = true
			im.ClosureResult = " " + result
			im.ClosureReturn = true
		}
		switch {
		case shape.Kind == schema.KindOutcome:
			im.Adapter = "dispatch.Outcome"
		case errorOnly(shape):
			im.Adapter = "dispatch.Func"
		case result == "":
			im.Adapter = "dispatch.Unit"
		default:
			im.Adapter = "dispatch.Value"
		}
		data.Methods = append(data.Methods, im)
	}

	var hostParams, hostInit []string
	for _, f := range data.Fields {
		local := localName(strings.TrimLeft(f.Name, "_"), reserved)
		hostParams = append(hostParams, local+" "+f.Type)
		hostInit = append(hostInit, f.Name+": "+local)
	}
	data.HostParams = strings.Join(hostParams, ", ")
	data.HostInit = strings.Join(hostInit, ", ")
	data.Imports = s.imports()

	f, err := render(DispatchFileName(iface.Name), pkg, dispatchTemplate, data)
	return f, ids, err
}

// handlerAlias returns the name the handler files import the contract
// package under, if they agree on one.
func handlerAlias(bindings []schema.HandlerBinding, importPath string) (string, bool) {
	alias := ""
	for _, b := range bindings {
		for name, p := range b.Imports {
			if p != importPath {
				continue
			}
			if alias != "" && alias != name {
				return "", false
			}
			alias = name
		}
	}
	return alias, alias != ""
}
