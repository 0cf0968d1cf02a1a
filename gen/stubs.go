package gen

import (
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/ipcmesh/internal/util"
	"github.com/hupe1980/ipcmesh/schema"
)

type field struct {
	Name string
	Type string
	Tag  string
}

type record struct {
	Type   string
	Fields []field
}

type stubData struct {
	Name   string
	Wire   string
	Doc    []string
	Record record
	Params string
	Values string
	Result string
	Call   string
}

type contractData struct {
	Name    string
	Doc     []string
	Methods []string
}

type stubFileData struct {
	Header   string
	Package  string
	Imports  []importSpec
	Contract *contractData
	Stubs    []stubData
}

// StubsFileName is the name of the caller-side file of a contract.
func StubsFileName(contract string) string {
	return strings.ToLower(contract) + "_stubs.gen.go"
}

// Stubs renders one caller-side function per contract method, plus the
// methods of the capability module enabled by RestrictedCapability.
//
// Every stub builds an argument record (fields in declaration order, wire-cased
// json tags) and calls the transport under the method's wire identifier:
// Outcome methods through core.InvokeOutcome, so both branches are decoded as
// values; all others through the plain path, which never decodes a failure.
func (g *Generator) Stubs(iface *schema.Interface) (File, error) {
	start := time.Now()
	name := StubsFileName(iface.Name)
	f, ids, err := g.stubs(iface)
	g.logArtifact(name, len(ids), start, err)
	return f, err
}

func (g *Generator) stubs(iface *schema.Interface) (File, map[string]string, error) {
	if err := iface.Validate(); err != nil {
		return File{}, nil, err
	}

	methods := append([]schema.Method(nil), iface.Methods...)
	gates := map[string]string{}
	if gate := g.cfg.RestrictedCapability; gate != "" {
		c, ok := iface.Capability(gate)
		if !ok {
			return File{}, nil, &schema.ConfigurationError{Option: "restricted_capability", Message: fmt.Sprintf("contract %s has no capability module gated by %q", iface.Name, gate)}
		}
		for _, m := range c.Methods {
			gates[m.Name] = gate
		}
		methods = append(methods, c.Methods...)
	}

	pkg := g.cfg.Package
	if pkg == "" {
		pkg = iface.Package
	}
	if pkg == "" {
		return File{}, nil, &schema.ConfigurationError{Option: "package", Message: "no package name for the stubs file"}
	}

	s := newScope(pkg)
	s.knownAll(iface.Imports)
	if err := g.contractScope(s, iface.Package, iface.ImportPath); err != nil {
		return File{}, nil, err
	}

	data := stubFileData{Header: Header, Package: pkg}
	ids := map[string]string{}
	var contractMethods []string

	for _, m := range methods {
		goName := m.Identifier()
		origin := fmt.Sprintf("method %q", m.Name)
		if _, dup := ids[goName]; dup {
			return File{}, nil, &schema.DefinitionError{Code: schema.CodeDuplicateMethod, Interface: iface.Name, Method: m.Name, Message: fmt.Sprintf("capability method collides with %s", goName)}
		}
		argsType := util.UnexportedName(goName) + "Args"
		ids[goName] = origin
		ids[argsType] = origin

		shape, err := g.returnShape(iface.Name, m)
		if err != nil {
			return File{}, nil, err
		}

		reserved := s.reserved("c", "ctx")
		wire := g.wireName(m)
		if _, gated := gates[m.Name]; gated {
			wire = m.Name
		}
		stub := stubData{
			Name:   goName,
			Wire:   wire,
			Record: record{Type: argsType},
		}
		var params, values []string
		for _, p := range m.Params {
			typ, err := s.contractType(p.Type)
			if err != nil {
				return File{}, nil, &schema.DefinitionError{Code: schema.CodeInvalidType, Interface: iface.Name, Method: m.Name, Param: p.Name, Message: err.Error()}
			}
			local := localName(p.Name, reserved)
			fieldName := util.ExportedName(p.Name)
			stub.Record.Fields = append(stub.Record.Fields, field{Name: fieldName, Type: typ, Tag: util.WireCase(p.Name)})
			params = append(params, local+" "+typ)
			values = append(values, fieldName+": "+local)
		}
		if len(params) > 0 {
			stub.Params = ", " + strings.Join(params, ", ")
		}
		stub.Values = strings.Join(values, ", ")

		result, err := resultType(s, m, shape)
		if err != nil {
			return File{}, nil, &schema.DefinitionError{Code: schema.CodeInvalidType, Interface: iface.Name, Method: m.Name, Message: err.Error()}
		}
		switch {
		case shape.Kind == schema.KindOutcome:
			stub.Result = "(" + result + ", error)"
			stub.Call = strings.Replace(result, "core.Outcome", "core.InvokeOutcome", 1)
		case shape.Kind == schema.KindUnit || errorOnly(shape):
			stub.Result = "error"
			stub.Call = "core.InvokeUnit"
		default:
			stub.Result = "(" + result + ", error)"
			stub.Call = "core.Invoke[" + result + "]"
		}

		stub.Doc = docLines(fmt.Sprintf("%s invokes %q.", goName, stub.Wire))
		if gate, ok := gates[m.Name]; ok {
			stub.Doc = append(stub.Doc, docLines(fmt.Sprintf("Only available with the %q capability.", gate))...)
		}
		if extra := docLines(m.Doc); len(extra) > 0 {
			stub.Doc = append(append(stub.Doc, "//"), extra...)
		}
		data.Stubs = append(data.Stubs, stub)

		if _, gated := gates[m.Name]; !iface.Declared && !gated {
			sig := goName + "(ctx context.Context" + stub.Params + ")"
			if result != "" {
				sig += " " + result
			}
			contractMethods = append(contractMethods, sig)
		}
		s.use("context")
		s.use("core")
	}

	if !iface.Declared {
		data.Contract = &contractData{
			Name:    iface.Name,
			Doc:     docLines(fmt.Sprintf("%s is the contract shared by the caller and the callee.", iface.Name)),
			Methods: contractMethods,
		}
		ids[iface.Name] = "contract"
	}
	data.Imports = s.imports()

	f, err := render(StubsFileName(iface.Name), pkg, stubsTemplate, data)
	return f, ids, err
}

// contractScope makes contract-local types resolvable from s. Inside the
// contract package nothing changes; elsewhere types are qualified with the
// contract alias and the contract package is imported.
func (g *Generator) contractScope(s *scope, contractPkg, importPath string) error {
	if s.pkg == contractPkg && g.cfg.ContractAlias == "" {
		return nil
	}
	alias := g.cfg.ContractAlias
	if alias == "" {
		alias = contractPkg
	}
	if g.cfg.ContractImport != "" {
		importPath = g.cfg.ContractImport
	}
	if importPath == "" {
		return &schema.ConfigurationError{Option: "contract_import", Message: fmt.Sprintf("package %s is generated outside contract package %s, but the contract import path is unknown", s.pkg, contractPkg)}
	}
	if alias == "" {
		alias = schema.ImportName(importPath)
	}
	s.contract(alias, importPath)
	return nil
}
