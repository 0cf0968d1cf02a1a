package testutil

import (
	"github.com/hupe1980/ipcmesh/schema"
)

// InterfaceBuilder provides a fluent helper for constructing contracts in
// tests. Example:
//
//	iface := NewInterfaceBuilder("API").Package("api").
//		Method("get_ticket", "core.Outcome[string, string]").
//		Build()
//
// Methods take a leading context unless NoContext is chained after them.
type InterfaceBuilder struct {
	iface schema.Interface
}

// NewInterfaceBuilder creates a builder for a declared contract named name in
// package "api".
func NewInterfaceBuilder(name string) *InterfaceBuilder {
	return &InterfaceBuilder{iface: schema.Interface{
		Name:     name,
		Package:  "api",
		Imports:  map[string]string{},
		Declared: true,
	}}
}

// Package sets the contract package name (chainable).
func (b *InterfaceBuilder) Package(pkg string) *InterfaceBuilder { b.iface.Package = pkg; return b }

// ImportPath sets the contract import path (chainable).
func (b *InterfaceBuilder) ImportPath(path string) *InterfaceBuilder {
	b.iface.ImportPath = path
	return b
}

// Import registers a package referenced by method types (chainable).
func (b *InterfaceBuilder) Import(name, path string) *InterfaceBuilder {
	b.iface.Imports[name] = path
	return b
}

// Undeclared marks the contract as not yet declared in Go source (chainable).
func (b *InterfaceBuilder) Undeclared() *InterfaceBuilder { b.iface.Declared = false; return b }

// Method appends a method with an optional single result (chainable). An
// empty result declares a method returning nothing.
func (b *InterfaceBuilder) Method(name, result string, params ...schema.Param) *InterfaceBuilder {
	b.iface.Methods = append(b.iface.Methods, newMethod(name, result, params))
	return b
}

// NoContext drops the leading context of the most recently added method
// (chainable).
func (b *InterfaceBuilder) NoContext() *InterfaceBuilder {
	if n := len(b.iface.Methods); n > 0 {
		b.iface.Methods[n-1].Context = false
	}
	return b
}

// Capability appends a gated capability module holding methods (chainable).
func (b *InterfaceBuilder) Capability(name, gate string, methods ...schema.Method) *InterfaceBuilder {
	b.iface.Capabilities = append(b.iface.Capabilities, schema.Capability{Name: name, Gate: gate, Methods: methods})
	return b
}

// Build returns a copy of the constructed contract.
func (b *InterfaceBuilder) Build() *schema.Interface {
	out := b.iface
	out.Methods = append([]schema.Method(nil), b.iface.Methods...)
	out.Capabilities = append([]schema.Capability(nil), b.iface.Capabilities...)
	out.Imports = make(map[string]string, len(b.iface.Imports))
	for k, v := range b.iface.Imports {
		out.Imports[k] = v
	}
	return &out
}

// P is shorthand for a parameter.
func P(name, typ string) schema.Param { return schema.Param{Name: name, Type: typ} }

// M is shorthand for a context-taking method, e.g. for capability modules.
func M(name, result string, params ...schema.Param) schema.Method {
	return newMethod(name, result, params)
}

func newMethod(name, result string, params []schema.Param) schema.Method {
	m := schema.Method{Name: name, Params: params, Context: true}
	if result != "" {
		m.Results = []string{result}
	}
	return m
}

// DefinitionBuilder assembles a definition from contracts and events.
type DefinitionBuilder struct {
	def schema.Definition
}

// NewDefinitionBuilder creates a builder for a definition in package pkg.
func NewDefinitionBuilder(pkg string) *DefinitionBuilder {
	return &DefinitionBuilder{def: schema.Definition{Package: pkg, Imports: map[string]string{}}}
}

// ImportPath sets the definition import path (chainable).
func (b *DefinitionBuilder) ImportPath(path string) *DefinitionBuilder {
	b.def.ImportPath = path
	return b
}

// Interface appends a contract (chainable).
func (b *DefinitionBuilder) Interface(iface *schema.Interface) *DefinitionBuilder {
	b.def.Interfaces = append(b.def.Interfaces, iface)
	return b
}

// Event appends an event available on both sides (chainable).
func (b *DefinitionBuilder) Event(name, payload string) *DefinitionBuilder {
	b.def.Events.Events = append(b.def.Events.Events, schema.Event{Name: name, PayloadType: payload, EmitSide: true, ListenSide: true})
	return b
}

// ListenOnlyEvent appends an event only the listening side declares
// (chainable).
func (b *DefinitionBuilder) ListenOnlyEvent(name, payload string) *DefinitionBuilder {
	b.def.Events.Events = append(b.def.Events.Events, schema.Event{Name: name, PayloadType: payload, ListenSide: true})
	return b
}

// Build returns the constructed definition.
func (b *DefinitionBuilder) Build() *schema.Definition {
	def := b.def
	return &def
}
