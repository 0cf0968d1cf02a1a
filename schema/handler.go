package schema

import (
	"fmt"

	"github.com/hupe1980/ipcmesh/internal/util"
)

// HandlerBinding is a concrete callee-side implementation of one contract
// method. Params is the full parameter list, host-context parameters included.
type HandlerBinding struct {
	Contract   string
	MethodName string
	FuncName   string
	// Package is the Go package name the handler function lives in.
	Package string
	// Imports of the handler's file, used to resolve host-context types.
	Imports map[string]string

	Params     []Param
	Results    []string
	HasContext bool
	// Receiver is set when the handler was declared as a method.
	Receiver string
}

// InjectedParam is a host-context parameter removed from the public signature.
type InjectedParam struct {
	Param
	// Index is the position in the full parameter list.
	Index int
	// Binding is the discarded name the value is bound to inside the
	// generated implementor ("_" + Name).
	Binding string
}

// BoundHandler is a handler split into its public contract signature and the
// host-owned values captured by the generated implementor.
type BoundHandler struct {
	HandlerBinding
	Public   []Param
	Injected []InjectedParam
}

// CallArgs returns the argument expressions of the delegating call in the
// handler's declared order. Public parameters are referenced by name and
// injected ones through recv.
func (b BoundHandler) CallArgs(recv string) []string {
	injected := map[int]InjectedParam{}
	for _, p := range b.Injected {
		injected[p.Index] = p
	}
	args := make([]string, 0, len(b.Params))
	for i, p := range b.Params {
		if inj, ok := injected[i]; ok {
			args = append(args, recv+"."+inj.Binding)
			continue
		}
		args = append(args, p.Name)
	}
	return args
}

// SplitHostContext strips exactly the parameters whose type has marker as its
// leading name segment ("*host.State" has "host", "HostState" has
// "HostState") from the public signature. Stripped parameters are kept as
// injected values bound to a discarded name. An empty marker strips nothing.
func SplitHostContext(b HandlerBinding, marker string) BoundHandler {
	out := BoundHandler{HandlerBinding: b}
	for i, p := range b.Params {
		if marker != "" && util.LeadingSegment(p.Type) == marker {
			out.Injected = append(out.Injected, InjectedParam{Param: p, Index: i, Binding: "_" + p.Name})
			continue
		}
		out.Public = append(out.Public, p)
	}
	return out
}

// ValidateBindings checks that handlers bind every contract method exactly
// once, that no handler is a method, and that parameter names are simple.
func ValidateBindings(iface *Interface, handlers []HandlerBinding) error {
	byMethod := map[string]HandlerBinding{}
	for _, h := range handlers {
		if h.Contract != iface.Name {
			continue
		}
		if h.Receiver != "" {
			return &DefinitionError{Code: CodeReceiverParam, Interface: iface.Name, Method: h.MethodName, Param: h.Receiver, Message: fmt.Sprintf("handler %s must be a plain function, not a method", h.FuncName)}
		}
		m, ok := iface.Method(h.MethodName)
		if !ok {
			return &DefinitionError{Code: CodeUnknownHandler, Interface: iface.Name, Method: h.MethodName, Message: fmt.Sprintf("handler %s binds a method the contract does not declare", h.FuncName)}
		}
		if prev, ok := byMethod[m.Identifier()]; ok {
			return &DefinitionError{Code: CodeDuplicateHandler, Interface: iface.Name, Method: m.Name, Message: fmt.Sprintf("bound by both %s and %s", prev.FuncName, h.FuncName)}
		}
		byMethod[m.Identifier()] = h

		seen := map[string]bool{}
		for _, p := range h.Params {
			if !util.IsIdentifier(p.Name) {
				return &DefinitionError{Code: CodeUnsupportedParam, Interface: iface.Name, Method: h.MethodName, Param: p.Name, Message: fmt.Sprintf("handler %s: parameter must be bound to a simple name", h.FuncName)}
			}
			if seen[p.Name] {
				return &DefinitionError{Code: CodeDuplicateParam, Interface: iface.Name, Method: h.MethodName, Param: p.Name, Message: fmt.Sprintf("handler %s: parameter declared more than once", h.FuncName)}
			}
			seen[p.Name] = true
		}
	}
	for _, m := range iface.Methods {
		if _, ok := byMethod[m.Identifier()]; !ok {
			return &DefinitionError{Code: CodeMissingHandler, Interface: iface.Name, Method: m.Name, Message: "no handler bound"}
		}
	}
	return nil
}
