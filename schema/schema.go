package schema

import (
	"fmt"
	"sort"

	"github.com/hupe1980/ipcmesh/internal/util"
)

// ReturnKind classifies the declared return shape of a method.
type ReturnKind int

const (
	// KindUnit means the method returns no value.
	KindUnit ReturnKind = iota
	// KindOutcome means the method returns Outcome[S, F].
	KindOutcome
	// KindOpaque means the method returns a single plain value.
	KindOpaque
)

func (k ReturnKind) String() string {
	switch k {
	case KindUnit:
		return "Unit"
	case KindOutcome:
		return "Outcome"
	case KindOpaque:
		return "Opaque"
	default:
		return fmt.Sprintf("ReturnKind(%d)", int(k))
	}
}

// ReturnShape is the classified return of a method.
type ReturnShape struct {
	Kind ReturnKind
	// Success and Failure hold the type arguments of an Outcome.
	Success string
	Failure string
	// Type holds the value type of an Opaque shape.
	Type string
	// Results are the declared result expressions the shape was derived from.
	Results []string
	// Ambiguous is non-empty when the shape was degraded to Opaque and the
	// failure channel would not be separately decodable.
	Ambiguous string
}

// IsAmbiguous reports whether the classification lost failure information.
func (r ReturnShape) IsAmbiguous() bool { return r.Ambiguous != "" }

// IsTuple reports whether more than one result was declared.
func (r ReturnShape) IsTuple() bool { return len(r.Results) > 1 }

// ValueType is the Go type a stub returns besides error, or "" for Unit.
func (r ReturnShape) ValueType() string {
	switch r.Kind {
	case KindOutcome:
		return "core.Outcome[" + r.Success + ", " + r.Failure + "]"
	case KindOpaque:
		return r.Type
	default:
		return ""
	}
}

func (r ReturnShape) String() string {
	switch r.Kind {
	case KindOutcome:
		return fmt.Sprintf("Outcome(%s, %s)", r.Success, r.Failure)
	case KindOpaque:
		return fmt.Sprintf("Opaque(%s)", r.Type)
	default:
		return "Unit"
	}
}

// Param is one declared parameter.
type Param struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"`
	// Receiver marks an implicit receiver parameter. Contracts never allow one.
	Receiver bool `yaml:"receiver,omitempty" json:"receiver,omitempty"`
}

// Method is one operation of an interface definition.
type Method struct {
	// Name is the wire identifier, passed through verbatim.
	Name string
	// GoName is the exported Go identifier of stubs and contract methods.
	GoName  string
	Params  []Param
	Results []string
	Doc     string
	// Context reports whether the contract method takes a leading
	// context.Context. Methods of generated contracts always do.
	Context bool
}

// Return classifies the declared results.
func (m Method) Return() ReturnShape { return ClassifyReturn(m.Results) }

// Identifier returns GoName, deriving it from the wire identifier when unset.
func (m Method) Identifier() string {
	if m.GoName != "" {
		return m.GoName
	}
	return util.ExportedName(m.Name)
}

// Capability is an optional platform-specific module whose methods follow the
// stub pattern but are not part of the core interface definition.
type Capability struct {
	Name    string
	Gate    string
	Methods []Method
}

// Interface is the contract shared by the caller and the callee context.
type Interface struct {
	Name string
	// Package is the Go package name the contract lives in.
	Package string
	// ImportPath of the contract package, used by callee-side generation.
	ImportPath string
	// Imports maps local package names to import paths for the packages
	// referenced by method types.
	Imports      map[string]string
	Methods      []Method
	Capabilities []Capability
	// Declared reports whether the contract is already declared in Go source.
	// Otherwise the stub generator emits the interface type.
	Declared bool
}

// Method returns the method with the given Go or wire name.
func (i *Interface) Method(name string) (Method, bool) {
	for _, m := range i.Methods {
		if m.Identifier() == name || m.Name == name {
			return m, true
		}
	}
	return Method{}, false
}

// Capability returns the capability module with the given gate.
func (i *Interface) Capability(gate string) (Capability, bool) {
	for _, c := range i.Capabilities {
		if c.Gate == gate {
			return c, true
		}
	}
	return Capability{}, false
}

// Validate checks the structural invariants of the interface and its
// capability modules.
func (i *Interface) Validate() error {
	if !util.IsIdentifier(i.Name) {
		return &DefinitionError{Code: CodeInvalidName, Interface: i.Name, Message: "interface name is not a Go identifier"}
	}
	if err := validateMethods(i.Name, i.Methods); err != nil {
		return err
	}
	seen := map[string]bool{}
	for _, c := range i.Capabilities {
		if c.Gate == "" {
			return &DefinitionError{Code: CodeInvalidName, Interface: i.Name, Message: fmt.Sprintf("capability %q has no gate", c.Name)}
		}
		if seen[c.Gate] {
			return &DefinitionError{Code: CodeDuplicateMethod, Interface: i.Name, Message: fmt.Sprintf("capability gate %q declared twice", c.Gate)}
		}
		seen[c.Gate] = true
		if err := validateMethods(i.Name, c.Methods); err != nil {
			return err
		}
	}
	return nil
}

func validateMethods(iface string, methods []Method) error {
	wire := map[string]bool{}
	goNames := map[string]bool{}
	for _, m := range methods {
		if m.Name == "" {
			return &DefinitionError{Code: CodeInvalidName, Interface: iface, Message: "method without a name"}
		}
		if wire[m.Name] {
			return &DefinitionError{Code: CodeDuplicateMethod, Interface: iface, Method: m.Name, Message: "method name declared more than once"}
		}
		wire[m.Name] = true

		id := m.Identifier()
		if !util.IsIdentifier(id) {
			return &DefinitionError{Code: CodeInvalidName, Interface: iface, Method: m.Name, Message: fmt.Sprintf("cannot derive a Go identifier (got %q)", id)}
		}
		if goNames[id] {
			return &DefinitionError{Code: CodeDuplicateMethod, Interface: iface, Method: m.Name, Message: fmt.Sprintf("Go identifier %q declared more than once", id)}
		}
		goNames[id] = true

		if err := validateParams(iface, m.Name, m.Params); err != nil {
			return err
		}
		for _, r := range m.Results {
			if _, err := util.ParseType(NormalizeUnit(r)); err != nil && !isUnit(NormalizeUnit(r)) {
				return &DefinitionError{Code: CodeInvalidType, Interface: iface, Method: m.Name, Message: err.Error()}
			}
		}
	}
	return nil
}

func validateParams(iface, method string, params []Param) error {
	seen := map[string]bool{}
	fields := map[string]string{}
	for _, p := range params {
		switch {
		case p.Receiver || p.Name == "self":
			return &DefinitionError{Code: CodeReceiverParam, Interface: iface, Method: method, Param: p.Name, Message: "receiver parameters are not allowed in a contract"}
		case !util.IsIdentifier(p.Name):
			return &DefinitionError{Code: CodeUnsupportedParam, Interface: iface, Method: method, Param: p.Name, Message: "parameter must be bound to a simple name"}
		case util.WireCase(p.Name) == "":
			return &DefinitionError{Code: CodeUnsupportedParam, Interface: iface, Method: method, Param: p.Name, Message: "parameter name has no letters or digits to derive a wire name from"}
		case seen[p.Name]:
			return &DefinitionError{Code: CodeDuplicateParam, Interface: iface, Method: method, Param: p.Name, Message: "parameter name declared more than once"}
		}
		seen[p.Name] = true

		if _, err := util.ParseType(p.Type); err != nil {
			return &DefinitionError{Code: CodeInvalidType, Interface: iface, Method: method, Param: p.Name, Message: err.Error()}
		}
		wire := util.WireCase(p.Name)
		if other, ok := fields[wire]; ok {
			return &DefinitionError{Code: CodeDuplicateParam, Interface: iface, Method: method, Param: p.Name, Message: fmt.Sprintf("wire name %q collides with parameter %q", wire, other)}
		}
		fields[wire] = p.Name
	}
	return nil
}

// Event is one entry of an event registry.
type Event struct {
	// Name is the verbatim event identifier; it is never wire-cased.
	Name        string
	PayloadType string
	EmitSide    bool
	ListenSide  bool
}

// GoName is the exported identifier of the generated event wrapper.
func (e Event) GoName() string { return util.ExportedName(e.Name) }

// Registry is an ordered list of events.
type Registry struct {
	Events []Event
}

// Validate checks that event names are unique and payload types parse.
func (r Registry) Validate() error {
	names := map[string]bool{}
	goNames := map[string]string{}
	for _, e := range r.Events {
		if e.Name == "" {
			return &DefinitionError{Code: CodeInvalidName, Message: "event without a name"}
		}
		if names[e.Name] {
			return &DefinitionError{Code: CodeDuplicateEvent, Event: e.Name, Message: "event name declared more than once"}
		}
		names[e.Name] = true

		id := e.GoName()
		if !util.IsIdentifier(id) {
			return &DefinitionError{Code: CodeInvalidName, Event: e.Name, Message: fmt.Sprintf("cannot derive a Go identifier (got %q)", id)}
		}
		if other, ok := goNames[id]; ok {
			return &DefinitionError{Code: CodeDuplicateEvent, Event: e.Name, Message: fmt.Sprintf("wrapper %s collides with event %q", id, other)}
		}
		goNames[id] = e.Name

		if _, err := util.ParseType(e.PayloadType); err != nil {
			return &DefinitionError{Code: CodeInvalidType, Event: e.Name, Message: err.Error()}
		}
	}
	return nil
}

// Names returns the sorted event names.
func (r Registry) Names() []string {
	out := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		out = append(out, e.Name)
	}
	sort.Strings(out)
	return out
}

// Definition is everything loaded from one schema source.
type Definition struct {
	Package    string
	ImportPath string
	Imports    map[string]string
	Interfaces []*Interface
	Events     Registry
}

// Interface returns the named contract. With an empty name the definition
// must hold exactly one.
func (d *Definition) Interface(name string) (*Interface, error) {
	if name == "" {
		if len(d.Interfaces) == 1 {
			return d.Interfaces[0], nil
		}
		return nil, &DefinitionError{Code: CodeUnknownContract, Message: fmt.Sprintf("expected exactly one contract, found %d", len(d.Interfaces))}
	}
	for _, i := range d.Interfaces {
		if i.Name == name {
			return i, nil
		}
	}
	return nil, &DefinitionError{Code: CodeUnknownContract, Interface: name, Message: "no such contract"}
}

// Validate validates every interface and the event registry.
func (d *Definition) Validate() error {
	seen := map[string]bool{}
	for _, i := range d.Interfaces {
		if seen[i.Name] {
			return &DefinitionError{Code: CodeDuplicateMethod, Interface: i.Name, Message: "contract declared more than once"}
		}
		seen[i.Name] = true
		if err := i.Validate(); err != nil {
			return err
		}
	}
	return d.Events.Validate()
}
