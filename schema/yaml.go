package schema

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlDefinition is the on-disk schema file layout:
//
//	package: api
//	import_path: example.com/chat/api
//	imports: {time: time}
//	contracts:
//	  - name: API
//	    methods:
//	      - name: get_ticket
//	        params: [{name: id, type: string}]
//	        returns: core.Outcome[string, string]
//	    capabilities:
//	      - {name: barcode, gate: mobile, methods: [...]}
//	events:
//	  - {name: connection, payload: string, emit: true, listen: true}
type yamlDefinition struct {
	Package    string            `yaml:"package"`
	ImportPath string            `yaml:"import_path"`
	Imports    map[string]string `yaml:"imports"`
	Contracts  []yamlContract    `yaml:"contracts"`
	Events     []yamlEvent       `yaml:"events"`
}

type yamlContract struct {
	Name         string           `yaml:"name"`
	Methods      []yamlMethod     `yaml:"methods"`
	Capabilities []yamlCapability `yaml:"capabilities"`
}

type yamlCapability struct {
	Name    string       `yaml:"name"`
	Gate    string       `yaml:"gate"`
	Methods []yamlMethod `yaml:"methods"`
}

type yamlMethod struct {
	Name    string     `yaml:"name"`
	GoName  string     `yaml:"go_name"`
	Doc     string     `yaml:"doc"`
	Params  []Param    `yaml:"params"`
	Returns resultList `yaml:"returns"`
}

type yamlEvent struct {
	Name    string `yaml:"name"`
	Payload string `yaml:"payload"`
	Emit    *bool  `yaml:"emit"`
	Listen  *bool  `yaml:"listen"`
}

// resultList accepts either a single type expression or a list of them.
type resultList []string

func (r *resultList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Value == "" {
			*r = nil
			return nil
		}
		*r = resultList{value.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*r = list
		return nil
	default:
		return fmt.Errorf("line %d: returns must be a type or a list of types", value.Line)
	}
}

// LoadYAML reads and validates a schema file.
func LoadYAML(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}
	def, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("schema file %s: %w", path, err)
	}
	return def, nil
}

// ParseYAML decodes and validates a schema document. Unknown keys are rejected.
func ParseYAML(data []byte) (*Definition, error) {
	var raw yamlDefinition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode schema: %w", err)
	}

	def := &Definition{
		Package:    raw.Package,
		ImportPath: raw.ImportPath,
		Imports:    raw.Imports,
	}
	for _, c := range raw.Contracts {
		iface := &Interface{
			Name:       c.Name,
			Package:    raw.Package,
			ImportPath: raw.ImportPath,
			Imports:    raw.Imports,
			Methods:    convertMethods(c.Methods),
		}
		for _, cp := range c.Capabilities {
			iface.Capabilities = append(iface.Capabilities, Capability{
				Name:    cp.Name,
				Gate:    cp.Gate,
				Methods: convertMethods(cp.Methods),
			})
		}
		def.Interfaces = append(def.Interfaces, iface)
	}
	for _, e := range raw.Events {
		def.Events.Events = append(def.Events.Events, Event{
			Name:        e.Name,
			PayloadType: e.Payload,
			EmitSide:    boolOr(e.Emit, true),
			ListenSide:  boolOr(e.Listen, true),
		})
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

func convertMethods(in []yamlMethod) []Method {
	out := make([]Method, 0, len(in))
	for _, m := range in {
		out = append(out, Method{
			Name:    m.Name,
			GoName:  m.GoName,
			Doc:     m.Doc,
			Params:  m.Params,
			Results: m.Returns,
			Context: true,
		})
	}
	return out
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
