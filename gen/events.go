package gen

import (
	"fmt"
	"time"

	"github.com/hupe1980/ipcmesh/schema"
)

type eventData struct {
	Type    string
	Const   string
	New     string
	Wire    string
	Payload string
}

type eventsFileData struct {
	Header  string
	Package string
	Imports []importSpec
	Emit    bool
	Listen  bool
	Events  []eventData
}

// EventsFileName is the name of the event file generated for mode.
func EventsFileName(mode Mode) string {
	return "events_" + string(mode) + ".gen.go"
}

// Events renders the registry of def for the active mode. The emit side gets
// Emit methods only and the listen side Listen methods only, so a build never
// carries both. Event names are used verbatim as wire identifiers; the command
// prefix does not apply to them.
func (g *Generator) Events(def *schema.Definition) (File, error) {
	start := time.Now()
	name := EventsFileName(g.cfg.Mode())
	pkg := g.cfg.Package
	if pkg == "" {
		pkg = def.Package
	}
	f, ids, err := g.events(def, pkg)
	g.logArtifact(name, len(ids), start, err)
	return f, err
}

func (g *Generator) events(def *schema.Definition, pkg string) (File, map[string]string, error) {
	if err := def.Events.Validate(); err != nil {
		return File{}, nil, err
	}
	if pkg == "" {
		return File{}, nil, &schema.ConfigurationError{Option: "package", Message: "no package name for the events file"}
	}

	s := newScope(pkg)
	s.knownAll(def.Imports)
	if pkg != def.Package || g.cfg.ContractAlias != "" {
		if err := g.contractScope(s, def.Package, def.ImportPath); err != nil {
			return File{}, nil, err
		}
	}

	data := eventsFileData{
		Header:  Header,
		Package: pkg,
		Emit:    g.cfg.EmitCapable,
		Listen:  g.cfg.ListenCapable,
	}
	ids := map[string]string{}
	for _, e := range def.Events.Events {
		if (data.Emit && !e.EmitSide) || (data.Listen && !e.ListenSide) {
			continue
		}
		payload, err := s.contractType(e.PayloadType)
		if err != nil {
			return File{}, nil, &schema.DefinitionError{Code: schema.CodeInvalidType, Event: e.Name, Message: err.Error()}
		}
		typ := e.GoName()
		ev := eventData{
			Type:    typ,
			Const:   typ + "Event",
			New:     "New" + typ,
			Wire:    e.Name,
			Payload: payload,
		}
		origin := fmt.Sprintf("event %q", e.Name)
		for _, id := range []string{ev.Type, ev.Const, ev.New} {
			if prev, ok := ids[id]; ok {
				return File{}, nil, &schema.DefinitionError{Code: schema.CodeDuplicateEvent, Event: e.Name, Message: fmt.Sprintf("generated identifier %s is also declared for %s", id, prev)}
			}
			ids[id] = origin
		}
		data.Events = append(data.Events, ev)
		s.use("context")
		s.use("core")
	}
	data.Imports = s.imports()

	f, err := render(EventsFileName(g.cfg.Mode()), pkg, eventsTemplate, data)
	return f, ids, err
}
