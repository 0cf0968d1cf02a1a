package gen

import (
	"time"

	"github.com/hupe1980/ipcmesh/schema"
)

// Input is everything one generation run reads.
type Input struct {
	Definition *schema.Definition
	// Contract selects the contract to build. It may be empty when the
	// definition declares exactly one.
	Contract string
	// Handlers are the callee bindings. Only the emit side needs them.
	Handlers []schema.HandlerBinding
}

// Generate builds the artifacts of the active side.
//
// The listen side gets the caller stubs and the listening half of the event
// registry, both in the stubs package. The emit side gets the dispatch file and
// the emitting half of the registry, both in the handler package. Nothing is
// returned unless every artifact was produced.
func (g *Generator) Generate(in Input) (*Bundle, error) {
	start := time.Now()
	if in.Definition == nil {
		return nil, &schema.ConfigurationError{Option: "definition", Message: "nothing to generate"}
	}
	if err := in.Definition.Validate(); err != nil {
		return nil, err
	}
	iface, err := in.Definition.Interface(in.Contract)
	if err != nil {
		return nil, err
	}

	var (
		primary File
		ids     map[string]string
		name    string
	)
	switch g.cfg.Mode() {
	case ModeEmit:
		name = DispatchFileName(iface.Name)
		primary, ids, err = g.dispatch(iface, in.Handlers)
	default:
		name = StubsFileName(iface.Name)
		primary, ids, err = g.stubs(iface)
	}
	g.logArtifact(name, len(ids), start, err)
	if err != nil {
		return nil, err
	}

	start = time.Now()
	events, eventIDs, err := g.events(in.Definition, primary.Package)
	g.logArtifact(EventsFileName(g.cfg.Mode()), len(eventIDs), start, err)
	if err != nil {
		return nil, err
	}
	if err := checkCollisions(ids, eventIDs); err != nil {
		return nil, err
	}

	return &Bundle{Files: []File{primary, events}}, nil
}
