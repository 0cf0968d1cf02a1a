// Package ipcmesh compiles one shared interface contract into the code both
// sides of a process boundary need.
//
// A contract is a Go interface (or a YAML schema) listing the operations the
// host offers and the events either side may send. From it the generator
// emits, depending on the active side:
//  1. Caller stubs: one function per method that packs its arguments into a
//     wire-cased record and invokes the host through a core.Caller.
//  2. Callee dispatch: an implementation of the contract that forwards to
//     handler functions, with host-injected parameters elided from the public
//     signature, plus registration with a dispatch.Router.
//  3. The event registry: typed wrappers that either emit or listen, never
//     both in the same build.
//
// Most applications use this package through cmd/ipcgen. Programs that drive
// generation themselves call Generate or GenerateFiles.
package ipcmesh

import (
	"path/filepath"
	"strings"

	"github.com/hupe1980/ipcmesh/gen"
	"github.com/hupe1980/ipcmesh/schema"
)

// Job names the inputs and output of one generation run on disk.
type Job struct {
	// Schema is a YAML schema file or a directory of Go contract source.
	Schema string
	// Contract selects the contract when the schema declares several.
	Contract string
	// Handlers is the directory of callee handler functions.
	Handlers string
	// Output is the directory generated files are written to.
	Output string
}

// LoadDefinition reads a schema. Files ending in .yaml or .yml are decoded
// as YAML; anything else is parsed as a Go package directory.
func LoadDefinition(path string) (*schema.Definition, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return schema.LoadYAML(path)
	}
	return schema.ParseDir(path)
}

// Generate runs one generation over an already loaded definition.
func Generate(def *schema.Definition, contract string, handlers []schema.HandlerBinding, optFns ...func(c *gen.Config)) (*gen.Bundle, error) {
	g, err := gen.New(optFns...)
	if err != nil {
		return nil, err
	}
	return g.Generate(gen.Input{Definition: def, Contract: contract, Handlers: handlers})
}

// GenerateFiles loads the job's inputs, generates and writes the bundle.
// Nothing is written unless every artifact was produced.
func GenerateFiles(job Job, optFns ...func(c *gen.Config)) (*gen.Bundle, error) {
	g, err := gen.New(optFns...)
	if err != nil {
		return nil, err
	}

	def, err := LoadDefinition(job.Schema)
	if err != nil {
		return nil, err
	}

	var handlers []schema.HandlerBinding
	if g.Config().Mode() == gen.ModeEmit && job.Handlers != "" {
		if handlers, err = schema.ParseHandlers(job.Handlers); err != nil {
			return nil, err
		}
	}

	bundle, err := g.Generate(gen.Input{Definition: def, Contract: job.Contract, Handlers: handlers})
	if err != nil {
		return nil, err
	}
	if err := bundle.Write(job.Output); err != nil {
		return nil, err
	}
	return bundle, nil
}
