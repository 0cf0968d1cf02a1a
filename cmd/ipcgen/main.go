// Command ipcgen generates caller stubs, callee dispatch and the event
// registry of one contract.
//
// Usage:
//
//	ipcgen -config ipcgen.yaml
//	ipcgen -schema ./api -mode emit -handlers ./backend -out ./backend
//
// Flags override the manifest, and IPCMESH_* environment variables override
// both.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/hupe1980/ipcmesh"
	"github.com/hupe1980/ipcmesh/gen"
	"github.com/hupe1980/ipcmesh/internal/config"
	"github.com/hupe1980/ipcmesh/logging"
	"github.com/hupe1980/ipcmesh/schema"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "ipcgen:", err)
		var defErr *schema.DefinitionError
		if errors.As(err, &defErr) || schema.IsConfigurationError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("ipcgen", flag.ContinueOnError)
	manifest := fs.String("config", "", "path to a YAML manifest")
	schemaPath := fs.String("schema", "", "YAML schema file or Go contract package directory")
	contract := fs.String("contract", "", "contract to build when the schema declares several")
	handlers := fs.String("handlers", "", "directory of callee handler functions (emit side)")
	out := fs.String("out", "", "output directory")
	mode := fs.String("mode", "", "side to build: emit|listen")
	prefix := fs.String("prefix", "", "command prefix of contract methods")
	marker := fs.String("marker", "", "host-context type marker")
	capability := fs.String("capability", "", "restricted capability gate to enable")
	pkg := fs.String("package", "", "package clause of generated files")
	lenient := fs.Bool("lenient", false, "degrade ambiguous return types instead of failing")
	level := fs.String("log-level", "warn", "log level: debug|info|warn|error")
	format := fs.String("log-format", "text", "log format: text|json")
	if err := fs.Parse(args); err != nil {
		return err
	}

	m := config.Default()
	if *manifest != "" {
		var err error
		if m, err = config.Load(*manifest); err != nil {
			return err
		}
	}

	// Only flags given on the command line override the manifest.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "schema":
			m.Schema = *schemaPath
		case "contract":
			m.Contract = *contract
		case "handlers":
			m.Handlers = *handlers
		case "out":
			m.Output = *out
		case "mode":
			m.Mode = *mode
		case "prefix":
			m.Generator.CommandPrefix = *prefix
		case "marker":
			m.Generator.HostContextMarker = *marker
		case "capability":
			m.Generator.RestrictedCapability = *capability
		case "package":
			m.Generator.Package = *pkg
		case "lenient":
			m.Generator.Lenient = *lenient
		}
	})
	if err := m.ApplyEnv(); err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return err
	}

	lvl, ok := logging.ParseLevel(*level)
	if !ok {
		return fmt.Errorf("unknown log level %q", *level)
	}
	logger := logging.NewSlogLogger(lvl, *format, false).WithComponent("ipcgen")

	cfg, err := m.Config()
	if err != nil {
		return err
	}
	cfg.Logger = logger

	bundle, err := ipcmesh.GenerateFiles(ipcmesh.Job{
		Schema:   m.Schema,
		Contract: m.Contract,
		Handlers: m.Handlers,
		Output:   m.Output,
	}, func(c *gen.Config) { *c = cfg })
	if err != nil {
		return err
	}
	logger.Info("ipcgen.done", "mode", string(cfg.Mode()), "output", m.Output, "files", strings.Join(bundle.Names(), ","))
	return nil
}
