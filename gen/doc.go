// Package gen generates the Go code that binds both sides of a contract.
//
// A Generator runs on one side of the boundary, chosen by the mutually
// exclusive EmitCapable and ListenCapable gates:
//
//   - listen: caller stubs (<contract>_stubs.gen.go) and Listen methods for
//     every event (events_listen.gen.go)
//   - emit: the dispatch implementor and registration function
//     (<contract>_dispatch.gen.go) and Emit methods for every event
//     (events_emit.gen.go)
//
// Generation is deterministic. The same definition and Config always produce
// byte-identical output, and a failed run produces no files.
//
// Usage:
//
//	def, _ := schema.ParseDir("./api")
//	g, err := gen.New(func(c *gen.Config) { c.SetMode(gen.ModeListen) })
//	if err != nil {
//		return err
//	}
//	bundle, err := g.Generate(gen.Input{Definition: def})
//	if err != nil {
//		return err
//	}
//	return bundle.Write("./api")
package gen
