// Package schema holds the data model consumed by the generators: interface
// definitions (ordered methods with ordered parameters), event registries,
// optional capability modules and callee-side handler bindings.
//
// Definitions are plain data. They are produced by LoadYAML (schema files) or
// ParseDir/ParseSource (Go contract packages annotated with //ipcmesh:
// directives) and are treated as immutable once generation starts.
//
// Directives understood in Go source:
//
//	//ipcmesh:contract                     on an interface type: the contract
//	//ipcmesh:capability <gate>            on an interface type: a restricted capability module
//	//ipcmesh:name <wire-identifier>       on an interface method: override the wire identifier
//	//ipcmesh:event <name> <payload-type> [emit-only|listen-only]
//	//ipcmesh:handler <Contract> [Method]  on a func: a callee handler binding
//
// ClassifyReturn is the type extraction utility that decides whether a method
// returns Unit, an Outcome (success, failure) or an Opaque value.
package schema
