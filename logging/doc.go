// Package logging provides a minimal logging interface and adapters for ipcmesh.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the generator, the dispatch router and the transports use for observability.
// This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - MeshLogger with domain helpers (LogInvocation, LogDispatch, LogGeneration)
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	router := dispatch.New(func(o *dispatch.Options) { o.Logger = logger })
package logging
