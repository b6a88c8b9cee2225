// Package server wires and runs the application's front ends.
//
// It owns the lifecycle of the HTTP API, the dispatch protocol listener and
// the processing workers: binding, signal handling and graceful shutdown of
// everything that was enabled in the configuration.
package server
