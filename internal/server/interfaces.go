package server

import (
	"context"
	"net"
)

// Server defines the lifecycle of the whole application process.
//
// RunServer blocks until SIGTERM, SIGINT or SIGQUIT arrives or Shutdown is
// called, then stops every front end and worker before returning.
type Server interface {
	// RunServer starts serving requests and blocks until the server stops.
	RunServer()

	// Shutdown asks a running server to stop. It does not wait.
	Shutdown()
}

// transport is a network front end managed by [server].
type transport interface {
	// listen binds the configured address.
	listen(ctx context.Context) error
	// serve blocks until ctx is cancelled, then stops gracefully.
	serve(ctx context.Context) error
	// addr reports the bound address. Valid after listen.
	addr() net.Addr
	// close releases the listener of a transport that never served.
	close() error
	name() string
}
