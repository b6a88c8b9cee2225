package server

import (
	"context"
	"fmt"
	"net"

	"github.com/MKhiriev/go-proc-box/internal/dispatcher"
	"github.com/MKhiriev/go-proc-box/internal/logger"
)

type dispatchServer struct {
	server  *dispatcher.Server
	address string
	ln      net.Listener
	logger  *logger.Logger
}

func newDispatchServer(server *dispatcher.Server, address string, logger *logger.Logger) *dispatchServer {
	return &dispatchServer{
		server:  server,
		address: address,
		logger:  logger.WithStr("transport", "dispatch"),
	}
}

func (d *dispatchServer) name() string { return "dispatch" }

func (d *dispatchServer) addr() net.Addr { return d.ln.Addr() }

func (d *dispatchServer) listen(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", d.address)
	if err != nil {
		return fmt.Errorf("error listening on %s: %w", d.address, err)
	}
	d.ln = ln
	return nil
}

func (d *dispatchServer) close() error {
	return d.ln.Close()
}

func (d *dispatchServer) serve(ctx context.Context) error {
	d.logger.Info().Str("address", d.addr().String()).Msg("dispatch server listening")
	if err := d.server.Serve(ctx, d.ln); err != nil {
		return fmt.Errorf("dispatch server Serve: %w", err)
	}
	d.logger.Info().Msg("dispatch server stopped")
	return nil
}
