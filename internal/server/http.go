package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/MKhiriev/go-proc-box/internal/config"
	"github.com/MKhiriev/go-proc-box/internal/logger"
)

type httpServer struct {
	server          *http.Server
	ln              net.Listener
	shutdownTimeout time.Duration
	logger          *logger.Logger
}

func newHTTPServer(handler http.Handler, cfg config.Server, logger *logger.Logger) *httpServer {
	return &httpServer{
		server: &http.Server{
			Addr:              cfg.HTTPAddress,
			Handler:           handler,
			ReadHeaderTimeout: cfg.RequestTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
		shutdownTimeout: cfg.RequestTimeout,
		logger:          logger.WithStr("transport", "http"),
	}
}

func (h *httpServer) name() string { return "http" }

func (h *httpServer) addr() net.Addr { return h.ln.Addr() }

func (h *httpServer) listen(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", h.server.Addr)
	if err != nil {
		return fmt.Errorf("error listening on %s: %w", h.server.Addr, err)
	}
	h.ln = ln
	return nil
}

func (h *httpServer) close() error {
	return h.ln.Close()
}

func (h *httpServer) serve(ctx context.Context) error {
	h.logger.Info().Str("address", h.addr().String()).Msg("HTTP server listening")

	served := make(chan error, 1)
	go func() { served <- h.server.Serve(h.ln) }()

	select {
	case err := <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP server Serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.shutdownTimeout)
	defer cancel()

	if err := h.server.Shutdown(shutdownCtx); err != nil {
		h.logger.Err(err).Msg("HTTP server Shutdown")
		_ = h.server.Close()
	}
	<-served

	h.logger.Info().Msg("HTTP server stopped")
	return nil
}
