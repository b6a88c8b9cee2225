package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/MKhiriev/go-proc-box/internal/config"
	"github.com/MKhiriev/go-proc-box/internal/logger"
	"github.com/MKhiriev/go-proc-box/internal/service"
	"github.com/MKhiriev/go-proc-box/internal/session"
	"github.com/MKhiriev/go-proc-box/internal/utils"
)

// DefaultMaxLineLength bounds a single protocol line.
const DefaultMaxLineLength = 8 << 10

// Server accepts dispatch connections and runs one protocol session per
// connection.
type Server struct {
	catalog    service.CatalogService
	processing service.ProcessingService

	idleTimeout   time.Duration
	maxLineLength int
	ids           utils.IDGenerator

	mu      sync.Mutex
	conns   map[net.Conn]struct{}
	closing bool
	wg      sync.WaitGroup

	logger *logger.Logger
}

func NewServer(catalog service.CatalogService, processing service.ProcessingService, cfg config.Server, logger *logger.Logger) *Server {
	return &Server{
		catalog:       catalog,
		processing:    processing,
		idleTimeout:   cfg.IdleTimeout,
		maxLineLength: DefaultMaxLineLength,
		ids:           utils.NewUUIDGenerator(),
		conns:         make(map[net.Conn]struct{}),
		logger:        logger,
	}
}

// ListenAndServe listens on addr and calls [Server.Serve].
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("error listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled. Cancellation closes
// the listener and every open connection; Serve returns once all sessions
// have finished.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		_ = ln.Close()
		s.closeConns()
	}()

	s.logger.Info().Str("address", ln.Addr().String()).Msg("dispatch server listening")

	var serveErr error
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() == nil {
				serveErr = err
				if errors.Is(err, net.ErrClosed) {
					serveErr = ErrServerClosed
				}
			}
			break
		}

		if !s.track(conn) {
			_ = conn.Close()
			continue
		}
		s.wg.Add(1)
		go s.handle(ctx, conn)
	}

	cancel()
	<-stopped
	s.wg.Wait()
	s.logger.Info().Msg("dispatch server stopped")
	return serveErr
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)

	sessionID := s.ids.Generate()
	log := s.logger.
		WithStr("session_id", sessionID).
		WithStr("remote", conn.RemoteAddr().String())
	ctx = utils.WithTraceID(ctx, sessionID)

	p := &protocolSession{
		conn:       newLineConn(conn, s.idleTimeout, s.maxLineLength),
		sess:       session.New(),
		catalog:    s.catalog,
		processing: s.processing,
		logger:     log,
	}

	log.Debug().Msg("session opened")
	if err := p.run(ctx); err != nil {
		log.Info().Err(err).Msg("session closed with error")
		return
	}
	log.Debug().Msg("session closed")
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	_ = conn.Close()
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closing = true
	for conn := range s.conns {
		_ = conn.Close()
	}
}
