package server

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/MKhiriev/go-proc-box/internal/config"
	"github.com/MKhiriev/go-proc-box/internal/handler"
	"github.com/MKhiriev/go-proc-box/internal/logger"
	"github.com/MKhiriev/go-proc-box/internal/workers"
)

type server struct {
	transports []transport
	workers    *workers.Workers

	mu     sync.Mutex
	cancel context.CancelFunc

	logger *logger.Logger
}

// NewServer assembles the enabled front ends of handlers and the worker
// pool. pool may be nil.
func NewServer(handlers *handler.Handlers, pool *workers.Workers, cfg config.Server, logger *logger.Logger) (Server, error) {
	logger.Info().Msg("creating new server...")
	return newServer(handlers, pool, cfg, logger)
}

func newServer(handlers *handler.Handlers, pool *workers.Workers, cfg config.Server, logger *logger.Logger) (*server, error) {
	s := &server{workers: pool, logger: logger}

	if handlers != nil && handlers.HTTP != nil {
		s.transports = append(s.transports, newHTTPServer(handlers.HTTP.Init(), cfg, logger))
	}
	if handlers != nil && handlers.Dispatch != nil {
		s.transports = append(s.transports, newDispatchServer(handlers.Dispatch, cfg.DispatchAddress, logger))
	}

	if len(s.transports) == 0 {
		return nil, errNoServersAreCreated
	}
	return s, nil
}

func (s *server) RunServer() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGQUIT,
	)
	defer stop()

	if err := s.run(ctx); err != nil {
		s.logger.Error().Err(err).Msg("error running server")
		return
	}
	s.logger.Info().Msg("server Shutdown gracefully")
}

func (s *server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// run binds every transport, then serves them together with the workers
// until ctx is cancelled or one of them fails.
func (s *server) run(ctx context.Context) error {
	if err := s.listen(ctx); err != nil {
		return err
	}
	return s.serve(ctx)
}

func (s *server) listen(ctx context.Context) error {
	for i, t := range s.transports {
		if err := t.listen(ctx); err != nil {
			for _, bound := range s.transports[:i] {
				_ = bound.close()
			}
			return fmt.Errorf("%s: %w", t.name(), err)
		}
	}
	return nil
}

func (s *server) serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return errAlreadyRunning
	}
	s.cancel = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.cancel = nil
		s.mu.Unlock()
	}()

	g, ctx := errgroup.WithContext(ctx)
	for _, t := range s.transports {
		g.Go(func() error { return t.serve(ctx) })
	}
	if s.workers != nil {
		g.Go(func() error { return s.workers.Run(ctx) })
	}

	return g.Wait()
}
