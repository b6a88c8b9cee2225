package workers

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/MKhiriev/go-proc-box/internal/config"
	"github.com/MKhiriev/go-proc-box/internal/logger"
	"github.com/MKhiriev/go-proc-box/internal/service"
)

type Workers struct {
	workers []Worker
	logger  *logger.Logger
}

// NewWorkers builds cfg.Count processing workers sharing the request channel
// of services. A non-positive count yields an empty pool.
func NewWorkers(services *service.Services, cfg config.Workers, logger *logger.Logger) *Workers {
	ws := &Workers{logger: logger}
	for i := range max(cfg.Count, 0) {
		ws.workers = append(ws.workers, newProcessingWorker(i, services.Requests, services.ProcessingService, logger))
	}

	logger.Info().Int("count", len(ws.workers)).Msg("processing workers created")
	return ws
}

// Len returns the pool size.
func (w *Workers) Len() int {
	return len(w.workers)
}

// Run starts every worker and waits for all of them. The first worker error
// cancels the others and is returned.
func (w *Workers) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i, worker := range w.workers {
		g.Go(func() error {
			if err := worker.Run(ctx); err != nil {
				return fmt.Errorf("worker %d: %w", i, err)
			}
			return nil
		})
	}

	err := g.Wait()
	if w.logger != nil {
		w.logger.Info().Err(err).Msg("processing workers stopped")
	}
	return err
}
