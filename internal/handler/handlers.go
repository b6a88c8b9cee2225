package handler

import (
	"github.com/MKhiriev/go-proc-box/internal/config"
	"github.com/MKhiriev/go-proc-box/internal/dispatcher"
	"github.com/MKhiriev/go-proc-box/internal/handler/http"
	"github.com/MKhiriev/go-proc-box/internal/logger"
	"github.com/MKhiriev/go-proc-box/internal/service"
)

// Handlers holds one front end per configured listen address. A nil field
// means that front end is disabled.
type Handlers struct {
	HTTP     *http.Handler
	Dispatch *dispatcher.Server
}

// NewHandlers builds the HTTP API for cfg.HTTPAddress and the dispatch
// protocol for cfg.DispatchAddress. At least one of them must be set.
func NewHandlers(services *service.Services, cfg config.Server, logger *logger.Logger) (*Handlers, error) {
	if cfg.HTTPAddress == "" && cfg.DispatchAddress == "" {
		return nil, errNoHandlersAreCreated
	}

	var handlers Handlers
	if cfg.HTTPAddress != "" {
		handlers.HTTP = http.NewHandler(services, cfg, logger)
	}
	if cfg.DispatchAddress != "" {
		handlers.Dispatch = dispatcher.NewServer(services.CatalogService, services.ProcessingService, cfg, logger)
	}

	logger.Info().
		Bool("http", handlers.HTTP != nil).
		Bool("dispatch", handlers.Dispatch != nil).
		Msg("handlers created")
	return &handlers, nil
}
