package http

import (
	"time"

	"github.com/MKhiriev/go-proc-box/internal/config"
	"github.com/MKhiriev/go-proc-box/internal/logger"
	"github.com/MKhiriev/go-proc-box/internal/service"
	"github.com/MKhiriev/go-proc-box/internal/validators"
)

// MaxUploadSize bounds the body of a file upload.
const MaxUploadSize = 64 << 20

type Handler struct {
	services  *service.Services
	validator validators.Validator

	// requestTimeout caps how long a request may wait for a completion.
	requestTimeout time.Duration

	logger *logger.Logger
}

func NewHandler(services *service.Services, cfg config.Server, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		services:       services,
		validator:      validators.NewRequestValidator(),
		requestTimeout: cfg.RequestTimeout,
		logger:         logger,
	}
}
