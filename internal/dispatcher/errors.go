package dispatcher

import (
	"errors"
	"fmt"

	"github.com/MKhiriev/go-proc-box/internal/app"
)

var (
	// ErrLineTooLong is returned when a client line exceeds the configured
	// maximum length.
	ErrLineTooLong = fmt.Errorf("line too long: %w", app.ErrInvalidArgument)

	// ErrServerClosed is returned by [Server.Serve] after its listener was
	// closed by someone else.
	ErrServerClosed = errors.New("dispatch server closed")
)
