package validators

import (
	"fmt"

	"github.com/MKhiriev/go-proc-box/internal/app"
)

var (
	ErrUnsupportedType = fmt.Errorf("unsupported type for validation: %w", app.ErrInvalidArgument)
	ErrUnknownField    = fmt.Errorf("unknown field for validation: %w", app.ErrInvalidArgument)

	ErrEmptyEmail    = fmt.Errorf("email is required: %w", app.ErrInvalidArgument)
	ErrInvalidEmail  = fmt.Errorf("invalid email: %w", app.ErrInvalidArgument)
	ErrEmptyPassword = fmt.Errorf("password is required: %w", app.ErrInvalidArgument)
	ErrEmptyFileURI  = fmt.Errorf("file uri is required: %w", app.ErrInvalidArgument)
	ErrEmptyToolName = fmt.Errorf("tool name is required: %w", app.ErrInvalidArgument)
)
