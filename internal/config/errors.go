package config

import "errors"

// Validation errors returned when a required configuration group is
// incomplete or invalid.
var (
	// ErrInvalidAdapterConfigs indicates invalid client adapter settings
	// (for example, missing HTTP address or request timeout).
	ErrInvalidAdapterConfigs = errors.New("invalid adapter configuration")
	// ErrInvalidStorageConfigs indicates invalid catalog or content store
	// settings (for example, an unknown driver or a missing DSN).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidAppConfigs indicates invalid application-level settings
	// (for example, a missing token sign key).
	ErrInvalidAppConfigs = errors.New("invalid app configuration")
	// ErrInvalidQueueConfigs indicates invalid channel settings
	// (for example, identical request and completion queue names).
	ErrInvalidQueueConfigs = errors.New("invalid queue configuration")
	// ErrInvalidServerConfigs indicates invalid listener settings.
	ErrInvalidServerConfigs = errors.New("invalid server configuration")
	// ErrInvalidWorkerConfigs indicates invalid background worker settings
	// (for example, a negative worker count).
	ErrInvalidWorkerConfigs = errors.New("invalid worker configuration")
)
