package config

import "time"

// Default values applied to every field no source has set.
const (
	DefaultHTTPAddress       = "localhost:8080"
	DefaultDispatchAddress   = "localhost:3000"
	DefaultFilesContainer    = "files"
	DefaultOutputsContainer  = "outputs"
	DefaultRequestsQueue     = "processing-requests"
	DefaultCompletionsQueue  = "processing-completions"
	DefaultAdminEmail        = "admin@proc.box"
	DefaultAdminPassword     = "admin"
	DefaultTokenIssuer       = "go-proc-box"
	DefaultPollInterval      = time.Second
	DefaultToolTimeout       = 30 * time.Second
	DefaultVisibilityTimeout = 2 * DefaultToolTimeout
	// MinVisibilityMargin is how much longer than the tool timeout a queue
	// visibility timeout must be, to cover file fetch and output upload.
	MinVisibilityMargin   = 5 * time.Second
	DefaultIdleTimeout    = 5 * time.Minute
	DefaultRequestTimeout = 30 * time.Second
	DefaultTokenDuration  = time.Hour
)

// Defaults returns the configuration used for every field no source has set.
// The catalog lives in memory and the content store in a local "data"
// directory, so a bare binary starts without any external service.
func Defaults() *StructuredConfig {
	return &StructuredConfig{
		App: App{
			TokenIssuer:          DefaultTokenIssuer,
			TokenDuration:        DefaultTokenDuration,
			DefaultAdminEmail:    DefaultAdminEmail,
			DefaultAdminPassword: DefaultAdminPassword,
			ToolTimeout:          DefaultToolTimeout,
		},
		Storage: Storage{
			DB: DB{Driver: DriverMemory},
			Blobs: Blobs{
				Backend:          BlobsBackendFS,
				Dir:              "data",
				FilesContainer:   DefaultFilesContainer,
				OutputsContainer: DefaultOutputsContainer,
			},
		},
		Queue: Queue{
			RequestsName:      DefaultRequestsQueue,
			CompletionsName:   DefaultCompletionsQueue,
			PollInterval:      DefaultPollInterval,
			VisibilityTimeout: DefaultVisibilityTimeout,
		},
		Server: Server{
			HTTPAddress:     DefaultHTTPAddress,
			DispatchAddress: DefaultDispatchAddress,
			RequestTimeout:  DefaultRequestTimeout,
			IdleTimeout:     DefaultIdleTimeout,
		},
		Adapter: Adapter{
			HTTPAddress:     DefaultHTTPAddress,
			DispatchAddress: DefaultDispatchAddress,
			RequestTimeout:  DefaultRequestTimeout,
		},
	}
}

// Backend identifiers.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
	DriverMemory   = "memory"

	BlobsBackendFS = "fs"
	BlobsBackendS3 = "s3"

	QueueBackendDB     = "db"
	QueueBackendMemory = "memory"
)
