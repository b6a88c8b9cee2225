package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-proc-box/internal/config"
	"github.com/MKhiriev/go-proc-box/internal/logger"
)

// Storages groups every backend the service layer depends on: the catalog
// repositories, the content store and the queue storage.
type Storages struct {
	Users    UserRepository
	Counters CounterRepository
	Blobs    BlobStorage
	Queue    QueueStorage

	db *DB
}

// NewStorages builds the storage layer selected by cfg:
//  1. Opens the catalog database (PostgreSQL or SQLite) and applies
//     migrations, or uses a [MemoryCatalog] for the "memory" driver.
//  2. Opens the content store ("fs" or "s3") and creates the files and
//     outputs containers.
//  3. Selects the queue storage ("db" shares the catalog database).
func NewStorages(ctx context.Context, cfg *config.StructuredConfig, logger *logger.Logger) (*Storages, error) {
	logger.Info().Msg("creating new storages...")

	s := &Storages{}

	switch cfg.Storage.DB.Driver {
	case config.DriverMemory:
		catalog := NewMemoryCatalog()
		s.Users, s.Counters = catalog, catalog
	default:
		db, err := NewDB(ctx, cfg.Storage.DB, logger)
		if err != nil {
			return nil, fmt.Errorf("database connection error: %w", err)
		}
		if err = db.Migrate(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migration failed: %w", err)
		}
		s.db = db
		s.Users = NewUserRepository(db, logger)
		s.Counters = NewCounterRepository(db, logger)
	}

	blobs, err := newBlobStorage(ctx, cfg.Storage.Blobs, logger)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	for _, container := range []string{cfg.Storage.Blobs.FilesContainer, cfg.Storage.Blobs.OutputsContainer} {
		if err = blobs.EnsureContainer(ctx, container); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("error creating container %q: %w", container, err)
		}
	}
	s.Blobs = blobs

	switch cfg.Queue.Backend {
	case config.QueueBackendMemory:
		s.Queue = NewMemoryQueueStorage()
	case config.QueueBackendDB:
		if s.db == nil {
			_ = s.Close()
			return nil, fmt.Errorf("%w: queue backend %q needs a database", ErrUnknownBackend, cfg.Queue.Backend)
		}
		s.Queue = NewSQLQueueStorage(s.db, logger)
	default:
		_ = s.Close()
		return nil, fmt.Errorf("%w: queue backend %q", ErrUnknownBackend, cfg.Queue.Backend)
	}

	return s, nil
}

func newBlobStorage(ctx context.Context, cfg config.Blobs, logger *logger.Logger) (BlobStorage, error) {
	switch cfg.Backend {
	case config.BlobsBackendFS:
		return NewFSBlobStorage(cfg.Dir, logger)
	case config.BlobsBackendS3:
		return NewS3BlobStorage(ctx, cfg.S3, logger)
	default:
		return nil, fmt.Errorf("%w: blobs backend %q", ErrUnknownBackend, cfg.Backend)
	}
}

// Close releases the database connection, if any.
func (s *Storages) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
