package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/sethvargo/go-retry"

	"github.com/MKhiriev/go-proc-box/internal/config"
	"github.com/MKhiriev/go-proc-box/internal/logger"
	"github.com/MKhiriev/go-proc-box/migrations"
)

// DB is a database handle shared by the SQL repositories. It remembers the
// driver it was opened with so that queries are built with the right
// placeholder format and errors are classified by the right driver rules.
type DB struct {
	*sql.DB
	driver             string
	errorClassificator ErrorClassificator
	logger             *logger.Logger
}

// NewDB opens the database selected by cfg.Driver ("pgx" or "sqlite3").
func NewDB(ctx context.Context, cfg config.DB, log *logger.Logger) (*DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return NewConnectPostgres(ctx, cfg, log)
	case config.DriverSQLite:
		return NewConnectSQLite(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Driver)
	}
}

// Migrate applies the embedded schema migrations for the driver in use.
func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB, db.driver)
}

// builder returns a squirrel statement builder using the driver's
// placeholder format.
func (db *DB) builder() sq.StatementBuilderType {
	if db.driver == config.DriverPostgres {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

func (db *DB) isUniqueViolation(err error) bool {
	return db.errorClassificator != nil && db.errorClassificator.IsUniqueViolation(err)
}

const (
	txMaxRetries   = 3
	txRetryBackoff = 20 * time.Millisecond
)

// inTx runs fn inside a transaction and commits it. fn returning an error
// rolls the transaction back. Failures the driver classifier marks
// [Retryable] (deadlocks, serialization failures, a busy SQLite file)
// restart the whole transaction with exponential backoff.
func (db *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	backoff := retry.WithMaxRetries(txMaxRetries, retry.NewExponential(txRetryBackoff))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := db.runTx(ctx, fn)
		if err != nil && db.classify(err) == Retryable {
			logger.FromContext(ctx).Warn().Err(err).Msg("transaction conflict, retrying")
			return retry.RetryableError(err)
		}
		return err
	})
}

func (db *DB) runTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}
	return nil
}

func (db *DB) classify(err error) ErrorClassification {
	if db.errorClassificator == nil {
		return NonRetryable
	}
	return db.errorClassificator.Classify(err)
}
