package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-proc-box/internal/logger"
	"github.com/MKhiriev/go-proc-box/models"
)

const entriesTable = "entries"

// counterRepository is the SQL implementation of [CounterRepository] over the
// "entries" table.
type counterRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewCounterRepository constructs a [CounterRepository] backed by db.
func NewCounterRepository(db *DB, logger *logger.Logger) CounterRepository {
	logger.Debug().Msg("creating counter repository")
	return &counterRepository{
		db:     db,
		logger: logger,
	}
}

func (r *counterRepository) GetCounter(ctx context.Context, name string) (int64, error) {
	query, args, err := r.db.builder().
		Select("value").
		From(entriesTable).
		Where(sq.Eq{"name": name}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var value int64
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, ErrCounterNotFound
	case err != nil:
		logger.FromContext(ctx).Err(err).Str("func", "*counterRepository.GetCounter").Msg("error reading counter")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return value, nil
}

func (r *counterRepository) InitCounter(ctx context.Context, name string, value int64) (bool, error) {
	query, args, err := r.db.builder().
		Insert(entriesTable).
		Columns("name", "partition_key", "value").
		Values(name, models.EntryPartitionKey, value).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = r.db.ExecContext(ctx, query, args...); err != nil {
		if r.db.isUniqueViolation(err) {
			return false, nil
		}
		logger.FromContext(ctx).Err(err).Str("func", "*counterRepository.InitCounter").Msg("error creating counter")
		return false, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return true, nil
}

// CompareAndSwapCounter issues a conditional UPDATE; zero affected rows means
// another writer got there first (or the counter does not exist).
func (r *counterRepository) CompareAndSwapCounter(ctx context.Context, name string, expected, next int64) (bool, error) {
	query, args, err := r.db.builder().
		Update(entriesTable).
		Set("value", next).
		Where(sq.Eq{"name": name, "value": expected}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*counterRepository.CompareAndSwapCounter").Msg("error updating counter")
		return false, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return affected == 1, nil
}
