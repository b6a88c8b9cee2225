package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/MKhiriev/go-proc-box/internal/config"
	"github.com/MKhiriev/go-proc-box/internal/logger"
)

const queueMessagesTable = "queue_messages"

// errQueueEmpty ends a receive transaction that found nothing to claim.
var errQueueEmpty = errors.New("queue is empty")

// sqlQueueStorage implements [QueueStorage] on top of the queue_messages
// table. Visibility is tracked as unix nanoseconds in visible_at; a receive
// moves visible_at into the future and stamps a fresh receipt.
type sqlQueueStorage struct {
	db     *DB
	logger *logger.Logger
	now    func() time.Time
}

// NewSQLQueueStorage constructs a [QueueStorage] backed by db.
func NewSQLQueueStorage(db *DB, logger *logger.Logger) QueueStorage {
	logger.Debug().Msg("creating sql queue storage")
	return &sqlQueueStorage{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

func (q *sqlQueueStorage) Push(ctx context.Context, queue string, payload []byte) (string, error) {
	id := uuid.NewString()
	now := q.now().UnixNano()

	query, args, err := q.db.builder().
		Insert(queueMessagesTable).
		Columns("id", "queue", "payload", "enqueued_at", "visible_at", "deliveries").
		Values(id, queue, payload, now, now, 0).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = q.db.ExecContext(ctx, query, args...); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*sqlQueueStorage.Push").Str("queue", queue).Msg("error pushing queue message")
		return "", fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return id, nil
}

// Receive selects the oldest visible entry and claims it in the same
// transaction. On PostgreSQL the row is locked with SKIP LOCKED so that
// concurrent receivers move on to the next entry instead of waiting.
func (q *sqlQueueStorage) Receive(ctx context.Context, queue string, visibility time.Duration) (QueueEntry, bool, error) {
	var entry QueueEntry
	err := q.db.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		entry, err = q.claim(ctx, tx, queue, visibility)
		return err
	})
	switch {
	case errors.Is(err, errQueueEmpty):
		return QueueEntry{}, false, nil
	case err != nil:
		return QueueEntry{}, false, err
	}

	return entry, true, nil
}

// claim selects the oldest visible entry and stamps a fresh receipt on it.
// The update repeats the visibility check, so an entry claimed by a
// concurrent receiver in between is left alone and reported as
// [errQueueEmpty].
func (q *sqlQueueStorage) claim(ctx context.Context, tx *sql.Tx, queue string, visibility time.Duration) (QueueEntry, error) {
	now := q.now().UnixNano()

	selectBuilder := q.db.builder().
		Select("id", "payload", "deliveries").
		From(queueMessagesTable).
		Where(sq.Eq{"queue": queue}).
		Where(sq.LtOrEq{"visible_at": now}).
		OrderBy("enqueued_at", "id").
		Limit(1)
	if q.db.driver == config.DriverPostgres {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE SKIP LOCKED")
	}

	selectQuery, selectArgs, err := selectBuilder.ToSql()
	if err != nil {
		return QueueEntry{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var entry QueueEntry
	err = tx.QueryRowContext(ctx, selectQuery, selectArgs...).Scan(&entry.ID, &entry.Payload, &entry.Deliveries)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return QueueEntry{}, errQueueEmpty
	case err != nil:
		logger.FromContext(ctx).Err(err).Str("func", "*sqlQueueStorage.claim").Str("queue", queue).Msg("error selecting queue message")
		return QueueEntry{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	entry.Receipt = uuid.NewString()
	entry.Deliveries++

	updateQuery, updateArgs, err := q.db.builder().
		Update(queueMessagesTable).
		Set("receipt", entry.Receipt).
		Set("visible_at", now+visibility.Nanoseconds()).
		Set("deliveries", entry.Deliveries).
		Where(sq.Eq{"id": entry.ID}).
		Where(sq.LtOrEq{"visible_at": now}).
		ToSql()
	if err != nil {
		return QueueEntry{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := tx.ExecContext(ctx, updateQuery, updateArgs...)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*sqlQueueStorage.claim").Str("queue", queue).Msg("error claiming queue message")
		return QueueEntry{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return QueueEntry{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	if affected == 0 {
		return QueueEntry{}, errQueueEmpty
	}

	return entry, nil
}

func (q *sqlQueueStorage) Delete(ctx context.Context, queue, id, receipt string) error {
	query, args, err := q.db.builder().
		Delete(queueMessagesTable).
		Where(sq.Eq{"id": id, "queue": queue, "receipt": receipt}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return q.execReceipt(ctx, "*sqlQueueStorage.Delete", query, args)
}

func (q *sqlQueueStorage) Release(ctx context.Context, queue, id, receipt string) error {
	query, args, err := q.db.builder().
		Update(queueMessagesTable).
		Set("receipt", nil).
		Set("visible_at", q.now().UnixNano()).
		Where(sq.Eq{"id": id, "queue": queue, "receipt": receipt}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return q.execReceipt(ctx, "*sqlQueueStorage.Release", query, args)
}

func (q *sqlQueueStorage) Extend(ctx context.Context, queue, id, receipt string, visibility time.Duration) error {
	query, args, err := q.db.builder().
		Update(queueMessagesTable).
		Set("visible_at", q.now().Add(visibility).UnixNano()).
		Where(sq.Eq{"id": id, "queue": queue, "receipt": receipt}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return q.execReceipt(ctx, "*sqlQueueStorage.Extend", query, args)
}

// execReceipt runs a statement guarded by a receipt match; no affected row
// means the entry was re-delivered or is gone.
func (q *sqlQueueStorage) execReceipt(ctx context.Context, fn, query string, args []any) error {
	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", fn).Msg("error executing queue statement")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	if affected == 0 {
		return ErrStaleReceipt
	}

	return nil
}
