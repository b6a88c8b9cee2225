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

const usersTable = "users"

var userColumns = []string{"id", "email", "hashed_password", "is_admin"}

// userRepository is the SQL implementation of [UserRepository] over the
// "users" table. Queries are built with squirrel so the same code serves
// PostgreSQL and SQLite.
type userRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewUserRepository constructs a [UserRepository] backed by the provided
// database connection and logger.
func NewUserRepository(db *DB, logger *logger.Logger) UserRepository {
	logger.Debug().Msg("creating user repository")
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

// CreateUser inserts the user row. The ID must already be allocated.
//
// Error handling:
//   - unique violation on id or email → [ErrUserAlreadyExists].
//   - any other driver-level error → wrapped [ErrExecutingQuery].
func (r *userRepository) CreateUser(ctx context.Context, user models.User) error {
	log := logger.FromContext(ctx)

	query, args, err := r.db.builder().
		Insert(usersTable).
		Columns("id", "partition_key", "email", "hashed_password", "is_admin").
		Values(user.ID, models.UserPartitionKey, user.Email, user.HashedPassword, user.IsAdmin).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = r.db.ExecContext(ctx, query, args...); err != nil {
		if r.db.isUniqueViolation(err) {
			return ErrUserAlreadyExists
		}
		log.Err(err).Str("func", "*userRepository.CreateUser").Msg("error inserting user")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return nil
}

// FindUserByEmail retrieves the user whose e-mail matches.
func (r *userRepository) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, sq.Eq{"email": email})
}

// FindUserByCredentials retrieves the user whose e-mail and stored password
// hash both match.
func (r *userRepository) FindUserByCredentials(ctx context.Context, email, hashedPassword string) (models.User, error) {
	return r.findOne(ctx, sq.Eq{"email": email, "hashed_password": hashedPassword})
}

func (r *userRepository) findOne(ctx context.Context, where sq.Eq) (models.User, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.db.builder().
		Select(userColumns...).
		From(usersTable).
		Where(where).
		ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var user models.User
	err = r.db.QueryRowContext(ctx, query, args...).
		Scan(&user.ID, &user.Email, &user.HashedPassword, &user.IsAdmin)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return models.User{}, ErrNoUserWasFound
	case err != nil:
		log.Err(err).Str("func", "*userRepository.findOne").Msg("error querying user")
		return models.User{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return user, nil
}

// DeleteUserByEmail removes the user and reports whether a row was deleted.
func (r *userRepository) DeleteUserByEmail(ctx context.Context, email string) (bool, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.db.builder().
		Delete(usersTable).
		Where(sq.Eq{"email": email}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "*userRepository.DeleteUserByEmail").Msg("error deleting user")
		return false, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return affected > 0, nil
}

// ListEmails returns the e-mails of administrators (admins == true) or
// common users, ordered by ID.
func (r *userRepository) ListEmails(ctx context.Context, admins bool) ([]string, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.db.builder().
		Select("email").
		From(usersTable).
		Where(sq.Eq{"is_admin": admins}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "*userRepository.ListEmails").Msg("error listing users")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	emails := make([]string, 0)
	for rows.Next() {
		var email string
		if err = rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		emails = append(emails, email)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return emails, nil
}
