package store

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorClassification tells a caller whether a failed statement may succeed
// when the surrounding transaction is run again.
type ErrorClassification int

const (
	NonRetryable ErrorClassification = iota
	Retryable
)

// PostgresErrorClassifier implements [ErrorClassificator] over SQLSTATE codes
// reported by pgx.
type PostgresErrorClassifier struct{}

func NewPostgresErrorClassifier() *PostgresErrorClassifier {
	return &PostgresErrorClassifier{}
}

// Classify treats connection exceptions (class 08), transaction rollbacks
// such as serialization failures and deadlocks (class 40) and a server that
// is starting or shutting down (57P01..57P03) as retryable. Anything else,
// including errors that did not come from PostgreSQL, is not.
func (c *PostgresErrorClassifier) Classify(err error) ErrorClassification {
	code := postgresCode(err)
	switch {
	case code == "":
		return NonRetryable
	case pgerrcode.IsConnectionException(code), pgerrcode.IsTransactionRollback(code):
		return Retryable
	case code == pgerrcode.AdminShutdown, code == pgerrcode.CrashShutdown, code == pgerrcode.CannotConnectNow:
		return Retryable
	default:
		return NonRetryable
	}
}

// IsUniqueViolation reports a unique_violation (23505).
func (c *PostgresErrorClassifier) IsUniqueViolation(err error) bool {
	return postgresCode(err) == pgerrcode.UniqueViolation
}

func postgresCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
