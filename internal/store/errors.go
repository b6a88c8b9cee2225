package store

import "errors"

// Sentinel errors returned by repository and storage methods to signal
// well-known failure conditions. Callers should use [errors.Is] to match
// against these values.
var (
	// ErrUserAlreadyExists is returned when a new user clashes with an
	// existing ID or e-mail.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrNoUserWasFound is returned when a query expected to match a user
	// record produces an empty result set.
	ErrNoUserWasFound = errors.New("no user was found")

	// ErrCounterNotFound is returned when a named counter has not been
	// initialised.
	ErrCounterNotFound = errors.New("counter was not found")

	// ErrBlobNotFound is returned when no blob is stored under a key.
	ErrBlobNotFound = errors.New("blob was not found")

	// ErrInvalidBlobKey is returned for empty keys, keys escaping their
	// container, or invalid container names.
	ErrInvalidBlobKey = errors.New("invalid blob key")

	// ErrStaleReceipt is returned when a queue entry was re-delivered to
	// another consumer (or already deleted) since the receipt was issued.
	ErrStaleReceipt = errors.New("stale queue receipt")

	// ErrUnknownBackend is returned by the storage factory for an
	// unsupported driver or backend name.
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a query against the
	// database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrScanningRow is returned when scanning column values from a result
	// row fails.
	ErrScanningRow = errors.New("failed to scan row")
)
