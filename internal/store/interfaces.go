package store

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

import (
	"context"
	"io"
	"time"

	"github.com/MKhiriev/go-proc-box/models"
)

// UserRepository persists the user records of the catalog.
type UserRepository interface {
	// CreateUser inserts a new user. A clash on ID or e-mail yields
	// [ErrUserAlreadyExists].
	CreateUser(ctx context.Context, user models.User) error
	// FindUserByEmail returns the user with the given e-mail or
	// [ErrNoUserWasFound].
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	// FindUserByCredentials returns the user matching both e-mail and stored
	// password hash or [ErrNoUserWasFound].
	FindUserByCredentials(ctx context.Context, email, hashedPassword string) (models.User, error)
	// DeleteUserByEmail removes the user and reports whether a row was deleted.
	DeleteUserByEmail(ctx context.Context, email string) (bool, error)
	// ListEmails returns the e-mails of all administrators or of all common
	// users, ordered by user ID.
	ListEmails(ctx context.Context, admins bool) ([]string, error)
}

// CounterRepository persists named integer counters with optimistic
// concurrency control.
type CounterRepository interface {
	// GetCounter returns the current value or [ErrCounterNotFound].
	GetCounter(ctx context.Context, name string) (int64, error)
	// InitCounter creates the counter with value unless it already exists and
	// reports whether it was created.
	InitCounter(ctx context.Context, name string, value int64) (bool, error)
	// CompareAndSwapCounter sets the counter to next only if it still holds
	// expected, and reports whether the swap happened.
	CompareAndSwapCounter(ctx context.Context, name string, expected, next int64) (bool, error)
}

// BlobInfo describes one stored blob.
type BlobInfo struct {
	Container   string
	Key         string
	ContentType string
	Size        int64
}

// BlobStorage is a flat key/value object store grouped into containers.
// Keys may contain "/" but containers are never nested.
type BlobStorage interface {
	// EnsureContainer creates the container if it does not exist yet.
	EnsureContainer(ctx context.Context, container string) error
	// Put stores content under container/key, replacing any previous blob.
	// The reader is rewound to offset 0 before the transfer.
	Put(ctx context.Context, container, key, contentType string, content io.ReadSeeker) error
	// Get returns the full content or [ErrBlobNotFound].
	Get(ctx context.Context, container, key string) ([]byte, error)
	// Delete removes the blob and reports whether it existed.
	Delete(ctx context.Context, container, key string) (bool, error)
	// List returns every blob whose key starts with prefix, ordered by key.
	List(ctx context.Context, container, prefix string) ([]BlobInfo, error)
}

// QueueEntry is a message received from a [QueueStorage].
type QueueEntry struct {
	ID      string
	Payload []byte
	// Receipt identifies this particular delivery; it changes every time the
	// entry is received.
	Receipt string
	// Deliveries counts how many times the entry has been received.
	Deliveries int
}

// QueueStorage is a durable FIFO-ish message store with visibility timeouts.
// A received entry stays hidden from other receivers until it is deleted,
// released, or its visibility timeout expires.
type QueueStorage interface {
	// Push appends payload to the named queue and returns the entry ID.
	Push(ctx context.Context, queue string, payload []byte) (string, error)
	// Receive claims the oldest visible entry. ok is false if the queue holds
	// no visible entry.
	Receive(ctx context.Context, queue string, visibility time.Duration) (entry QueueEntry, ok bool, err error)
	// Delete removes the entry if receipt still matches its current delivery.
	// A stale receipt yields [ErrStaleReceipt].
	Delete(ctx context.Context, queue, id, receipt string) error
	// Release makes the entry visible again immediately. A stale receipt
	// yields [ErrStaleReceipt].
	Release(ctx context.Context, queue, id, receipt string) error
	// Extend keeps the entry hidden for visibility from now on. A stale
	// receipt yields [ErrStaleReceipt].
	Extend(ctx context.Context, queue, id, receipt string, visibility time.Duration) error
}

// ErrorClassificator decides how a failed database operation should be
// handled.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
	IsUniqueViolation(err error) bool
}
