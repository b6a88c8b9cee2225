package models

import "fmt"

const (
	// UserPartitionKey is the catalog partition holding every user record.
	UserPartitionKey = "users"

	// AdminRole and CommonRole are the leading characters of a user ID.
	AdminRole  = 'a'
	CommonRole = 'u'

	// userIDDigits is the zero-padded width of the sequence part of a user ID.
	userIDDigits = 16
)

// User represents an account stored in the catalog.
// The ID is assigned once at creation time and never changes; its first
// character encodes the role (see [AdminRole] and [CommonRole]).
type User struct {
	// ID is the row key of the user record, e.g. "a0000000000000000".
	ID string `json:"id"`

	// Email is the login identifier of the user.
	Email string `json:"email"`

	// Password carries the plain-text password on its way in (login,
	// registration). It is never persisted and never serialized back.
	Password string `json:"password,omitempty"`

	// HashedPassword is the keyed hash of the password as stored in the catalog.
	HashedPassword string `json:"-"`

	// IsAdmin reports whether the user has administrative rights.
	IsAdmin bool `json:"is_admin"`
}

// TableName returns the name of the database table
// associated with the User model.
func (u User) TableName() string {
	return "users"
}

// NewUserID formats a user ID from the role flag and a sequence number.
func NewUserID(isAdmin bool, seq int64) string {
	role := CommonRole
	if isAdmin {
		role = AdminRole
	}
	return fmt.Sprintf("%c%0*d", role, userIDDigits, seq)
}

// IsAdminID reports whether id belongs to an administrator.
func IsAdminID(id string) bool {
	return RoleFromUserID(id) == AdminRole
}

// RoleFromUserID returns the role character encoded in id, or 0 for an
// empty id.
func RoleFromUserID(id string) rune {
	if id == "" {
		return 0
	}
	return rune(id[0])
}
