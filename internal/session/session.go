// Package session holds the authentication state of one client connection.
//
// Every dispatch connection and every authenticated HTTP request owns its own
// [Session]; nothing is shared at process level.
package session

import (
	"context"
	"sync"

	"github.com/MKhiriev/go-proc-box/internal/app"
	"github.com/MKhiriev/go-proc-box/models"
)

// Session is safe for concurrent use.
type Session struct {
	mu       sync.RWMutex
	loggedIn bool
	userID   string
	isAdmin  bool
}

// New returns a logged-out session.
func New() *Session {
	return &Session{}
}

// FromUser returns a session already logged in as user. HTTP requests use it
// after the bearer token has been verified.
func FromUser(userID string, isAdmin bool) *Session {
	s := New()
	s.Login(userID, isAdmin)
	return s
}

// Login marks the session as authenticated.
func (s *Session) Login(userID string, isAdmin bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loggedIn = true
	s.userID = userID
	s.isAdmin = isAdmin
}

// Logout clears the session.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loggedIn = false
	s.userID = ""
	s.isAdmin = false
}

func (s *Session) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loggedIn
}

// UserID returns the ID of the logged-in user, or "" when logged out.
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

func (s *Session) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loggedIn && s.isAdmin
}

// RequireLogin returns [app.ErrLoginRequired] unless the session is logged in.
func (s *Session) RequireLogin() error {
	if s == nil || !s.LoggedIn() {
		return app.ErrLoginRequired
	}
	return nil
}

// RequireAdmin checks login first, then the admin role.
func (s *Session) RequireAdmin() error {
	if err := s.RequireLogin(); err != nil {
		return err
	}
	if !s.IsAdmin() {
		return app.ErrAdminRequired
	}
	return nil
}

// Snapshot returns the user ID and role in one consistent read.
func (s *Session) Snapshot() (userID string, isAdmin bool, loggedIn bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID, s.isAdmin, s.loggedIn
}

// Role returns the role character of the logged-in user.
func (s *Session) Role() rune {
	return models.RoleFromUserID(s.UserID())
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by [NewContext]. A context without
// one yields a logged-out session, so authorization checks fail closed.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(ctxKey{}).(*Session); ok && s != nil {
		return s
	}
	return New()
}
