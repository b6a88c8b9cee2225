package session

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-proc-box/internal/app"
	"github.com/MKhiriev/go-proc-box/models"
)

func TestSession_LoginLogout(t *testing.T) {
	s := New()
	assert.False(t, s.LoggedIn())
	assert.ErrorIs(t, s.RequireLogin(), app.ErrLoginRequired)

	s.Login("a0000000000000000", true)
	assert.True(t, s.LoggedIn())
	assert.True(t, s.IsAdmin())
	assert.Equal(t, "a0000000000000000", s.UserID())
	assert.Equal(t, models.AdminRole, s.Role())
	assert.NoError(t, s.RequireAdmin())

	s.Logout()
	assert.False(t, s.LoggedIn())
	assert.False(t, s.IsAdmin())
	assert.Empty(t, s.UserID())
}

func TestSession_RequireAdminChecksLoginFirst(t *testing.T) {
	assert.ErrorIs(t, New().RequireAdmin(), app.ErrLoginRequired)

	var nilSession *Session
	assert.ErrorIs(t, nilSession.RequireAdmin(), app.ErrNotAuthenticated)

	common := FromUser("u0000000000000001", false)
	err := common.RequireAdmin()
	assert.ErrorIs(t, err, app.ErrAdminRequired)
	assert.ErrorIs(t, err, app.ErrNotAuthorized)
}

func TestSession_Snapshot(t *testing.T) {
	s := FromUser("u0000000000000002", false)

	id, admin, ok := s.Snapshot()

	assert.Equal(t, "u0000000000000002", id)
	assert.False(t, admin)
	assert.True(t, ok)
}

func TestSession_SessionsDoNotShareState(t *testing.T) {
	a, b := New(), New()
	a.Login("a0000000000000000", true)

	assert.False(t, b.LoggedIn())
}

func TestSession_ConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				s.Login("u0000000000000001", false)
			} else {
				s.Logout()
			}
		}()
		go func() {
			defer wg.Done()
			id, _, loggedIn := s.Snapshot()
			if loggedIn {
				assert.Equal(t, "u0000000000000001", id)
			}
		}()
	}
	wg.Wait()
}

func TestContext_RoundTrip(t *testing.T) {
	s := FromUser("u0000000000000001", false)

	got := FromContext(NewContext(context.Background(), s))

	assert.Same(t, s, got)
}

func TestContext_MissingSessionIsLoggedOut(t *testing.T) {
	got := FromContext(context.Background())

	require.NotNil(t, got)
	assert.ErrorIs(t, got.RequireLogin(), app.ErrLoginRequired)
}
