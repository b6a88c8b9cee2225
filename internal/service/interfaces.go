package service

import (
	"context"
	"io"
	"time"

	"github.com/MKhiriev/go-proc-box/internal/session"
	"github.com/MKhiriev/go-proc-box/models"
)

// CatalogService manages users and the authentication state of sessions.
// Privileged operations check login first, then the admin role, then their
// arguments.
type CatalogService interface {
	// Setup creates the user ID counter and the bootstrap administrator if
	// they do not exist yet.
	Setup(ctx context.Context) error

	Login(ctx context.Context, sess *session.Session, email, password string) error
	Logout(sess *session.Session)

	AddUser(ctx context.Context, sess *session.Session, email, password string, isAdmin bool) (models.User, error)
	DeleteUser(ctx context.Context, sess *session.Session, email string) error
	GetAdminEmails(ctx context.Context, sess *session.Session) ([]string, error)
	GetCommonEmails(ctx context.Context, sess *session.Session) ([]string, error)

	// CreateToken issues a bearer token for a logged-in session.
	CreateToken(ctx context.Context, sess *session.Session) (models.Token, error)
	// ParseToken verifies a bearer token and returns a logged-in session.
	ParseToken(ctx context.Context, token string) (*session.Session, error)
}

// ContentService stores user files and tool outputs and enforces the
// per-user access rules on their addresses.
type ContentService interface {
	AddFile(ctx context.Context, sess *session.Session, name string, content io.ReadSeeker, overwrite bool) (string, error)
	DeleteFile(ctx context.Context, sess *session.Session, uri string) (bool, error)
	GetFile(ctx context.Context, sess *session.Session, uri string) ([]byte, error)
	ListFileMetadata(ctx context.Context, sess *session.Session) ([]models.FileMetadata, error)

	// AddOutput stores a tool result. It is called by the server itself and
	// takes no session.
	AddOutput(ctx context.Context, toolName, contentType string, content []byte) (string, error)
	GetOutput(ctx context.Context, sess *session.Session, uri string) ([]byte, error)
	DeleteOutput(ctx context.Context, sess *session.Session, uri string) (bool, error)
}

// ProcessingService applies tools to stored files, either directly or
// through the request and completion queues.
type ProcessingService interface {
	AvailableTools(contentType string) []models.ToolDescriptor

	// Process runs toolName on the file at fileURI and returns the output
	// address.
	Process(ctx context.Context, sess *session.Session, fileURI, contentType, toolName string) (string, error)

	// SubmitRequest enqueues an asynchronous processing request.
	SubmitRequest(ctx context.Context, sess *session.Session, req models.ProcessingRequest) (models.ProcessingMessage, error)
	// HandleRequest processes one dequeued request and enqueues its
	// completion. A returned error releases the request for redelivery.
	HandleRequest(ctx context.Context, req models.ProcessingMessage) error
	// NextCompletion takes one completion off the queue, waiting up to wait.
	// ok is false when none arrived in time.
	NextCompletion(ctx context.Context, sess *session.Session, wait time.Duration) (msg models.ProcessingMessage, ok bool, err error)
}
