// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides the client side of the go-proc-box transports.
//
// [ServerAdapter] talks to the HTTP API and is what the command-line client
// is written against. [DispatchClient] speaks the line-oriented dispatch
// protocol for synchronous processing.
//
// Non-2xx HTTP responses are mapped to the sentinels in errors.go, so callers
// can use [errors.Is] (e.g. [ErrConflict] for 409, [ErrUnauthorized] for 401).
package adapter

import (
	"context"
	"time"

	"github.com/MKhiriev/go-proc-box/models"
)

// ServerAdapter is the client view of the HTTP API. Every call except Login
// and Version needs the bearer token obtained by Login.
type ServerAdapter interface {
	// SetToken stores the bearer token attached to subsequent requests.
	SetToken(token string)

	// Token returns the stored bearer token, or "".
	Token() string

	// Login authenticates and stores the issued token.
	Login(ctx context.Context, email, password string) (models.User, error)

	AddUser(ctx context.Context, req models.AddUserRequest) (models.User, error)
	DeleteUser(ctx context.Context, email string) error
	ListAdminEmails(ctx context.Context) ([]string, error)
	ListCommonEmails(ctx context.Context) ([]string, error)

	// UploadFile stores content as the caller's file name and returns its
	// address. The body carries a BLAKE3 integrity digest.
	UploadFile(ctx context.Context, name string, content []byte, overwrite bool) (string, error)
	ListFiles(ctx context.Context) ([]models.FileMetadata, error)
	DownloadFile(ctx context.Context, uri string) ([]byte, error)
	DeleteFile(ctx context.Context, uri string) error
	DownloadOutput(ctx context.Context, uri string) ([]byte, error)
	DeleteOutput(ctx context.Context, uri string) error

	ListTools(ctx context.Context, contentType string) ([]models.ToolDescriptor, error)

	// SubmitRequest enqueues an asynchronous processing request.
	SubmitRequest(ctx context.Context, req models.ProcessingRequest) (models.ProcessingMessage, error)

	// NextCompletion long-polls up to wait for a completion. ok is false
	// when none arrived.
	NextCompletion(ctx context.Context, wait time.Duration) (msg models.ProcessingMessage, ok bool, err error)

	Version(ctx context.Context) (models.AppBuildInfo, error)
}
