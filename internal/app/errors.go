// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package app

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every layer. Specific errors below wrap one of
// these so callers can match either the precise condition or its class
// with [errors.Is].
var (
	ErrNotAuthenticated       = errors.New("not authenticated")
	ErrNotAuthorized          = errors.New("not authorized")
	ErrNotFound               = errors.New("not found")
	ErrAlreadyExists          = errors.New("already exists")
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrChannelDeliveryFailure = errors.New("channel delivery failure")

	// ErrToolFailure covers every failed tool invocation, including timeouts.
	ErrToolFailure = errors.New("tool failure")
)

var (
	// ErrLoginRequired is returned when an operation needs a logged-in session.
	ErrLoginRequired = fmt.Errorf("login required: %w", ErrNotAuthenticated)

	// ErrAdminRequired is returned when a logged-in common user calls an
	// administrator-only operation.
	ErrAdminRequired = fmt.Errorf("admin required: %w", ErrNotAuthorized)

	// ErrUnauthorizedDelete is returned when a common user tries to delete a
	// file owned by somebody else.
	ErrUnauthorizedDelete = fmt.Errorf("unauthorized delete: %w", ErrNotAuthorized)

	// ErrUnauthorizedAccess is returned when a common user tries to read a
	// file owned by somebody else.
	ErrUnauthorizedAccess = fmt.Errorf("unauthorized access: %w", ErrNotAuthorized)

	// ErrCannotDeleteUser is returned when deleting the bootstrap admin.
	ErrCannotDeleteUser = fmt.Errorf("cannot delete default admin: %w", ErrNotAuthorized)

	ErrNoSuchUser   = fmt.Errorf("no such user: %w", ErrNotFound)
	ErrUserNotFound = fmt.Errorf("user not found: %w", ErrNotFound)
	ErrFileNotFound = fmt.Errorf("file not found: %w", ErrNotFound)
	ErrToolNotFound = fmt.Errorf("tool not found: %w", ErrNotFound)

	ErrFileAlreadyExists = fmt.Errorf("file already exists: %w", ErrAlreadyExists)
	ErrUserAlreadyExists = fmt.Errorf("user already exists: %w", ErrAlreadyExists)
)

// RequiredArgument builds an [ErrInvalidArgument] naming the missing parameter.
func RequiredArgument(name string) error {
	return fmt.Errorf("%w: %s is required", ErrInvalidArgument, name)
}

// ErrOutputNotFound is returned when no tool output is stored at an address.
var ErrOutputNotFound = fmt.Errorf("output not found: %w", ErrNotFound)
