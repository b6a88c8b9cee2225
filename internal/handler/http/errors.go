// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"fmt"

	"github.com/MKhiriev/go-proc-box/internal/app"
)

// Sentinel errors used by the authentication middleware when parsing the
// "Authorization" HTTP header. All of them are [app.ErrNotAuthenticated].
var (
	// ErrEmptyAuthorizationHeader is returned when the request has no
	// "Authorization" header at all.
	ErrEmptyAuthorizationHeader = fmt.Errorf("empty `Authorization` header: %w", app.ErrNotAuthenticated)

	// ErrInvalidAuthorizationHeader is returned when the header is not of the
	// form "Bearer <token>".
	ErrInvalidAuthorizationHeader = fmt.Errorf("invalid `Authorization` header: %w", app.ErrNotAuthenticated)

	// ErrEmptyToken is returned when the bearer scheme is present but the
	// token itself is empty.
	ErrEmptyToken = fmt.Errorf("empty token in `Authorization` header: %w", app.ErrNotAuthenticated)
)

// ErrContentHashMismatch is returned when an upload does not match its
// declared digest.
var ErrContentHashMismatch = fmt.Errorf("content hash mismatch: %w", app.ErrInvalidArgument)
