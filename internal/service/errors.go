package service

import (
	"errors"
	"fmt"

	"github.com/MKhiriev/go-proc-box/internal/app"
)

var (
	// ErrTokenIsExpiredOrInvalid is returned by ParseToken for any token that
	// fails verification.
	ErrTokenIsExpiredOrInvalid = fmt.Errorf("token is expired or invalid: %w", app.ErrNotAuthenticated)

	ErrTokenCreationFailed = errors.New("token creation failed")

	// ErrCounterContention is returned when the user ID counter kept changing
	// under every allocation attempt.
	ErrCounterContention = errors.New("user id counter contention")

	ErrInvalidURI = fmt.Errorf("invalid address: %w", app.ErrInvalidArgument)
)
