package adapter

import (
	"errors"
	"fmt"
)

var (
	ErrBadRequest          = errors.New("bad request")
	ErrUnauthorized        = errors.New("client unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrTooLarge            = errors.New("payload too large")
	ErrToolFailed          = errors.New("tool failed")
	ErrUnavailable         = errors.New("service unavailable")
	ErrInternalServerError = errors.New("internal server error")

	errEmptyAddress = errors.New("empty address")
)

// RejectedError is a KO line received from the dispatch server.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("dispatch rejected: %s", e.Reason)
}
