package app

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpecificErrorsWrapTaxonomy(t *testing.T) {
	tests := []struct {
		err    error
		target error
	}{
		{ErrLoginRequired, ErrNotAuthenticated},
		{ErrAdminRequired, ErrNotAuthorized},
		{ErrUnauthorizedDelete, ErrNotAuthorized},
		{ErrUnauthorizedAccess, ErrNotAuthorized},
		{ErrCannotDeleteUser, ErrNotAuthorized},
		{ErrNoSuchUser, ErrNotFound},
		{ErrUserNotFound, ErrNotFound},
		{ErrFileNotFound, ErrNotFound},
		{ErrToolNotFound, ErrNotFound},
		{ErrFileAlreadyExists, ErrAlreadyExists},
		{ErrUserAlreadyExists, ErrAlreadyExists},
		{RequiredArgument("email"), ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.target)
		})
	}
}

func TestReasonFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"no such user", fmt.Errorf("login: %w", ErrNoSuchUser), MsgInvalidLoginPassword},
		{"login required", ErrLoginRequired, MsgLoginRequired},
		{"admin required", ErrAdminRequired, MsgAdminRequired},
		{"wrong owner", ErrUnauthorizedAccess, MsgNotAuthorized},
		{"tool not found", ErrToolNotFound, MsgToolNotFound},
		{"file not found", fmt.Errorf("get: %w", ErrFileNotFound), MsgFileNotFound},
		{"already exists", ErrFileAlreadyExists, MsgAlreadyExists},
		{"invalid argument", RequiredArgument("name"), MsgInvalidDataProvided},
		{"tool failure", fmt.Errorf("md5: %w", ErrToolFailure), MsgToolFailed},
		{"unknown", errors.New("disk on fire"), MsgInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReasonFor(tt.err))
		})
	}
}
