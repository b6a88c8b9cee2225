// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package app contains the application-wide error taxonomy and the
// human-readable messages shown to remote clients.
//
// Messages are written into HTTP response bodies and into the reason part of
// the dispatch protocol KO reply. Keeping them in one place ensures consistent
// wording across both transports.
package app

import "errors"

const (
	// MsgInvalidDataProvided is returned when the request body cannot be
	// decoded or fails basic validation (e.g. missing required fields).
	MsgInvalidDataProvided = "invalid data provided"

	// MsgInvalidLoginPassword is returned when the supplied email/password
	// combination does not match exactly one user record.
	MsgInvalidLoginPassword = "invalid email/password"

	// MsgInternalServerError is returned when an unexpected server-side
	// failure occurs that the client cannot resolve.
	MsgInternalServerError = "internal server error"

	// MsgTokenIsExpiredOrInvalid is returned when a JWT bearer token is
	// either expired or cannot be verified (e.g. wrong signature).
	MsgTokenIsExpiredOrInvalid = "token is expired or invalid"

	MsgLoginRequired   = "login required"
	MsgAdminRequired   = "admin required"
	MsgNotAuthorized   = "not authorized"
	MsgNotFound        = "not found"
	MsgToolNotFound    = "tool not found"
	MsgFileNotFound    = "file not found"
	MsgAlreadyExists   = "already exists"
	MsgToolFailed      = "tool failed"
	MsgDeliveryFailure = "delivery failure"
)

var reasons = []struct {
	target error
	msg    string
}{
	{ErrNoSuchUser, MsgInvalidLoginPassword},
	{ErrLoginRequired, MsgLoginRequired},
	{ErrAdminRequired, MsgAdminRequired},
	{ErrNotAuthorized, MsgNotAuthorized},
	{ErrToolNotFound, MsgToolNotFound},
	{ErrFileNotFound, MsgFileNotFound},
	{ErrNotFound, MsgNotFound},
	{ErrAlreadyExists, MsgAlreadyExists},
	{ErrInvalidArgument, MsgInvalidDataProvided},
	{ErrChannelDeliveryFailure, MsgDeliveryFailure},
	{ErrToolFailure, MsgToolFailed},
}

// ReasonFor maps err to the short message sent to remote clients.
// Diagnostic detail stays in the local error value.
func ReasonFor(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.target) {
			return r.msg
		}
	}
	return MsgInternalServerError
}
