// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package validators checks the shape of inbound request bodies before they
// reach the service layer.
//
// A [Validator] validates a whole value or, when field names are given, only
// those fields. Every failure wraps app.ErrInvalidArgument, so transports map
// it to their "invalid data" reply without further inspection.
package validators

import "context"

// Validator defines a generic validation interface for request values.
type Validator interface {
	// Validate validates the provided input and optionally restricts
	// validation to specific named fields.
	Validate(context.Context, any, ...string) error
}
