package validators

import (
	"context"
	"strings"
	"unicode"

	"github.com/MKhiriev/go-proc-box/models"
)

const (
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldFileURI  = "file_uri"
	FieldToolName = "tool_name"
)

// maxEmailLength follows the SMTP path limit.
const maxEmailLength = 254

type RequestValidator struct{}

func NewRequestValidator() Validator {
	return &RequestValidator{}
}

func (v *RequestValidator) Validate(_ context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.LoginRequest:
		return v.validateLogin(value, fields...)
	case *models.LoginRequest:
		return v.validateLogin(*value, fields...)

	case models.AddUserRequest:
		return v.validateAddUser(value, fields...)
	case *models.AddUserRequest:
		return v.validateAddUser(*value, fields...)

	case models.ProcessingRequest:
		return v.validateProcessing(value, fields...)
	case *models.ProcessingRequest:
		return v.validateProcessing(*value, fields...)

	default:
		return ErrUnsupportedType
	}
}

// validateLogin only rejects missing credentials. Wrong ones are the
// catalog's business.
func (v *RequestValidator) validateLogin(req models.LoginRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldEmail, FieldPassword}
	}

	for _, f := range fields {
		switch f {
		case FieldEmail:
			if strings.TrimSpace(req.Email) == "" {
				return ErrEmptyEmail
			}
		case FieldPassword:
			if req.Password == "" {
				return ErrEmptyPassword
			}
		default:
			return ErrUnknownField
		}
	}
	return nil
}

func (v *RequestValidator) validateAddUser(req models.AddUserRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldEmail, FieldPassword}
	}

	for _, f := range fields {
		switch f {
		case FieldEmail:
			if err := validateEmail(req.Email); err != nil {
				return err
			}
		case FieldPassword:
			if req.Password == "" {
				return ErrEmptyPassword
			}
		default:
			return ErrUnknownField
		}
	}
	return nil
}

func (v *RequestValidator) validateProcessing(req models.ProcessingRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldFileURI, FieldToolName}
	}

	for _, f := range fields {
		switch f {
		case FieldFileURI:
			if strings.TrimSpace(req.FileURI) == "" {
				return ErrEmptyFileURI
			}
		case FieldToolName:
			if strings.TrimSpace(req.ToolName) == "" {
				return ErrEmptyToolName
			}
		default:
			return ErrUnknownField
		}
	}
	return nil
}

// validateEmail accepts a single local@domain token. Emails travel as one
// line of the dispatch protocol, so whitespace and control characters are
// refused.
func validateEmail(email string) error {
	if email == "" {
		return ErrEmptyEmail
	}
	if len(email) > maxEmailLength || strings.ContainsFunc(email, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}) {
		return ErrInvalidEmail
	}

	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" || strings.Contains(domain, "@") {
		return ErrInvalidEmail
	}
	return nil
}
