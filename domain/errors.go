package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Registration errors
var (
	ErrDuplicateIdentity     = errors.New("an account with this email already exists")
	ErrNoPendingRegistration = errors.New("no pending registration for this email")
	ErrOTPMismatch           = errors.New("invalid otp code")
	ErrOTPExpired            = errors.New("otp has expired")
	ErrDeliveryFailed        = errors.New("otp delivery failed")
)

// Authentication errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownAccount     = fmt.Errorf("%w: no account found for this email", ErrInvalidCredentials)
	ErrWrongPassword      = fmt.Errorf("%w: incorrect password", ErrInvalidCredentials)
	ErrIdentityNotFound   = errors.New("identity not found")
)

// Session errors
var (
	ErrInvalidAssertion = errors.New("invalid session token")
	ErrUnauthenticated  = errors.New("authentication required")
	ErrForbidden        = errors.New("insufficient role permissions")
)

// ValidationError enumerates the request fields that failed validation
type ValidationError struct {
	Fields []FieldError
}

// FieldError describes a single violated field
type FieldError struct {
	Field  string
	Reason string
}

// NewValidationError builds a ValidationError for one field
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Reason: reason}}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s %s", f.Field, f.Reason))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsValidationError reports whether err carries a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
