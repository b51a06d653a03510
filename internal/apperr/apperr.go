// Package apperr holds the error taxonomy shared by the gateway, the
// dispatcher and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the addressed record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the caller may not act on the record.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError rejects a write before anything is persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Validation builds a *ValidationError.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
