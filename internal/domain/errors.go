package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a feed or feed item does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned on slug uniqueness violations, including
	// duplicate slugs within a single bulk payload.
	ErrConflict = errors.New("conflict")
	// ErrPayloadTooLarge is returned when a bulk upsert payload exceeds the
	// active window size.
	ErrPayloadTooLarge = errors.New("payload too large")
)

// ValidationError reports a field that failed input validation. It is always
// raised before any storage access.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
