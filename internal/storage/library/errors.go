package library

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no row matches the requested ID.
var ErrNotFound = errors.New("not found")

// ErrDuplicateTitle is returned when adding or renaming a book to a title
// that another book already uses. Titles are compared case-sensitively.
var ErrDuplicateTitle = errors.New("a book with this title already exists")

// ValidationError reports a field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func missingField(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: "is required"}
}
