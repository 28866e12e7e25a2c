package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateNumber is returned when an invoice number is already
	// used by another invoice in the same project.
	ErrDuplicateNumber = errors.New("invoice number already used in this project")

	// ErrLinkConflict is returned when a voucher selected for an invoice
	// was attached to a different invoice between selection and save.
	ErrLinkConflict = errors.New("voucher is already linked to another invoice")

	// ErrStorage is returned when a document storage operation fails.
	ErrStorage = errors.New("document storage operation failed")
)

// ValidationError reports missing or out-of-range fields on a record.
// Fields maps a field name to a short problem description.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// NewValidationError creates a ValidationError with an empty field map
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records a problem for the given field
func (e *ValidationError) Add(field, problem string) {
	e.Fields[field] = problem
}

// OrNil returns the error, or nil when no field problems were recorded
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
