package services

import (
	"errors"
	"fmt"

	"github.com/diewo77/go-crm/internal/validation"
)

// Error taxonomy surfaced by every service. Services never retry, suppress or
// degrade; the handler layer owns the translation to HTTP status codes.
var (
	// ErrNotFound covers both absent rows and rows owned by another user.
	ErrNotFound = errors.New("not_found")
	// ErrUnauthorized means no verified caller identity was supplied.
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError reports input that fails schema checks.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", map[string]string(e.Violations))
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field, code string) *ValidationError {
	return &ValidationError{Violations: validation.Violations{field: code}}
}

// StorageError wraps a database or filesystem failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "storage: " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
