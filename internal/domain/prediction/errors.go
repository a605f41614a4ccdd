package prediction

import (
	"errors"
	"fmt"
)

// ErrModelUnavailable is returned when no model snapshot is loaded. The
// request fails hard; only operator intervention can fix it.
var ErrModelUnavailable = errors.New("model not loaded")

// ValidationError rejects a request before any downstream component runs.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// PersistenceError means the local delivery store write failed. The request
// fails hard: promising an untracked delivery would break the resilience
// guarantee the store exists to provide.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist report: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsPersistenceError reports whether err is (or wraps) a PersistenceError.
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
