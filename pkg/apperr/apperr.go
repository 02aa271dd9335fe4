// Package apperr defines the error taxonomy shared by stores, services and handlers.
//
// Handlers translate these into HTTP responses through pkg/response:
//   - *ValidationError: malformed or missing input (400)
//   - ErrNotFound: unknown id (404)
//   - *StoreError: the backing store was unreachable or rejected the operation (500)
package apperr

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned (optionally wrapped) when a key or record does not exist.
var ErrNotFound = errors.New("not found")

// Validation reasons.
const (
	ReasonMissingField      = "missing field"
	ReasonInvalidEmail      = "invalid email"
	ReasonInvalidPhone      = "invalid phone"
	ReasonInvalidCountry    = "invalid country"
	ReasonInvalidSpecialty  = "invalid specialty"
	ReasonInvalidExperience = "invalid experience"
	ReasonInvalidStatus     = "invalid status"
	ReasonInvalidBody       = "invalid request body"
)

// ValidationError reports rejected input.
type ValidationError struct {
	Reason string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return e.Reason
	}
	return e.Reason + ": " + e.Detail
}

// Validation builds a ValidationError.
func Validation(reason, detail string) error {
	return &ValidationError{Reason: reason, Detail: detail}
}

// StoreError wraps a failure of the underlying key-value store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Store wraps err as a StoreError unless it is nil or already a not-found.
func Store(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// IsValidation reports whether err is a ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
