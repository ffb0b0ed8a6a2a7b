package core

import (
	"errors"
	"fmt"
)

// ValidationError reports an input field that failed a static constraint
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports a lookup key with no matching payment
type NotFoundError struct {
	Key   string
	Value string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("payment not found with %s: %s", e.Key, e.Value)
}

// InvalidStateError reports a transition that is illegal from the current status
type InvalidStateError struct {
	Operation string
	Current   PaymentStatus
	Message   string
}

func (e *InvalidStateError) Error() string {
	return e.Message
}

// ConflictError reports that another writer saved the payment after it was read
type ConflictError struct {
	ID      int64
	Version int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("payment %d was modified concurrently (read version %d)", e.ID, e.Version)
}

// IsValidation reports whether err is or wraps a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is or wraps a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsInvalidState reports whether err is or wraps an InvalidStateError
func IsInvalidState(err error) bool {
	var ise *InvalidStateError
	return errors.As(err, &ise)
}

// IsConflict reports whether err is or wraps a ConflictError
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
