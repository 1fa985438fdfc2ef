package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies workflow operation failures so controllers can map them
// to HTTP statuses without inspecting message text.
type ErrorKind string

const (
	// ErrorValidation signals missing or malformed input.
	ErrorValidation ErrorKind = "validation"

	// ErrorPermission signals the actor lacks the required relationship
	// (not owner, not an assigned reviewer, verification incomplete).
	ErrorPermission ErrorKind = "permission"

	// ErrorState signals the operation is invalid for the current status,
	// e.g. a duplicate review or a resubmit outside revision_requested.
	ErrorState ErrorKind = "state"

	// ErrorNotFound signals a referenced abstract, reviewer, or event is absent.
	ErrorNotFound ErrorKind = "not_found"

	// ErrorConflict signals a concurrent modification detected by the
	// version check.
	ErrorConflict ErrorKind = "conflict"
)

// Error is the typed failure returned by every workflow operation.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap supports errors.Is and errors.As traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ValidationError reports missing or invalid input.
func ValidationError(format string, args ...interface{}) *Error {
	return newError(ErrorValidation, format, args...)
}

// PermissionError reports a missing actor relationship or capability.
func PermissionError(format string, args ...interface{}) *Error {
	return newError(ErrorPermission, format, args...)
}

// StateError reports an operation invalid for the current status.
func StateError(format string, args ...interface{}) *Error {
	return newError(ErrorState, format, args...)
}

// NotFoundError reports an absent referenced entity.
func NotFoundError(format string, args ...interface{}) *Error {
	return newError(ErrorNotFound, format, args...)
}

// ConflictError reports a concurrent modification detected by a version check.
func ConflictError(format string, args ...interface{}) *Error {
	return newError(ErrorConflict, format, args...)
}

// InternalError wraps an unexpected persistence failure. It carries no kind
// and maps to HTTP 500.
func InternalError(message string, cause error) error {
	return fmt.Errorf("%s: %w", message, cause)
}

// KindOf extracts the error kind, or "" for untyped errors.
func KindOf(err error) ErrorKind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return ""
}
