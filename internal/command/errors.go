package command

import (
	"fmt"

	"github.com/keshon/gdbot/internal/permission"
)

// FailedError is an expected failure whose message is shown to the user.
type FailedError struct {
	Message string
	Err     error
}

func (e *FailedError) Error() string { return e.Message }
func (e *FailedError) Unwrap() error { return e.Err }

// Failed builds a FailedError from a format string.
func Failed(format string, args ...any) error {
	return &FailedError{Message: fmt.Sprintf(format, args...)}
}

// FailedWrap keeps err as the cause behind a user-facing message.
func FailedWrap(err error, format string, args ...any) error {
	return &FailedError{Message: fmt.Sprintf(format, args...), Err: err}
}

// ValidationError reports bad user input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Invalid builds a ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// PermissionDeniedError is returned by the permission gate. The requirement
// is kept for logs only and never shown to the user.
type PermissionDeniedError struct {
	Command     string
	Requirement permission.Requirement
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied for %q (name=%q level=%s)", e.Command, e.Requirement.Name, e.Requirement.Level)
}

// PanicError carries a recovered panic and its stack.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }
