package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Common error types
var (
	// Configuration errors
	ErrMissingAPIKey = New("API key is required")
	ErrInvalidAPIKey = New("invalid API key format")
	ErrMissingConfig = New("configuration is required")
	ErrInvalidConfig = New("invalid configuration")

	// Marker errors
	ErrMarkerNotFound    = New("marker not found")
	ErrMarkerProtected   = New("marker is protected")
	ErrMarkerTooClose    = New("marker too close to an existing marker")
	ErrMarkerOutOfRange  = New("marker time out of range")
	ErrMarkerLimit       = New("marker limit reached")
	ErrNothingToUndo     = New("nothing to undo")
	ErrNothingToRedo     = New("nothing to redo")

	// Playback errors
	ErrPlayerNotRunning  = New("player process is not running")
	ErrSocketUnavailable = New("player control socket unavailable")
	ErrCommandFailed     = New("player command failed")
	ErrSegmentNotFound   = New("segment not found")

	// Provider errors
	ErrProviderNotFound = New("provider not found")
	ErrProviderDisabled = New("provider is disabled")
	ErrProviderTimeout  = New("provider timeout")

	// Database errors
	ErrDatabaseConnection = New("database connection failed")
	ErrQueryFailed        = New("query failed")
	ErrInsertFailed       = New("insert failed")

	// File errors
	ErrFileNotFound   = New("file not found")
	ErrFileReadFailed = New("file read failed")
)

// Error represents a standardized error
type Error struct {
	message string
	cause   error
}

// New creates a new error
func New(message string) *Error {
	return &Error{message: message}
}

// Newf creates a new formatted error
func Newf(format string, args ...interface{}) *Error {
	return &Error{message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		message: message,
		cause:   err,
	}
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{
		message: fmt.Sprintf(format, args...),
		cause:   err,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// Is checks if the error matches target
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.message == t.message
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain matching target's type.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// Join combines multiple errors into one.
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}

// Helper functions for common patterns

// RequiredField returns an error for missing required fields
func RequiredField(field string) error {
	return Newf("%s is required", field)
}

// InvalidField returns an error for invalid field values
func InvalidField(field string, reason string) error {
	return Newf("%s is invalid: %s", field, reason)
}

// OutOfRange returns an error for values outside acceptable range
func OutOfRange(field string, min, max interface{}) error {
	return Newf("%s out of range (must be between %v and %v)", field, min, max)
}

// NotFound returns an error for items that were not found
func NotFound(itemType string, identifier string) error {
	return Newf("%s not found: %s", itemType, identifier)
}

// Timeout returns a timeout error
func Timeout(operation string, duration string) error {
	return Newf("%s timeout after %s", operation, duration)
}

// IsRetryable reports whether a player command error is worth retrying.
// mpv reports transient failures while a file is still loading.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "property unavailable") ||
		strings.Contains(msg, "error running command")
}
