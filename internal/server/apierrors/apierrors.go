// Package apierrors defines the JSON error envelope returned by the
// HTTP API and the mapping from domain errors to HTTP status codes.
package apierrors

import (
	"fmt"
	"net/http"

	"mp3player/internal/app/errors"
)

// Kind classifies an API error for clients.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindBadRequest         Kind = "bad_request"
	KindNotFound           Kind = "not_found"
	KindConflict           Kind = "conflict"
	KindInternal           Kind = "internal"
	KindServiceUnavailable Kind = "service_unavailable"
)

// APIError is the error body every non-2xx response carries.
type APIError struct {
	Kind      Kind              `json:"kind"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// HTTPStatus maps the error kind to a status code.
func (e *APIError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewValidation reports invalid request fields.
func NewValidation(message string, fields map[string]string) *APIError {
	return &APIError{Kind: KindValidation, Message: message, Details: fields}
}

// NewBadRequest reports a malformed request.
func NewBadRequest(message string) *APIError {
	return &APIError{Kind: KindBadRequest, Message: message}
}

// NewNotFound reports a missing resource.
func NewNotFound(resource string) *APIError {
	return &APIError{Kind: KindNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

// NewInternal reports an unexpected server-side failure.
func NewInternal(message string) *APIError {
	return &APIError{Kind: KindInternal, Message: message}
}

// NewServiceUnavailable reports a disabled or unreachable dependency.
func NewServiceUnavailable(message string) *APIError {
	return &APIError{Kind: KindServiceUnavailable, Message: message}
}

// FromDomain converts a domain error into its API envelope. Unknown
// errors become internal errors with a generic message so internals do
// not leak to clients.
func FromDomain(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, errors.ErrFileNotFound),
		errors.Is(err, errors.ErrProviderNotFound):
		return &APIError{Kind: KindNotFound, Message: err.Error()}
	case errors.Is(err, errors.ErrProviderDisabled),
		errors.Is(err, errors.ErrMissingAPIKey):
		return &APIError{Kind: KindServiceUnavailable, Message: err.Error()}
	case errors.Is(err, errors.ErrInvalidConfig):
		return &APIError{Kind: KindBadRequest, Message: err.Error()}
	default:
		return NewInternal("internal server error")
	}
}
