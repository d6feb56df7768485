// Package apperrors provides the error taxonomy shared by the relay and the query engine.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeMalformedRequest ErrorCode = "MALFORMED_REQUEST"
	ErrCodeMisconfigured    ErrorCode = "MISCONFIGURED"
	ErrCodeUpstream         ErrorCode = "UPSTREAM_ERROR"
	ErrCodeInvalidQuery     ErrorCode = "INVALID_QUERY"
	ErrCodeInternal         ErrorCode = "INTERNAL"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	// Status is the HTTP status the error maps to at the boundary.
	Status int `json:"-"`
}

func (e *StandardError) Error() string {
	if e.Details == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Details)
}

// NewMalformedRequestError creates an error for invalid JSON or missing fields.
func NewMalformedRequestError(details string) *StandardError {
	return &StandardError{
		Code:    ErrCodeMalformedRequest,
		Message: "Malformed request",
		Details: details,
		Status:  http.StatusBadRequest,
	}
}

// NewMisconfiguredError creates an error for a missing credential or setting.
func NewMisconfiguredError(details string) *StandardError {
	return &StandardError{
		Code:    ErrCodeMisconfigured,
		Message: "Server misconfigured",
		Details: details,
		Status:  http.StatusInternalServerError,
	}
}

// NewUpstreamError carries a non-success completion response through unchanged.
func NewUpstreamError(provider string, status int, body string) *StandardError {
	if status < 400 || status > 599 {
		status = http.StatusBadGateway
	}
	return &StandardError{
		Code:    ErrCodeUpstream,
		Message: provider + " API error",
		Details: body,
		Status:  status,
	}
}

// NewInvalidQueryError creates an error for an unrecognized query type.
func NewInvalidQueryError(queryType string) *StandardError {
	return &StandardError{
		Code:    ErrCodeInvalidQuery,
		Message: "Invalid query type",
		Details: fmt.Sprintf("queryType: %q", queryType),
		Status:  http.StatusBadRequest,
	}
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:    ErrCodeInternal,
		Message: "Internal server error",
		Details: details,
		Status:  http.StatusInternalServerError,
	}
}

// As returns the StandardError in err's chain, converting anything else to INTERNAL.
func As(err error) *StandardError {
	var se *StandardError
	if errors.As(err, &se) {
		return se
	}
	return NewInternalError(err)
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	var se *StandardError
	return errors.As(err, &se) && se.Code == code
}
