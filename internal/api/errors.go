package api

import (
	"fmt"
	"net/http"
)

// Error represents an API error response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *Error) Error() string {
	return e.Message
}

// Common error codes
const (
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeMalformedPayload  = "MALFORMED_PAYLOAD"
	ErrCodeUnresolvedService = "UNRESOLVED_SERVICE"
	ErrCodeSinkUnavailable   = "SINK_UNAVAILABLE"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// Standard errors
var (
	ErrMissingToken = &Error{
		Code:    ErrCodeUnauthorized,
		Message: "Missing authentication token",
		Status:  http.StatusUnauthorized,
	}

	ErrInvalidToken = &Error{
		Code:    ErrCodeForbidden,
		Message: "Invalid authentication token",
		Status:  http.StatusForbidden,
	}

	ErrInternalServer = &Error{
		Code:    ErrCodeInternalError,
		Message: "Internal server error",
		Status:  http.StatusInternalServerError,
	}
)

// NewMalformedPayload creates an error for an unparseable webhook body.
func NewMalformedPayload(message string) *Error {
	return &Error{
		Code:    ErrCodeMalformedPayload,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// NewUnresolvedService creates an error for an event that matched no
// catalog service while the persistence mode required one.
func NewUnresolvedService(resource, url string) *Error {
	return &Error{
		Code:    ErrCodeUnresolvedService,
		Message: fmt.Sprintf("no service matches resource %q or url %q", resource, url),
		Status:  http.StatusBadRequest,
	}
}

// NewSinkUnavailable creates an error for a failed sink write.
func NewSinkUnavailable(message string) *Error {
	return &Error{
		Code:    ErrCodeSinkUnavailable,
		Message: message,
		Status:  http.StatusInternalServerError,
	}
}
