// Package errors provides standardized error handling for the retrieval service.
package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode represents a standardized error code for the retrieval service.
type ErrorCode string

const (
	// Request validation errors
	RTV_BAD_REQUEST        ErrorCode = "RTV_BAD_REQUEST"        // Bad request
	RTV_METHOD_NOT_ALLOWED ErrorCode = "RTV_METHOD_NOT_ALLOWED" // Unsupported HTTP method

	// Pipeline errors. These all surface as 500 responses: the retrieval is
	// all-or-nothing, so any of them invalidates the whole batch.
	RTV_INVALID_DIRECTORY ErrorCode = "RTV_INVALID_DIRECTORY" // Starting directory timestamp unparseable
	RTV_REMOTE            ErrorCode = "RTV_REMOTE"            // Non-success status or malformed result set from the console
	RTV_MISSING_INFERENCE ErrorCode = "RTV_MISSING_INFERENCE" // Inference result set empty or payload field absent
	RTV_DECODE            ErrorCode = "RTV_DECODE"            // Binary inference payload cannot be decoded

	// Server errors
	RTV_CONFIGURATION ErrorCode = "RTV_CONFIGURATION" // Console client cannot be constructed
	RTV_INTERNAL      ErrorCode = "RTV_INTERNAL"      // Internal server error
	RTV_UNAVAILABLE   ErrorCode = "RTV_UNAVAILABLE"   // Service unavailable
)

// Error represents a standardized error for the retrieval service.
type Error struct {
	Code          ErrorCode   `json:"code"`
	Message       string      `json:"message"`
	CorrelationID string      `json:"correlationId"`
	Details       interface{} `json:"details,omitempty"`
	HTTPStatus    int         `json:"-"`
}

// New creates a new Error with the specified code and message.
func New(code ErrorCode, message string, correlationID string) *Error {
	return &Error{
		Code:          code,
		Message:       message,
		CorrelationID: correlationID,
		HTTPStatus:    httpStatusCodeForCode(code),
	}
}

// NewWithDetails creates a new Error with the specified code, message, and details.
func NewWithDetails(code ErrorCode, message string, correlationID string, details interface{}) *Error {
	return &Error{
		Code:          code,
		Message:       message,
		CorrelationID: correlationID,
		Details:       details,
		HTTPStatus:    httpStatusCodeForCode(code),
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("%s: %s (details: %v)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// httpStatusCodeForCode maps error codes to HTTP status codes.
func httpStatusCodeForCode(code ErrorCode) int {
	switch code {
	case RTV_BAD_REQUEST:
		return http.StatusBadRequest
	case RTV_METHOD_NOT_ALLOWED:
		return http.StatusMethodNotAllowed
	case RTV_INVALID_DIRECTORY, RTV_REMOTE, RTV_MISSING_INFERENCE, RTV_DECODE:
		return http.StatusInternalServerError
	case RTV_UNAVAILABLE:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
