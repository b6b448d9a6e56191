package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeClientError ErrorType = "client_error"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeIO          ErrorType = "io"
	ErrorTypeConfig      ErrorType = "config"
	ErrorTypeCancelled   ErrorType = "cancelled"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a typed scraper error
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error (code %d): %s: %v", e.Type, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error
func New(errorType ErrorType, code int, message string) *Error {
	return &Error{Type: errorType, Code: code, Message: message}
}

// Wrap creates a typed error around a cause
func Wrap(errorType ErrorType, code int, message string, err error) *Error {
	return &Error{Type: errorType, Code: code, Message: message, Err: err}
}

// FromStatus builds an error for a non-2xx HTTP status
func FromStatus(statusCode int) *Error {
	msg := fmt.Sprintf("unexpected status %d %s", statusCode, http.StatusText(statusCode))
	switch {
	case statusCode == http.StatusTooManyRequests:
		return New(ErrorTypeRateLimit, statusCode, msg)
	case statusCode >= 500:
		return New(ErrorTypeServerError, statusCode, msg)
	default:
		return New(ErrorTypeClientError, statusCode, msg)
	}
}

// TypeOf returns the ErrorType of err, or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	var typed *Error
	if stderrors.As(err, &typed) {
		return typed.Type
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeCancelled
	}
	return ErrorTypeUnknown
}

// IsRetryable checks if an error type should be retried.
// Any failed HTTP exchange with the API counts as transient, including a 2xx
// whose body is not the expected JSON.
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError, ErrorTypeClientError, ErrorTypeParsing:
		return true
	default:
		return false
	}
}
