package errors

import (
	"context"
	stderrors "errors"
	"net/http"
)

// APIError is the error shape shared by the session service and its client.
// Status 0 means no response was received.
type APIError struct {
	Status  int         `json:"-"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

func (e *APIError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the same request could succeed:
// no response, 5xx, or 429.
func (e *APIError) Retryable() bool {
	if e.Status == 0 {
		return true
	}
	if e.Status >= 500 && e.Status < 600 {
		return true
	}
	return e.Status == http.StatusTooManyRequests
}

func New(status int, code, message string) *APIError {
	return &APIError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func Internal(message string) *APIError {
	if message == "" {
		message = "internal server error"
	}
	return New(http.StatusInternalServerError, "internal_error", message)
}

func BadRequest(code, message string) *APIError {
	return New(http.StatusBadRequest, code, message)
}

func Unauthorized(message string) *APIError {
	if message == "" {
		message = "unauthorized"
	}
	return New(http.StatusUnauthorized, "unauthorized", message)
}

func Forbidden(message string) *APIError {
	if message == "" {
		message = "forbidden"
	}
	return New(http.StatusForbidden, "forbidden", message)
}

func NotFound(code, message string) *APIError {
	return New(http.StatusNotFound, code, message)
}

func Conflict(code, message string, details interface{}) *APIError {
	err := New(http.StatusConflict, code, message)
	err.Details = details
	return err
}

// Network wraps a transport failure where the server never answered.
func Network(err error) *APIError {
	return &APIError{
		Code:    "network_error",
		Message: "unable to reach the server",
		Err:     err,
	}
}

// IsRetryable classifies any error returned by the API client. Caller
// cancellation is never retryable; a per-request deadline is.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return stderrors.Is(err, context.DeadlineExceeded)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// UserMessage turns err into text fit for a transient notification.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return "The request took too long to complete. Please try again."
	}
	var apiErr *APIError
	if !stderrors.As(err, &apiErr) {
		return err.Error()
	}
	switch {
	case apiErr.Status == 0:
		return "Unable to connect to the server. Please check your connection and try again."
	case apiErr.Status == http.StatusUnauthorized:
		return "Your session has expired. Please log in again."
	case apiErr.Status == http.StatusTooManyRequests:
		return "Too many requests. Please slow down and try again."
	case apiErr.Status >= 500:
		return "We encountered an unexpected error. Don't worry, your streak is safe and sound."
	case apiErr.Message != "":
		return apiErr.Message
	default:
		return http.StatusText(apiErr.Status)
	}
}
