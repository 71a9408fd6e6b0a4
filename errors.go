package struai

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

func asError[T error](err error, target *T) bool {
	return errors.As(err, target)
}

// APIError is an error response returned by the StruAI API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	s := e.Message
	if e.Code != "" {
		s += fmt.Sprintf(" code=%s", e.Code)
	}
	if e.StatusCode != 0 {
		s += fmt.Sprintf(" status=%d", e.StatusCode)
	}
	return s
}

// RateLimitError is a 429 response. RetryAfter carries the server-supplied
// wait hint, falling back to 30s when the header was absent.
type RateLimitError struct {
	APIError
	RetryAfter time.Duration
}

func (e *RateLimitError) Unwrap() error { return &e.APIError }

// TransportError wraps a request timeout or connection failure.
type TransportError struct {
	Op      string
	Timeout bool
	Err     error
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: request timed out: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: connection failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// JobFailedError reports a job that reached its terminal failed state.
// Retrying Wait on such a job is pointless; the status will not change.
type JobFailedError struct {
	JobID  string
	Reason string
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("job %s failed: %s", e.JobID, e.Reason)
}

// JobTimeoutError reports that a job did not reach a terminal state within
// the wait budget. The job may still be running server-side; retrying the
// wait is reasonable.
type JobTimeoutError struct {
	JobID   string
	Timeout time.Duration
}

func (e *JobTimeoutError) Error() string {
	return fmt.Sprintf("job %s did not complete within %s", e.JobID, e.Timeout)
}

// ValidationError is a local precondition violation raised before any
// network or file access.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// requireField rejects empty or whitespace-only required string inputs
// locally, before a request is built.
func requireField(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return validationErrorf("%s is required", name)
	}
	return nil
}

func apiErrorStatus(err error, status int) bool {
	var apiErr *APIError
	if !asError(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == status
}

// IsAuth reports whether err is a 401 authentication failure.
func IsAuth(err error) bool { return apiErrorStatus(err, http.StatusUnauthorized) }

// IsPermissionDenied reports whether err is a 403 response.
func IsPermissionDenied(err error) bool { return apiErrorStatus(err, http.StatusForbidden) }

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool { return apiErrorStatus(err, http.StatusNotFound) }

// IsValidation reports whether err is a 422 response or a local
// precondition violation.
func IsValidation(err error) bool {
	var vErr *ValidationError
	if asError(err, &vErr) {
		return true
	}
	return apiErrorStatus(err, http.StatusUnprocessableEntity)
}

// IsRateLimit reports whether err is a 429 response.
func IsRateLimit(err error) bool {
	var rlErr *RateLimitError
	return asError(err, &rlErr)
}

// IsServerError reports whether err is a 5xx response.
func IsServerError(err error) bool {
	var apiErr *APIError
	if !asError(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode >= 500
}
