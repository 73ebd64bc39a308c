// Package apierr is the failure taxonomy of the API client.
//
//   - NetworkError: no HTTP response reached the client.
//   - HTTPError: a non-2xx response (Status, Code, Message).
//   - ValidationError: a 400/422 HTTPError with per-field details.
//   - AuthExpiredError: the session could not be renewed; the user must log in.
//   - UnknownError: anything that fits none of the above.
//
// Callers match with errors.As on the concrete types, or errors.Is against
// ErrAuthRequired and ErrUnavailable.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAuthRequired matches every AuthExpiredError.
	ErrAuthRequired = errors.New("authentication required")
	// ErrUnavailable matches every NetworkError.
	ErrUnavailable = errors.New("server unavailable")
)

// NetworkError means the request never produced an HTTP response: DNS or
// dial failures, resets, per-attempt timeouts.
type NetworkError struct {
	Method   string
	Path     string
	Attempts int
	Timeout  bool
	Err      error
}

func (e *NetworkError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("request failed after %d attempts: %s %s: %v", e.Attempts, e.Method, e.Path, e.Err)
	}
	return fmt.Sprintf("network error: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrUnavailable }

// HTTPError is a non-2xx response. Code is the domain code from the error
// body when the server sent one.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Method  string
	Path    string
}

func (e *HTTPError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("http %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// ValidationError is an HTTPError that carries per-field messages.
type ValidationError struct {
	HTTPError
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s (%d invalid fields)", e.HTTPError.Error(), len(e.Fields))
}

func (e *ValidationError) Unwrap() error { return &e.HTTPError }

// AuthExpiredError means the refresh token was rejected (or absent) and the
// session has been cleared.
type AuthExpiredError struct {
	Reason string
	Err    error
}

func (e *AuthExpiredError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication required: %s: %v", e.Reason, e.Err)
	}
	return "authentication required: " + e.Reason
}

func (e *AuthExpiredError) Unwrap() error { return e.Err }

func (e *AuthExpiredError) Is(target error) bool { return target == ErrAuthRequired }

// UnknownError wraps failures that fit no other category, such as a
// malformed success envelope.
type UnknownError struct {
	Message string
	Err     error
}

func (e *UnknownError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *UnknownError) Unwrap() error { return e.Err }

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status
	}
	return 0
}

// IsUnauthorized reports whether err is (or wraps) an HTTP 401.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}
