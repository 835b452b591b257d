// Package wire implements the HTTP RPC client for the AgentBay managed API.
// It handles request construction, bearer authentication, request-id
// surfacing, and the split between transport failures and API-level failures
// (well-formed responses carrying success=false with a code and message).
package wire

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for response classification.
// Use errors.Is(err, wire.ErrNotFound) to check.
var (
	ErrUnauthorized       = errors.New("wire: unauthorized")
	ErrNotFound           = errors.New("wire: not found")
	ErrServiceUnavailable = errors.New("wire: service unavailable")
	ErrServerError        = errors.New("wire: server error")
	ErrAPIFailure         = errors.New("wire: api failure")
)

// Code returned by the API when a session has already been released.
// Callers log this at info level without a stack trace.
const CodeSessionNotFound = "InvalidMcpSession.NotFound"

// APIError wraps a sentinel error with the HTTP status, the API error code,
// and the request id for debugging. It covers both HTTP-level failures
// (non-2xx) and API-level failures (success=false in a 200 body).
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
	Err        error // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}

	if e.RequestID != "" {
		return fmt.Sprintf("wire: HTTP %d (request-id: %s): %s", e.StatusCode, e.RequestID, e.Message)
	}

	return fmt.Sprintf("wire: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to a sentinel error.
// Returns nil for 2xx success codes.
func classifyStatus(code int) error {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusServiceUnavailable:
		return ErrServiceUnavailable
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		return nil
	}
}

// classifyCode maps an API error code to a sentinel error.
func classifyCode(code string) error {
	if code == CodeSessionNotFound {
		return ErrNotFound
	}

	return ErrAPIFailure
}
