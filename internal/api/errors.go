package api

import (
	"errors"
	"fmt"
)

// ErrCode is a typed error code enum for consistent failure handling
// across the client.
type ErrCode string

const (
	// ErrAuthExpired maps HTTP 401: credentials are invalid and the user
	// must log in again. Never retried automatically.
	ErrAuthExpired ErrCode = "AUTH_EXPIRED"
	// ErrNetwork covers connectivity loss, timeouts and 5xx responses.
	// Retryable by the user.
	ErrNetwork ErrCode = "NETWORK"
	// ErrRejected covers other 4xx responses — the backend refused the
	// request as sent.
	ErrRejected ErrCode = "REJECTED"
	// ErrBadPayload marks undecodable or invalid response bodies.
	ErrBadPayload ErrCode = "BAD_PAYLOAD"
)

// GetMessage returns a user-visible message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrAuthExpired:
		return "Authentication expired. Please log in again."
	case ErrNetwork:
		return "Failed to reach the server. Please check your connection and retry."
	case ErrRejected:
		return "The server rejected the request."
	case ErrBadPayload:
		return "The server sent an unexpected response."
	default:
		return "An unexpected error occurred."
	}
}

// Error is the client-side API error carrying the code, the HTTP status
// when one was received, and the underlying cause.
type Error struct {
	Code   ErrCode
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: http %d", e.Code, e.Status)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// CodeOf extracts the ErrCode from an error chain, defaulting to
// ErrNetwork for plain transport errors.
func CodeOf(err error) ErrCode {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ErrNetwork
}

// IsAuthExpired reports whether the error chain carries an auth-expired
// condition.
func IsAuthExpired(err error) bool {
	return CodeOf(err) == ErrAuthExpired
}

// IsRetryable reports whether the user may retry the failed action.
func IsRetryable(err error) bool {
	switch CodeOf(err) {
	case ErrNetwork, ErrRejected:
		return true
	}
	return false
}
