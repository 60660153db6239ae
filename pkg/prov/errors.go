package prov

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Feishu error codes reporting a missing, invalid or expired tenant access token.
const (
	codeTokenMissing = 99991661
	codeTokenInvalid = 99991663
	codeTokenExpired = 99991668
)

// ConfigError reports a required setting that is not configured. It is raised before any network call.
type ConfigError struct {
	Field string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s is not set", e.Field)
}

// NetworkError reports a transport-level failure that survived all retry attempts.
type NetworkError struct {
	Err      error
	Op       string
	Attempts int
	Timeout  bool
}

func (e *NetworkError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: request timed out after %d attempt(s): %v", e.Op, e.Attempts, e.Err)
	}

	return fmt.Sprintf("%s: network error after %d attempt(s): %v", e.Op, e.Attempts, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ProtocolError reports a response the remote API answered but that cannot be used:
// a non-2xx status, a body that is not JSON, a non-zero application code or a missing field.
// Protocol errors are never retried.
type ProtocolError struct {
	Err        error
	Op         string
	Msg        string
	StatusCode int
	Code       int
}

func (e *ProtocolError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Code != 0:
		return fmt.Sprintf("%s: %s (code %d)", e.Op, e.Msg, e.Code)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Msg, e.StatusCode)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// Unauthorized reports whether the remote API rejected the bearer token.
func (e *ProtocolError) Unauthorized() bool {
	switch e.Code {
	case codeTokenMissing, codeTokenInvalid, codeTokenExpired:
		return true
	}

	return e.StatusCode == 401
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}

func isUnauthorized(err error) bool {
	var pe *ProtocolError

	return errors.As(err, &pe) && pe.Unauthorized()
}
