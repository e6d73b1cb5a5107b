package drive

import (
	"errors"
	"fmt"
)

var (
	// ErrCredentialExpired means the refresh token is no longer accepted upstream.
	ErrCredentialExpired = errors.New("refresh token expired or invalid")

	// ErrUpstreamUnavailable means the upstream response was missing or malformed.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// expiredCodes are the auth error codes that mean the refresh token is dead.
var expiredCodes = map[string]struct{}{
	"RefreshTokenExpired":           {},
	"InvalidParameter.RefreshToken": {},
}

// RefreshError reports that upstream rejected a refresh token.
type RefreshError struct {
	Code    string
	Message string
}

func (e *RefreshError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("refresh token rejected: %s", e.Code)
	}

	return fmt.Sprintf("refresh token rejected: %s: %s", e.Code, e.Message)
}

// Is makes errors.Is(err, ErrCredentialExpired) succeed.
func (e *RefreshError) Is(target error) bool {
	return target == ErrCredentialExpired
}

// UpstreamError wraps an unexpected upstream response or transport failure
type UpstreamError struct {
	Operation  string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	msg := e.Operation + " failed"

	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	if e.Body != "" {
		msg += ": " + e.Body
	}

	return msg
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrUpstreamUnavailable) succeed.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}
