package core

import "fmt"

// StateSaveError means the rotated refresh tokens could not be persisted.
// The old tokens are no longer valid after a refresh, so callers should
// treat it as fatal for the run.
type StateSaveError struct {
	Backend string
	Err     error
}

func (e *StateSaveError) Error() string {
	return fmt.Sprintf("failed to save state to %s backend: %v", e.Backend, e.Err)
}

func (e *StateSaveError) Unwrap() error {
	return e.Err
}

// SkipReason categorizes why an account was not signed in
type SkipReason int

const (
	SkipReasonNone SkipReason = iota
	SkipReasonExpired
	SkipReasonUpstream
	SkipReasonCanceled
)

func (r SkipReason) String() string {
	switch r {
	case SkipReasonNone:
		return ""
	case SkipReasonExpired:
		return "refresh token expired"
	case SkipReasonUpstream:
		return "auth service unavailable"
	case SkipReasonCanceled:
		return "run canceled"
	}

	return ""
}
