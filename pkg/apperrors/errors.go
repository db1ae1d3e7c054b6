// Package apperrors defines the error taxonomy shared by services and handlers.
//
// Expected, caller-actionable failures (version conflicts, rejected status
// transitions) are typed errors carrying enough data for the caller to
// self-correct without a second round trip. Everything else is a sentinel
// checked with errors.Is.
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrExpired          = errors.New("draft expired")
	ErrInvalidState     = errors.New("invalid state for operation")
	ErrValidationFailed = errors.New("validation failed")
)

// VersionConflictError is returned when an optimistic-lock check fails.
// ServerVersion is the version currently stored, so the caller can re-fetch
// and reconcile. Recoverable by retry after re-read.
type VersionConflictError struct {
	ServerVersion int
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict: server version is %d", e.ServerVersion)
}

// InvalidTransitionError is returned when a status transition is not present
// in the entity's transition table. Allowed lists the valid targets from the
// current status so the caller can render its options without another fetch.
type InvalidTransitionError struct {
	Current string
	Target  string
	Allowed []string
}

func (e *InvalidTransitionError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("invalid transition from terminal status %q to %q", e.Current, e.Target)
	}
	return fmt.Sprintf("invalid transition from %q to %q (allowed: %s)",
		e.Current, e.Target, strings.Join(e.Allowed, ", "))
}

// PreconditionError is returned when a transition is structurally valid but
// an entity-specific business rule blocks it (missing questions, outside the
// scheduling window).
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "precondition failed: " + e.Reason
}

// IsVersionConflict reports whether err is a version conflict and returns
// the server's current version when it is.
func IsVersionConflict(err error) (int, bool) {
	var vc *VersionConflictError
	if errors.As(err, &vc) {
		return vc.ServerVersion, true
	}
	return 0, false
}

// IsInvalidTransition reports whether err is a state machine rejection.
func IsInvalidTransition(err error) (*InvalidTransitionError, bool) {
	var it *InvalidTransitionError
	if errors.As(err, &it) {
		return it, true
	}
	return nil, false
}

// IsPrecondition reports whether err is a transition precondition failure.
func IsPrecondition(err error) (*PreconditionError, bool) {
	var pe *PreconditionError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
