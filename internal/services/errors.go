package services

import (
	"errors"
	"fmt"
)

// Service-level error kinds. NotFound, Forbidden, Conflict and
// LocationRequired are surfaced to the caller as-is and never retried.
// Dispatch failures are deliberately absent: they are logged inside the
// dispatcher and never reach the operation that triggered the fan-out.
var (
	ErrDealNotFound         = errors.New("deal not found")
	ErrBusinessNotFound     = errors.New("business not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrBroadcastNotFound    = errors.New("broadcast not found")
	ErrNotificationNotFound = errors.New("notification not found")

	ErrForbidden = errors.New("operation not permitted")

	// ErrLocationRequired is a client-correctable error: the nearby feed was
	// called without an explicit location and the user has no stored default.
	ErrLocationRequired = errors.New("location required")
)

// InvalidStateError carries the specific reason a state-dependent operation
// was rejected (redeeming an expired deal, bad price ordering on create).
type InvalidStateError struct {
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state: %s", e.Reason)
}

func NewInvalidStateError(reason string) error {
	return &InvalidStateError{Reason: reason}
}

// IsInvalidState reports whether err is an InvalidStateError.
func IsInvalidState(err error) bool {
	var invalidState *InvalidStateError
	return errors.As(err, &invalidState)
}

// ConflictError marks unique-constraint violations surfaced to the caller.
type ConflictError struct {
	Resource string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists", e.Resource)
}

func IsConflict(err error) bool {
	var conflict *ConflictError
	return errors.As(err, &conflict)
}
