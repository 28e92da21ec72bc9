package service

import (
	"errors"
	"fmt"
)

// Workflow error taxonomy. Every sentinel except ErrStorage is terminal for
// the request and is surfaced verbatim to the acting user; ErrStorage is the
// only kind a caller should retry.
var (
	// ErrUnauthorized indicates the actor holds the wrong role or is not
	// the specific advisor/coordinator assigned to the entity.
	ErrUnauthorized = errors.New("actor is not allowed to act on this entity")
	// ErrInvalidStateTransition indicates the operation is not legal from
	// the entity's current status.
	ErrInvalidStateTransition = errors.New("operation not allowed in current state")
	// ErrPreconditionFailed indicates a required upstream approval or
	// stage is missing.
	ErrPreconditionFailed = errors.New("required upstream approval or stage is missing")
	// ErrConflict indicates a duplicate non-repeatable submission.
	ErrConflict = errors.New("a live submission of this kind already exists")
	// ErrNotFound indicates the target entity does not exist.
	ErrNotFound = errors.New("entity not found")
	// ErrEnrollmentClosed indicates the enrollment window is closed.
	ErrEnrollmentClosed = errors.New("enrollment window is closed")
	// ErrStorage indicates a transient persistence failure; the entity is
	// left unchanged and the caller may retry.
	ErrStorage = errors.New("storage unavailable")
)

// storageErr wraps a driver error into the retryable taxonomy kind while
// keeping the cause in the chain.
func storageErr(err error) error {
	return fmt.Errorf("%w: %w", ErrStorage, err)
}
