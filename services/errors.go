package services

import (
	"errors"
	"fmt"
)

// Domain error taxonomy. Every rejected transition carries enough
// context to tell the caller which party can act next and why.

// InvalidStateError: the operation is not permitted from the record's
// current status.
type InvalidStateError struct {
	Entity string
	Status string
	Hint   string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s is %s: %s", e.Entity, e.Status, e.Hint)
}

// StaleStateError: the optimistic-concurrency precondition failed.
// Someone else acted on the record between the caller's read and this
// write. The caller should re-read and retry.
type StaleStateError struct {
	Entity         string
	ExpectedStatus string
}

func (e *StaleStateError) Error() string {
	return fmt.Sprintf("%s changed since it was read (expected %s); re-read and retry", e.Entity, e.ExpectedStatus)
}

// UnauthorizedError: the actor is not a party entitled to perform the
// action.
type UnauthorizedError struct {
	Action string
	Hint   string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("not allowed to %s: %s", e.Action, e.Hint)
}

// InvalidTimeWindowError: the proposed time is in the past or the
// duration is outside the permitted range.
type InvalidTimeWindowError struct {
	Reason string
}

func (e *InvalidTimeWindowError) Error() string {
	return "invalid time window: " + e.Reason
}

// TooEarlyError: a no-show was claimed before the join window elapsed.
type TooEarlyError struct {
	Hint string
}

func (e *TooEarlyError) Error() string {
	return "too early: " + e.Hint
}

// AlreadySettledError: the session already has a final charge decision.
type AlreadySettledError struct {
	SessionID string
}

func (e *AlreadySettledError) Error() string {
	return fmt.Sprintf("session %s already has a final settlement", e.SessionID)
}

func IsStaleState(err error) bool {
	var e *StaleStateError
	return errors.As(err, &e)
}

func IsInvalidState(err error) bool {
	var e *InvalidStateError
	return errors.As(err, &e)
}
