package study

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionAlreadyActive is returned when a user tries to start a session
	// while another non-terminal session exists for them. The due sweep treats
	// this as a benign skip; a manual start surfaces it to the user.
	ErrSessionAlreadyActive = errors.New("user already has an active study session")

	// ErrTopicUnavailable is returned when a topic has no usable content.
	ErrTopicUnavailable = errors.New("topic has no usable content")

	// ErrSessionFinished is returned by PresentNext when a resumed session
	// turns out to have every question answered already. The terminal
	// transition is applied before returning.
	ErrSessionFinished = errors.New("study session has no questions left to answer")
)

// NotFoundError indicates a missing user, topic, session, or assessment.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// StateTransitionError indicates an operation attempted in the wrong session
// state. It is a usage error and is never retried.
type StateTransitionError struct {
	SessionID int64
	State     SessionState
	Operation string
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("session %d: cannot %s in state %q", e.SessionID, e.Operation, e.State)
}

// CollaboratorError wraps a failure from an external collaborator (question
// generation or answer evaluation) after retries were exhausted.
type CollaboratorError struct {
	Operation string
	Err       error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// ValidationError indicates rejected user input, such as an empty or oversized
// answer.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}
