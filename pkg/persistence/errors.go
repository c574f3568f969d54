// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	ErrAutomationNotFound   = errors.New("automation not found")
	ErrExecutionNotFound    = errors.New("execution not found")
	ErrContactNotFound      = errors.New("contact not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrTemplateNotFound     = errors.New("template not found")

	// ErrPendingWaitExists indicates the conversation already has an outstanding wait.
	ErrPendingWaitExists = errors.New("pending wait already exists for conversation")

	ErrPendingWaitNotFound = errors.New("pending wait not found")

	// ErrInvalidID indicates an identifier that cannot be used as a storage key.
	ErrInvalidID = errors.New("invalid identifier")
)

// EntityError wraps repository errors with the operation and entity involved.
type EntityError struct {
	Op     string // Operation being performed (e.g., "GetByID", "Insert")
	Entity string // Entity kind (e.g., "automation", "execution")
	ID     string
	Err    error
}

func (e *EntityError) Error() string {
	return fmt.Sprintf("%s operation failed for %s %s: %v", e.Op, e.Entity, e.ID, e.Err)
}

func (e *EntityError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for entity errors.
func (e *EntityError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func NewEntityError(op, entity, id string, err error) *EntityError {
	return &EntityError{Op: op, Entity: entity, ID: id, Err: err}
}

func IsAutomationNotFound(err error) bool {
	return errors.Is(err, ErrAutomationNotFound)
}

func IsExecutionNotFound(err error) bool {
	return errors.Is(err, ErrExecutionNotFound)
}

func IsContactNotFound(err error) bool {
	return errors.Is(err, ErrContactNotFound)
}

func IsConversationNotFound(err error) bool {
	return errors.Is(err, ErrConversationNotFound)
}

func IsTemplateNotFound(err error) bool {
	return errors.Is(err, ErrTemplateNotFound)
}

func IsPendingWaitExists(err error) bool {
	return errors.Is(err, ErrPendingWaitExists)
}

func IsPendingWaitNotFound(err error) bool {
	return errors.Is(err, ErrPendingWaitNotFound)
}

// IsNotFound reports whether err is any of the not-found errors.
func IsNotFound(err error) bool {
	return IsAutomationNotFound(err) || IsExecutionNotFound(err) || IsContactNotFound(err) ||
		IsConversationNotFound(err) || IsTemplateNotFound(err) || IsPendingWaitNotFound(err)
}
