// Package services provides standardized error types for service layer operations.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/tangram/pkg/persistence"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest = errors.New("invalid request")
	ErrInvalidFilter  = errors.New("invalid filter")
	ErrInvalidStage   = errors.New("invalid stage")
	ErrInvalidAction  = errors.New("invalid action")
	ErrEmptyMessage   = errors.New("message body cannot be empty")

	// Not Found (404).
	ErrSubmissionNotFound = persistence.ErrSubmissionNotFound

	// Business Logic Conflicts (409 Conflict).
	ErrSubmissionExists  = errors.New("submission already exists")
	ErrInvalidTransition = errors.New("stage transition not allowed")
	ErrAlreadySubmitted  = errors.New("submission already sent to client")
	ErrChatClosed        = errors.New("client chat is only open for submitted submissions")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidFilter) ||
		errors.Is(err, ErrInvalidStage) ||
		errors.Is(err, ErrInvalidAction) ||
		errors.Is(err, ErrEmptyMessage) ||
		errors.Is(err, persistence.ErrInvalidSubmissionID)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrSubmissionExists) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrAlreadySubmitted) ||
		errors.Is(err, ErrChatClosed)
}

// IsNotFoundError checks if an error should return HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrSubmissionNotFound)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewConflictError creates a conflict error describing the rejected stage change.
func NewConflictError(op, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    "CONFLICT",
		Message: message,
		Err:     err,
	}
}
