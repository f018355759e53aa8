// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrSubmissionNotFound indicates a submission was not found by the given identifier.
	ErrSubmissionNotFound = errors.New("submission not found")

	// ErrInvalidSubmissionID indicates an identifier that cannot be stored.
	ErrInvalidSubmissionID = errors.New("invalid submission id")

	// ErrInvalidMessage indicates a message without a submission or body.
	ErrInvalidMessage = errors.New("invalid message")
)

// SubmissionError wraps submission-related errors with additional context.
type SubmissionError struct {
	Op           string // Operation being performed (e.g., "GetByID", "Save")
	SubmissionID string
	Err          error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s operation failed for submission %s: %v", e.Op, e.SubmissionID, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for submission errors.
func (e *SubmissionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewSubmissionError creates a new submission error with context.
func NewSubmissionError(op, submissionID string, err error) *SubmissionError {
	return &SubmissionError{
		Op:           op,
		SubmissionID: submissionID,
		Err:          err,
	}
}

// IsSubmissionNotFound checks if an error indicates a submission was not found.
func IsSubmissionNotFound(err error) bool {
	return errors.Is(err, ErrSubmissionNotFound)
}

// IsInvalidSubmissionID checks if an error indicates an unusable identifier.
func IsInvalidSubmissionID(err error) bool {
	return errors.Is(err, ErrInvalidSubmissionID)
}
