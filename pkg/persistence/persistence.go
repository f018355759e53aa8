// Package persistence provides the storage abstraction for submissions and client messages.
package persistence

import (
	"context"

	"github.com/dukex/tangram/pkg/models"
)

type Persistence interface {
	SubmissionRepository() SubmissionRepository
	MessageRepository() MessageRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// SubmissionRepository stores quote submissions.
type SubmissionRepository interface {
	// GetAll returns every submission ordered by creation time, oldest first.
	GetAll(ctx context.Context) ([]models.Submission, error)
	// GetByID returns ErrSubmissionNotFound when no submission has the id.
	GetByID(ctx context.Context, id string) (*models.Submission, error)
	// Save inserts or replaces the submission. CreatedAt is set on first
	// save and UpdatedAt on every save.
	Save(ctx context.Context, submission *models.Submission) error
}

// MessageRepository stores client conversation messages.
type MessageRepository interface {
	// GetBySubmission returns the conversation for one submission, oldest first.
	GetBySubmission(ctx context.Context, submissionID string) ([]models.Message, error)
	// GetAll returns every message, newest first.
	GetAll(ctx context.Context) ([]models.Message, error)
	Save(ctx context.Context, message *models.Message) error
}
