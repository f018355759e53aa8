package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/tangram/pkg/models"
	"github.com/dukex/tangram/pkg/persistence"
)

// MessageRepository handles message-related database operations.
type MessageRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewMessageRepository creates a new message repository.
func NewMessageRepository(db *sql.DB, logger *slog.Logger) *MessageRepository {
	return &MessageRepository{db: db, logger: logger}
}

// GetAll returns every message, newest first.
func (r *MessageRepository) GetAll(ctx context.Context) ([]models.Message, error) {
	return r.query(ctx, `
		SELECT id, submission_id, body, direction, created_at
		FROM messages
		ORDER BY created_at DESC, id DESC
	`)
}

// GetBySubmission returns one submission's conversation, oldest first.
func (r *MessageRepository) GetBySubmission(ctx context.Context, submissionID string) ([]models.Message, error) {
	return r.query(ctx, `
		SELECT id, submission_id, body, direction, created_at
		FROM messages
		WHERE submission_id = $1
		ORDER BY created_at, id
	`, submissionID)
}

// Save inserts a message. Messages are append-only.
func (r *MessageRepository) Save(ctx context.Context, message *models.Message) error {
	if message.SubmissionID == "" || message.Body == "" || message.ID == "" {
		return persistence.ErrInvalidMessage
	}

	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (id, submission_id, body, direction, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		message.ID,
		message.SubmissionID,
		message.Body,
		message.Direction,
		message.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save message %s: %w", message.ID, err)
	}

	return nil
}

func (r *MessageRepository) query(ctx context.Context, query string, args ...any) ([]models.Message, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	messages := make([]models.Message, 0)

	for rows.Next() {
		var message models.Message

		err := rows.Scan(&message.ID, &message.SubmissionID, &message.Body, &message.Direction, &message.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}

		message.CreatedAt = message.CreatedAt.UTC()
		messages = append(messages, message)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

var _ persistence.MessageRepository = (*MessageRepository)(nil)
