package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/tangram/pkg/models"
	"github.com/dukex/tangram/pkg/persistence"
)

const submissionColumns = `
	id
  , name
  , shape
  , stage
  , width
  , depth
  , height
  , quantity
  , deadline
  , company
  , contact_name
  , contact_email
  , notes
  , recommendation
  , stl_url
  , sent_to_client
  , sent_message
  , sent_date
  , created_at
  , updated_at
`

// SubmissionRepository handles submission-related database operations.
type SubmissionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSubmissionRepository creates a new submission repository.
func NewSubmissionRepository(db *sql.DB, logger *slog.Logger) *SubmissionRepository {
	return &SubmissionRepository{db: db, logger: logger}
}

// GetAll returns all submissions ordered by creation time.
func (r *SubmissionRepository) GetAll(ctx context.Context) ([]models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	submissions := make([]models.Submission, 0)

	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}

		submissions = append(submissions, *submission)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating submissions: %w", err)
	}

	return submissions, nil
}

// GetByID returns a submission by its ID.
func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`

	submission, err := scanSubmission(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewSubmissionError("GetByID", id, persistence.ErrSubmissionNotFound)
		}

		return nil, fmt.Errorf("failed to scan submission: %w", err)
	}

	return submission, nil
}

// Save upserts a submission.
func (r *SubmissionRepository) Save(ctx context.Context, submission *models.Submission) error {
	if submission.ID == "" {
		return persistence.NewSubmissionError("Save", submission.ID, persistence.ErrInvalidSubmissionID)
	}

	now := time.Now().UTC()
	if submission.CreatedAt.IsZero() {
		submission.CreatedAt = now
	}

	submission.UpdatedAt = now

	query := `
		INSERT INTO submissions (` + submissionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			shape = EXCLUDED.shape,
			stage = EXCLUDED.stage,
			width = EXCLUDED.width,
			depth = EXCLUDED.depth,
			height = EXCLUDED.height,
			quantity = EXCLUDED.quantity,
			deadline = EXCLUDED.deadline,
			company = EXCLUDED.company,
			contact_name = EXCLUDED.contact_name,
			contact_email = EXCLUDED.contact_email,
			notes = EXCLUDED.notes,
			recommendation = EXCLUDED.recommendation,
			stl_url = EXCLUDED.stl_url,
			sent_to_client = EXCLUDED.sent_to_client,
			sent_message = EXCLUDED.sent_message,
			sent_date = EXCLUDED.sent_date,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		submission.ID,
		submission.Name,
		submission.Shape,
		submission.Stage,
		submission.Width,
		submission.Depth,
		submission.Height,
		submission.Quantity,
		submission.Deadline,
		submission.Company,
		submission.ContactName,
		submission.ContactEmail,
		submission.Notes,
		submission.Recommendation,
		submission.STLURL,
		submission.SentToClient,
		submission.SentMessage,
		submission.SentDate,
		submission.CreatedAt,
		submission.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save submission %s: %w", submission.ID, err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (*models.Submission, error) {
	var (
		submission models.Submission
		sentDate   sql.NullTime
	)

	err := row.Scan(
		&submission.ID,
		&submission.Name,
		&submission.Shape,
		&submission.Stage,
		&submission.Width,
		&submission.Depth,
		&submission.Height,
		&submission.Quantity,
		&submission.Deadline,
		&submission.Company,
		&submission.ContactName,
		&submission.ContactEmail,
		&submission.Notes,
		&submission.Recommendation,
		&submission.STLURL,
		&submission.SentToClient,
		&submission.SentMessage,
		&sentDate,
		&submission.CreatedAt,
		&submission.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if sentDate.Valid {
		t := sentDate.Time.UTC()
		submission.SentDate = &t
	}

	submission.CreatedAt = submission.CreatedAt.UTC()
	submission.UpdatedAt = submission.UpdatedAt.UTC()

	return &submission, nil
}
