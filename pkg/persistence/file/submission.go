package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dukex/tangram/pkg/models"
	"github.com/dukex/tangram/pkg/persistence"
)

const submissionsDir = "submissions"

// SubmissionRepository handles submission file operations.
type SubmissionRepository struct {
	root string
	mu   sync.RWMutex
}

// NewSubmissionRepository creates a new submission repository.
func NewSubmissionRepository(root string) *SubmissionRepository {
	return &SubmissionRepository{root: root}
}

// GetAll returns every stored submission ordered by creation time.
func (sr *SubmissionRepository) GetAll(_ context.Context) ([]models.Submission, error) {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	dir := filepath.Join(sr.root, submissionsDir)

	jsonFiles, err := fs.Glob(os.DirFS(dir), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list submission files: %w", err)
	}

	submissions := make([]models.Submission, 0, len(jsonFiles))

	for _, name := range jsonFiles {
		submission, err := readSubmission(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}

		submissions = append(submissions, *submission)
	}

	sort.SliceStable(submissions, func(i, j int) bool {
		if submissions[i].CreatedAt.Equal(submissions[j].CreatedAt) {
			return submissions[i].ID < submissions[j].ID
		}

		return submissions[i].CreatedAt.Before(submissions[j].CreatedAt)
	})

	return submissions, nil
}

// GetByID retrieves a submission by its ID from the file system.
func (sr *SubmissionRepository) GetByID(_ context.Context, id string) (*models.Submission, error) {
	filePath, ok := recordPath(sr.root, submissionsDir, id)
	if !ok {
		return nil, persistence.NewSubmissionError("GetByID", id, persistence.ErrInvalidSubmissionID)
	}

	sr.mu.RLock()
	defer sr.mu.RUnlock()

	submission, err := readSubmission(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewSubmissionError("GetByID", id, persistence.ErrSubmissionNotFound)
		}

		return nil, err
	}

	return submission, nil
}

// Save writes the submission to the file system, replacing any previous version.
func (sr *SubmissionRepository) Save(_ context.Context, submission *models.Submission) error {
	filePath, ok := recordPath(sr.root, submissionsDir, submission.ID)
	if !ok {
		return persistence.NewSubmissionError("Save", submission.ID, persistence.ErrInvalidSubmissionID)
	}

	sr.mu.Lock()
	defer sr.mu.Unlock()

	err := os.MkdirAll(filepath.Dir(filePath), 0750)
	if err != nil {
		return fmt.Errorf("failed to create submissions directory: %w", err)
	}

	now := time.Now().UTC()
	if submission.CreatedAt.IsZero() {
		submission.CreatedAt = now
	}

	submission.UpdatedAt = now

	data, err := json.MarshalIndent(submission, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal submission %s: %w", submission.ID, err)
	}

	return writeAtomic(filePath, data)
}

func readSubmission(filePath string) (*models.Submission, error) {
	body, err := os.ReadFile(filepath.Clean(filePath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}

		return nil, fmt.Errorf("failed to read submission file %s: %w", filePath, err)
	}

	var submission models.Submission

	err = json.Unmarshal(body, &submission)
	if err != nil {
		id := strings.TrimSuffix(filepath.Base(filePath), ".json")

		return nil, fmt.Errorf("failed to unmarshal submission %s: %w", id, err)
	}

	return &submission, nil
}

// writeAtomic writes through a temporary file so readers never see a partial record.
func writeAtomic(filePath string, data []byte) error {
	tmp := filePath + ".tmp"

	err := os.WriteFile(tmp, data, 0600)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}

	err = os.Rename(tmp, filePath)
	if err != nil {
		_ = os.Remove(tmp)

		return fmt.Errorf("failed to replace %s: %w", filePath, err)
	}

	return nil
}
