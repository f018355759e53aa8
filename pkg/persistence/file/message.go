package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dukex/tangram/pkg/models"
	"github.com/dukex/tangram/pkg/persistence"
)

const messagesDir = "messages"

// MessageRepository handles message file operations.
type MessageRepository struct {
	root string
	mu   sync.RWMutex
}

// NewMessageRepository creates a new message repository.
func NewMessageRepository(root string) *MessageRepository {
	return &MessageRepository{root: root}
}

// GetAll returns every message, newest first.
func (mr *MessageRepository) GetAll(_ context.Context) ([]models.Message, error) {
	messages, err := mr.load()
	if err != nil {
		return nil, err
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.After(messages[j].CreatedAt)
	})

	return messages, nil
}

// GetBySubmission returns one submission's conversation, oldest first.
func (mr *MessageRepository) GetBySubmission(_ context.Context, submissionID string) ([]models.Message, error) {
	all, err := mr.load()
	if err != nil {
		return nil, err
	}

	messages := make([]models.Message, 0)

	for _, m := range all {
		if m.SubmissionID == submissionID {
			messages = append(messages, m)
		}
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})

	return messages, nil
}

// Save writes the message to the file system.
func (mr *MessageRepository) Save(_ context.Context, message *models.Message) error {
	if message.SubmissionID == "" || message.Body == "" {
		return persistence.ErrInvalidMessage
	}

	filePath, ok := recordPath(mr.root, messagesDir, message.ID)
	if !ok {
		return fmt.Errorf("message id %q: %w", message.ID, persistence.ErrInvalidMessage)
	}

	mr.mu.Lock()
	defer mr.mu.Unlock()

	err := os.MkdirAll(filepath.Dir(filePath), 0750)
	if err != nil {
		return fmt.Errorf("failed to create messages directory: %w", err)
	}

	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(message, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal message %s: %w", message.ID, err)
	}

	return writeAtomic(filePath, data)
}

func (mr *MessageRepository) load() ([]models.Message, error) {
	mr.mu.RLock()
	defer mr.mu.RUnlock()

	dir := filepath.Join(mr.root, messagesDir)

	jsonFiles, err := fs.Glob(os.DirFS(dir), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list message files: %w", err)
	}

	messages := make([]models.Message, 0, len(jsonFiles))

	for _, name := range jsonFiles {
		body, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read message file %s: %w", name, err)
		}

		var message models.Message

		err = json.Unmarshal(body, &message)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal message %s: %w", name, err)
		}

		messages = append(messages, message)
	}

	return messages, nil
}
