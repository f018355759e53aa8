// Package file provides file-based persistence for submissions and messages.
//
// Every record is stored as one indented JSON document under the root
// directory: submissions/<id>.json and messages/<id>.json.
package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/dukex/tangram/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root           string
	submissionRepo *SubmissionRepository
	messageRepo    *MessageRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
// A file:// prefix is accepted so the value of DATABASE_URL can be passed through as is.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:           cleanRoot,
		submissionRepo: NewSubmissionRepository(cleanRoot),
		messageRepo:    NewMessageRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) SubmissionRepository() persistence.SubmissionRepository {
	return fp.submissionRepo
}

func (fp *Persistence) MessageRepository() persistence.MessageRepository {
	return fp.messageRepo
}

// recordPath returns the path of a record file, rejecting ids that would
// escape the collection directory.
func recordPath(root, collection, id string) (string, bool) {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", false
	}

	return filepath.Join(root, collection, id+".json"), true
}
