package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dukex/tangram/pkg/models"
)

func readSnapshot(path string) ([]models.Submission, error) {
	body, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var submissions []models.Submission

	err = json.Unmarshal(body, &submissions)
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", path, err)
	}

	return submissions, nil
}

// writeSnapshot replaces the snapshot file through a temporary file in the
// same directory.
func writeSnapshot(path string, submissions []models.Submission) error {
	body, err := json.MarshalIndent(submissions, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	defer func() { _ = os.Remove(tmp.Name()) }()

	_, err = tmp.Write(append(body, '\n'))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	err = os.Rename(tmp.Name(), path)
	if err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	return nil
}
