// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"time"

	"github.com/dukex/tangram/pkg/models"
	"github.com/google/uuid"
)

// CreateTestSubmission creates a pending Submission with default values that can be overridden.
func CreateTestSubmission(overrides ...func(*models.Submission)) models.Submission {
	createdAt := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)

	submission := models.Submission{
		ID:           uuid.New().String(),
		Name:         "Triangle bracket",
		Shape:        models.ShapeTriangle,
		Stage:        models.StagePending,
		Width:        150,
		Depth:        100,
		Height:       75,
		Quantity:     500,
		Deadline:     "2025-12-15",
		Company:      "TechCorp Industries",
		ContactName:  "Dana Reyes",
		ContactEmail: "dana@techcorp.example",
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}

	for _, override := range overrides {
		override(&submission)
	}

	return submission
}

// WithStage sets the submission stage.
func WithStage(stage models.Stage) func(*models.Submission) {
	return func(s *models.Submission) {
		s.Stage = stage
	}
}

// WithID sets the submission ID.
func WithID(id string) func(*models.Submission) {
	return func(s *models.Submission) {
		s.ID = id
	}
}
