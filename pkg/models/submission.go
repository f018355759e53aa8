// Package models defines the core domain models for manufacturing quote submissions.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Shape is the base geometry of a submitted part.
type Shape string

const (
	ShapeTriangle Shape = "triangle"
	ShapeSquare   Shape = "square"
	ShapeCircle   Shape = "circle"
)

// DeadlineLayout is the calendar-date layout used for deadlines and filter dates.
const DeadlineLayout = time.DateOnly

// Submission is a client request for a manufacturing quote.
type Submission struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"         validate:"required"`
	Shape        Shape   `json:"shape"        validate:"omitempty,oneof=triangle square circle"`
	Stage        Stage   `json:"stage"        validate:"required,oneof=pending reviewing report submitted"`
	Width        float64 `json:"width"        validate:"gte=0"`
	Depth        float64 `json:"depth"        validate:"gte=0"`
	Height       float64 `json:"height"       validate:"gte=0"`
	Quantity     int     `json:"quantity"     validate:"gte=0"`
	Deadline     string  `json:"deadline"`
	Company      string  `json:"company"`
	ContactName  string  `json:"contactName"`
	ContactEmail string  `json:"contactEmail" validate:"omitempty,email"`

	Notes          string     `json:"notes,omitempty"`
	Recommendation string     `json:"recommendation,omitempty"`
	STLURL         string     `json:"stlUrl,omitempty"`
	SentToClient   string     `json:"sentToClient,omitempty"`
	SentMessage    string     `json:"sentMessage,omitempty"`
	SentDate       *time.Time `json:"sentDate,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// DeadlineDate parses the deadline as a calendar date. Both YYYY-MM-DD and
// RFC 3339 timestamps are accepted; timestamps are truncated to their date.
func (s Submission) DeadlineDate() (time.Time, error) {
	return ParseDate(s.Deadline)
}

// WithStage returns a copy of s in the given stage.
func (s Submission) WithStage(stage Stage) Submission {
	s.Stage = stage

	return s
}

// ParseDate parses a calendar date in the layouts the dashboard produces.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty date")
	}

	if t, err := time.Parse(DeadlineLayout, value); err == nil {
		return t, nil
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}

	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// CloneSubmissions returns a new slice holding copies of the given records.
func CloneSubmissions(submissions []Submission) []Submission {
	if submissions == nil {
		return nil
	}

	out := make([]Submission, len(submissions))
	copy(out, submissions)

	return out
}
