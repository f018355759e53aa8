// Package events defines the notifications emitted over a submission's lifecycle.
package events

import (
	"time"

	"github.com/dukex/tangram/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Topic is the watermill topic every submission event is published on.
const Topic = "tangram.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	SubmissionCreatedEvent      EventType = "submission.created"
	SubmissionStageChangedEvent EventType = "submission.stage_changed"
	SubmissionSubmittedEvent    EventType = "submission.submitted"
	MessageSentEvent            EventType = "message.sent"
)

type BaseEvent struct {
	ID           string         `json:"id"`
	Type         EventType      `json:"type"`
	Timestamp    time.Time      `json:"timestamp"`
	SubmissionID string         `json:"submission_id"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// NewBaseEvent fills in the envelope shared by every event.
func NewBaseEvent(eventType EventType, submissionID string) BaseEvent {
	return BaseEvent{
		ID:           uuid.New().String(),
		Type:         eventType,
		Timestamp:    time.Now().UTC(),
		SubmissionID: submissionID,
		Metadata:     make(map[string]any),
	}
}

// SubmissionCreated is emitted when a new submission enters the pending column.
type SubmissionCreated struct {
	BaseEvent

	Name    string `json:"name"`
	Company string `json:"company"`
	Source  string `json:"source"`
}

func (e SubmissionCreated) GetType() EventType {
	return SubmissionCreatedEvent
}

// SubmissionStageChanged is emitted for every applied stage transition.
type SubmissionStageChanged struct {
	BaseEvent

	From   models.Stage  `json:"from"`
	To     models.Stage  `json:"to"`
	Action models.Action `json:"action,omitempty"`
}

func (e SubmissionStageChanged) GetType() EventType {
	return SubmissionStageChangedEvent
}

// SubmissionSubmitted is emitted when a report reaches the client and the chat opens.
type SubmissionSubmitted struct {
	BaseEvent

	SentToClient string     `json:"sent_to_client"`
	SentDate     *time.Time `json:"sent_date,omitempty"`
}

func (e SubmissionSubmitted) GetType() EventType {
	return SubmissionSubmittedEvent
}

// MessageSent is emitted for each message posted to a client conversation.
type MessageSent struct {
	BaseEvent

	MessageID string                  `json:"message_id"`
	Direction models.MessageDirection `json:"direction"`
}

func (e MessageSent) GetType() EventType {
	return MessageSentEvent
}
