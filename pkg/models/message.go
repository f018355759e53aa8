package models

import "time"

// MessageDirection tells whether a message was sent to or received from the client.
type MessageDirection string

const (
	DirectionOutbound MessageDirection = "outbound"
	DirectionInbound  MessageDirection = "inbound"
)

// Message is one entry in a submission's client conversation.
type Message struct {
	ID           string           `json:"id"`
	SubmissionID string           `json:"submissionId" validate:"required"`
	Body         string           `json:"body"         validate:"required"`
	Direction    MessageDirection `json:"direction"    validate:"required,oneof=outbound inbound"`
	CreatedAt    time.Time        `json:"createdAt"`
}
