package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/tangram/pkg/eventbus"
	"github.com/dukex/tangram/pkg/events"
	"github.com/dukex/tangram/pkg/models"
	"github.com/dukex/tangram/pkg/persistence"
	"github.com/google/uuid"
)

// Messages manages client conversations. A conversation only accepts new
// messages once its submission has been sent to the client.
type Messages struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
}

// NewMessages creates a new messaging service. A nil publisher disables events.
func NewMessages(logger *slog.Logger, persistence persistence.Persistence, publisher eventbus.EventPublisher) *Messages {
	return &Messages{
		persistence: persistence,
		publisher:   publisher,
		logger:      logger.With("module", "messages_service"),
	}
}

// Conversation returns the messages of one submission, oldest first.
func (m *Messages) Conversation(ctx context.Context, submissionID string) ([]models.Message, error) {
	_, err := m.persistence.SubmissionRepository().GetByID(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	messages, err := m.persistence.MessageRepository().GetBySubmission(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	return messages, nil
}

// Log returns every message across all conversations, newest first.
func (m *Messages) Log(ctx context.Context) ([]models.Message, error) {
	messages, err := m.persistence.MessageRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	return messages, nil
}

// Post appends a message to a submission's conversation.
func (m *Messages) Post(
	ctx context.Context,
	submissionID string,
	body string,
	direction models.MessageDirection,
) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, NewValidationError("Post", "EMPTY_MESSAGE", "message body cannot be empty", ErrEmptyMessage)
	}

	if direction == "" {
		direction = models.DirectionOutbound
	}

	if direction != models.DirectionOutbound && direction != models.DirectionInbound {
		return nil, NewValidationError("Post", "INVALID_DIRECTION",
			fmt.Sprintf("unknown direction %q", direction), ErrInvalidRequest)
	}

	submission, err := m.persistence.SubmissionRepository().GetByID(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	if !submission.Stage.AcceptsChat() {
		return nil, NewConflictError("Post",
			fmt.Sprintf("submission %s is %s", submissionID, submission.Stage), ErrChatClosed)
	}

	message := &models.Message{
		ID:           uuid.NewString(),
		SubmissionID: submissionID,
		Body:         body,
		Direction:    direction,
		CreatedAt:    time.Now().UTC(),
	}

	err = m.persistence.MessageRepository().Save(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	if m.publisher != nil {
		err = m.publisher.Publish(ctx, submissionID, events.MessageSent{
			BaseEvent: events.NewBaseEvent(events.MessageSentEvent, submissionID),
			MessageID: message.ID,
			Direction: message.Direction,
		})
		if err != nil {
			m.logger.ErrorContext(ctx, "failed to publish event", "event_type", events.MessageSentEvent, "error", err)
		}
	}

	return message, nil
}
