package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dukex/tangram/pkg/events"
)

type WatermillEventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber

	mu            sync.RWMutex
	subscriptions map[events.EventType]EventHandler
}

func NewWatermillEventBus(pub message.Publisher, sub message.Subscriber) *WatermillEventBus {
	return &WatermillEventBus{
		publisher:     pub,
		subscriber:    sub,
		subscriptions: make(map[events.EventType]EventHandler),
	}
}

func (eb *WatermillEventBus) GenerateID() string {
	return watermill.NewULID()
}

// Publish sends the event on events.Topic. The key is carried in metadata so
// the Kafka marshaler can partition by submission.
func (eb *WatermillEventBus) Publish(ctx context.Context, key string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.GetType(), err)
	}

	msg := message.NewMessage("msg-"+eb.GenerateID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set(events.EventMetadataKey, key)
	msg.Metadata.Set(events.EventTypeMetadataKey, string(event.GetType()))

	return eb.publisher.Publish(events.Topic, msg)
}

// Subscribe starts delivering messages to the registered handlers until ctx
// is cancelled. Unhandled event types are acked and dropped.
func (eb *WatermillEventBus) Subscribe(ctx context.Context) error {
	messages, err := eb.subscriber.Subscribe(ctx, events.Topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			eb.dispatch(ctx, msg)
		}
	}()

	return nil
}

func (eb *WatermillEventBus) dispatch(ctx context.Context, msg *message.Message) {
	eventType := events.EventType(msg.Metadata.Get(events.EventTypeMetadataKey))

	eb.mu.RLock()
	handler, exists := eb.subscriptions[eventType]
	eb.mu.RUnlock()

	if !exists {
		msg.Ack()

		return
	}

	var event any

	switch eventType {
	case events.SubmissionCreatedEvent:
		event = &events.SubmissionCreated{}
	case events.SubmissionStageChangedEvent:
		event = &events.SubmissionStageChanged{}
	case events.SubmissionSubmittedEvent:
		event = &events.SubmissionSubmitted{}
	case events.MessageSentEvent:
		event = &events.MessageSent{}
	default:
		msg.Nack()

		return
	}

	err := json.Unmarshal(msg.Payload, event)
	if err != nil {
		msg.Nack()

		return
	}

	err = handler(ctx, event)
	if err != nil {
		msg.Nack()

		return
	}

	msg.Ack()
}

func (eb *WatermillEventBus) Handle(eventType events.EventType, handler EventHandler) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscriptions[eventType] = handler

	return nil
}

func (eb *WatermillEventBus) Close() error {
	err := eb.publisher.Close()
	if err != nil {
		return err
	}

	return eb.subscriber.Close()
}
