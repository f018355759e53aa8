package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/tangram/pkg/channels/gochannel"
	"github.com/dukex/tangram/pkg/eventbus"
	"github.com/dukex/tangram/pkg/events"
	"github.com/dukex/tangram/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBus(t *testing.T) *eventbus.WatermillEventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() { _ = bus.Close() })

	return bus
}

func TestWatermillEventBus_DeliversTypedEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := newBus(t)
	received := make(chan *events.SubmissionStageChanged, 1)

	require.NoError(t, bus.Handle(events.SubmissionStageChangedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.SubmissionStageChanged)

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	err := bus.Publish(ctx, "sub-1", events.SubmissionStageChanged{
		BaseEvent: events.NewBaseEvent(events.SubmissionStageChangedEvent, "sub-1"),
		From:      models.StagePending,
		To:        models.StageReviewing,
		Action:    models.ActionClose,
	})
	require.NoError(t, err)

	select {
	case event := <-received:
		assert.Equal(t, "sub-1", event.SubmissionID)
		assert.Equal(t, models.StagePending, event.From)
		assert.Equal(t, models.StageReviewing, event.To)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestWatermillEventBus_IgnoresUnhandledTypes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := newBus(t)
	received := make(chan any, 2)

	require.NoError(t, bus.Handle(events.MessageSentEvent, func(_ context.Context, event any) error {
		received <- event

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	require.NoError(t, bus.Publish(ctx, "sub-1", events.SubmissionCreated{
		BaseEvent: events.NewBaseEvent(events.SubmissionCreatedEvent, "sub-1"),
	}))
	require.NoError(t, bus.Publish(ctx, "sub-1", events.MessageSent{
		BaseEvent: events.NewBaseEvent(events.MessageSentEvent, "sub-1"),
		MessageID: "m1",
	}))

	select {
	case event := <-received:
		sent, ok := event.(*events.MessageSent)
		require.True(t, ok)
		assert.Equal(t, "m1", sent.MessageID)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}

	assert.NotEmpty(t, bus.GenerateID())
}
