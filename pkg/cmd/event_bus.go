// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/tangram/pkg/channels/gochannel"
	"github.com/dukex/tangram/pkg/channels/kafka"
	"github.com/dukex/tangram/pkg/eventbus"
)

// NewEventBus creates the event bus for provider: "gochannel" (default) or "kafka".
func NewEventBus(provider string, brokers []string, logger *slog.Logger) (eventbus.EventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "", "gochannel":
		pub, sub, err := gochannel.CreateChannel(wmLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create gochannel pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, brokers, "tangram")
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider: %s", provider)
	}
}
