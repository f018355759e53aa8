// Package kafka provides the Kafka-backed watermill publisher and subscriber.
package kafka

import (
	"errors"
	"strings"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dukex/tangram/pkg/events"
)

// ErrNoBrokers is returned when no Kafka broker address is configured.
var ErrNoBrokers = errors.New("no Kafka brokers configured")

// ParseBrokers splits a comma separated broker list, dropping blanks.
func ParseBrokers(value string) []string {
	brokers := make([]string, 0)

	for _, b := range strings.Split(value, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	return brokers
}

// Marshaler keys every Kafka message by its event key so all events of one
// submission land on the same partition and keep their order.
func Marshaler() kafka.MarshalerUnmarshaler {
	return kafka.NewWithPartitioningMarshaler(func(_ string, msg *message.Message) (string, error) {
		return msg.Metadata.Get(events.EventMetadataKey), nil
	})
}

func CreateChannel(logger watermill.LoggerAdapter, brokers []string, serviceName string) (*kafka.Publisher, *kafka.Subscriber, error) {
	if len(brokers) == 0 {
		return nil, nil, ErrNoBrokers
	}

	marshaler := Marshaler()

	saramaSubscriberConfig := kafka.DefaultSaramaSubscriberConfig()
	saramaSubscriberConfig.Consumer.Offsets.Initial = sarama.OffsetOldest

	subscriber, err := kafka.NewSubscriber(
		kafka.SubscriberConfig{
			Brokers:               brokers,
			Unmarshaler:           marshaler,
			OverwriteSaramaConfig: saramaSubscriberConfig,
			ConsumerGroup:         "cg-" + serviceName,
			OTELEnabled:           true,
		},
		logger,
	)
	if err != nil {
		return nil, nil, err
	}

	saramaPublisherConfig := sarama.NewConfig()
	saramaPublisherConfig.Producer.Return.Successes = true

	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:               brokers,
			Marshaler:             marshaler,
			OverwriteSaramaConfig: saramaPublisherConfig,
			OTELEnabled:           true,
		},
		logger,
	)
	if err != nil {
		_ = subscriber.Close()

		return nil, nil, err
	}

	return publisher, subscriber, nil
}
