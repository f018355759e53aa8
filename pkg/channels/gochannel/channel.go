// Package gochannel provides the in-process event channel used when no broker is configured.
package gochannel

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// outputBuffer bounds how many undelivered events a slow subscriber can hold.
const outputBuffer = 1000

// CreateChannel returns one GoChannel as both publisher and subscriber.
// Events only reach subscribers of the same process, which is enough for a
// single API instance or local development. Publishing never waits for
// acknowledgement; stage changes must not block on event consumers.
func CreateChannel(logger watermill.LoggerAdapter) (*gochannel.GoChannel, *gochannel.GoChannel, error) {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            outputBuffer,
			Persistent:                     false,
			BlockPublishUntilSubscriberAck: false,
		},
		logger,
	)

	return pubSub, pubSub, nil
}
