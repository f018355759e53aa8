package kafka

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dukex/tangram/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBrokers(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", []string{}},
		{"localhost:9092", []string{"localhost:9092"}},
		{" a:9092 , ,b:9092,", []string{"a:9092", "b:9092"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseBrokers(tt.input))
		})
	}
}

func TestCreateChannel_NoBrokers(t *testing.T) {
	_, _, err := CreateChannel(watermill.NopLogger{}, nil, "tangram")
	assert.ErrorIs(t, err, ErrNoBrokers)
}

func TestMarshaler_KeysByEventKey(t *testing.T) {
	msg := message.NewMessage("msg-1", []byte(`{}`))
	msg.Metadata.Set(events.EventMetadataKey, "sub-42")

	produced, err := Marshaler().Marshal(events.Topic, msg)
	require.NoError(t, err)
	require.NotNil(t, produced.Key)

	key, err := produced.Key.Encode()
	require.NoError(t, err)
	assert.Equal(t, "sub-42", string(key))
}
