package packet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodePublishQoS0Bytes(t *testing.T) {
	// Scenario 2 from spec.md §8: publish("a/b", "hi", qos=0).
	got, err := EncodePublish(0, "a/b", []byte("hi"), QoS0, false, false)
	require.NoError(t, err)
	want := []byte{0x30, 0x07, 0x00, 0x03, 'a', '/', 'b', 'h', 'i'}
	require.Equal(t, want, got)
}

func TestEncodeDecodePublishRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		mid    uint16
		topic  string
		qos    QoS
		retain bool
		dup    bool
	}{
		{"qos0", 0, "a/b", QoS0, false, false},
		{"qos1", 42, "sensors/temp", QoS1, true, false},
		{"qos2-dup-retain", 7, "x/y/z", QoS2, true, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			payload := []byte("payload-" + c.name)
			raw, err := EncodePublish(c.mid, c.topic, payload, c.qos, c.retain, c.dup)
			require.NoError(t, err)

			h, n, err := ParseHeader(raw)
			require.NoError(t, err)
			require.Equal(t, PUBLISH, h.Command)
			require.Equal(t, c.qos, h.QoS)
			require.Equal(t, c.retain, h.Retain)
			require.Equal(t, c.dup, h.Dup)

			frame := raw[n : n+int(h.RemainingLength)]
			msg, err := DecodePublish(h, frame)
			require.NoError(t, err)
			require.Equal(t, c.topic, msg.Topic)
			require.Equal(t, payload, msg.Payload)
			require.Equal(t, c.mid, msg.MessageID)
			require.Equal(t, c.qos, msg.QoS)
		})
	}
}

func TestEncodePublishRejectsEmptyTopic(t *testing.T) {
	_, err := EncodePublish(0, "", []byte("x"), QoS0, false, false)
	require.ErrorIs(t, err, ErrEmptyTopic)
}

func TestEncodePublishRejectsZeroMidForQoS1(t *testing.T) {
	_, err := EncodePublish(0, "a", []byte("x"), QoS1, false, false)
	require.ErrorIs(t, err, ErrZeroMessageID)
}

func TestEncodePublishRejectsWildcardTopic(t *testing.T) {
	_, err := EncodePublish(0, "a/+/b", []byte("x"), QoS0, false, false)
	require.ErrorIs(t, err, ErrTopicWildcard)
}

func TestDecodePublishRejectsZeroMid(t *testing.T) {
	raw, err := EncodePublish(1, "a/b", []byte("x"), QoS1, false, false)
	require.NoError(t, err)
	h, n, err := ParseHeader(raw)
	require.NoError(t, err)
	frame := raw[n : n+int(h.RemainingLength)]
	// Overwrite the encoded message id with zero.
	frame[len(frame)-len("x")-2] = 0
	frame[len(frame)-len("x")-1] = 0
	_, err = DecodePublish(h, frame)
	require.ErrorIs(t, err, ErrZeroMessageID)
}
