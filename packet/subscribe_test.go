package packet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeSubscribeRoundTrip(t *testing.T) {
	raw, err := EncodeSubscribe(5, "sensors/#", QoS1)
	require.NoError(t, err)
	h, n, err := ParseHeader(raw)
	require.NoError(t, err)
	require.Equal(t, SUBSCRIBE, h.Command)
	frame := raw[n : n+int(h.RemainingLength)]
	mid, filter, qos, err := DecodeSubscribe(frame)
	require.NoError(t, err)
	require.Equal(t, uint16(5), mid)
	require.Equal(t, "sensors/#", filter)
	require.Equal(t, QoS1, qos)
}

func TestEncodeDecodeSuback(t *testing.T) {
	raw, err := EncodeSuback(5, []QoS{QoS1})
	require.NoError(t, err)
	h, n, err := ParseHeader(raw)
	require.NoError(t, err)
	require.Equal(t, SUBACK, h.Command)
	frame := raw[n : n+int(h.RemainingLength)]
	mid, granted, err := DecodeSuback(frame)
	require.NoError(t, err)
	require.Equal(t, uint16(5), mid)
	require.Equal(t, []QoS{QoS1}, granted)
}

func TestEncodeDecodeUnsubscribeRoundTrip(t *testing.T) {
	raw, err := EncodeUnsubscribe(9, "sensors/#")
	require.NoError(t, err)
	h, n, err := ParseHeader(raw)
	require.NoError(t, err)
	require.Equal(t, UNSUBSCRIBE, h.Command)
	frame := raw[n : n+int(h.RemainingLength)]
	mid, filter, err := DecodeUnsubscribe(frame)
	require.NoError(t, err)
	require.Equal(t, uint16(9), mid)
	require.Equal(t, "sensors/#", filter)
}

func TestAckRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name   string
		encode func(uint16) ([]byte, error)
		decode func([]byte) (uint16, error)
		cmd    Type
	}{
		{"puback", EncodePuback, DecodePuback, PUBACK},
		{"pubrec", EncodePubrec, DecodePubrec, PUBREC},
		{"pubrel", EncodePubrel, DecodePubrel, PUBREL},
		{"pubcomp", EncodePubcomp, DecodePubcomp, PUBCOMP},
	} {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := tc.encode(42)
			require.NoError(t, err)
			h, n, err := ParseHeader(raw)
			require.NoError(t, err)
			require.Equal(t, tc.cmd, h.Command)
			mid, err := tc.decode(raw[n : n+int(h.RemainingLength)])
			require.NoError(t, err)
			require.Equal(t, uint16(42), mid)
		})
	}
}

func TestEncodeSimplePackets(t *testing.T) {
	require.Equal(t, []byte{0xE0, 0x00}, EncodeDisconnect())
	require.Equal(t, []byte{0xC0, 0x00}, EncodePingreq())
	require.Equal(t, []byte{0xD0, 0x00}, EncodePingresp())
}
