package packet

// ConnectFlags bit positions within the CONNECT variable header's connect
// flags byte (spec.md §4.1).
const (
	connectFlagCleanSession = 0x02
	connectFlagWillFlag     = 0x04
	connectFlagWillQoSShift = 3
	connectFlagWillQoSMask  = 0x18
	connectFlagWillRetain   = 0x20
)

// Will describes an MQTT will: the message the broker publishes on this
// client's behalf if it disconnects ungracefully.
type Will struct {
	Topic   string
	Payload []byte
	QoS     QoS
	Retain  bool
}

// Connect is a decoded CONNECT packet's variable header and payload.
type Connect struct {
	ProtocolName   string
	ProtocolLevel  byte
	CleanSession   bool
	KeepAlive      uint16
	ClientID       string
	Will           *Will
	UsernameFlag   bool
	PasswordFlag   bool
	Username       string
	Password       []byte
}

// EncodeConnect builds a full CONNECT packet (fixed header + variable
// header + payload) for the given identifier, keep-alive, clean-session
// flag and optional will.
func EncodeConnect(clientID string, keepAlive uint16, cleanSession bool, will *Will) ([]byte, error) {
	var flags byte
	if cleanSession {
		flags |= connectFlagCleanSession
	}
	if will != nil {
		if err := ValidatePublishTopic(will.Topic); err != nil {
			return nil, err
		}
		if !will.QoS.IsValid() {
			return nil, ErrInvalidQoS
		}
		flags |= connectFlagWillFlag
		flags |= byte(will.QoS) << connectFlagWillQoSShift
		if will.Retain {
			flags |= connectFlagWillRetain
		}
	}

	var varHeader []byte
	varHeader = putString(varHeader, ProtocolName)
	varHeader = append(varHeader, ProtocolLevel)
	varHeader = append(varHeader, flags)
	varHeader = putUint16(varHeader, keepAlive)

	var payload []byte
	payload = putString(payload, clientID)
	if will != nil {
		payload = putString(payload, will.Topic)
		payload = putUint16(payload, uint16(len(will.Payload)))
		payload = append(payload, will.Payload...)
	}

	return assemble(Header{Command: CONNECT}, append(varHeader, payload...))
}

// DecodeConnect parses the variable header and payload of a CONNECT packet
// whose fixed header has already been consumed, frame being exactly
// remaining-length bytes.
func DecodeConnect(frame []byte) (*Connect, error) {
	name, rest, err := readString(frame)
	if err != nil {
		return nil, err
	}
	if name != ProtocolName {
		return nil, ErrInvalidUTF8
	}
	if len(rest) < 1 {
		return nil, ErrShortBuffer
	}
	level := rest[0]
	rest = rest[1:]
	if len(rest) < 1 {
		return nil, ErrShortBuffer
	}
	flags := rest[0]
	rest = rest[1:]
	keepAlive, rest, err := readUint16(rest)
	if err != nil {
		return nil, err
	}

	clientID, rest, err := readString(rest)
	if err != nil {
		return nil, err
	}

	c := &Connect{
		ProtocolName:  name,
		ProtocolLevel: level,
		CleanSession:  flags&connectFlagCleanSession != 0,
		KeepAlive:     keepAlive,
		ClientID:      clientID,
	}

	if flags&connectFlagWillFlag != 0 {
		topic, r2, err := readString(rest)
		if err != nil {
			return nil, err
		}
		rest = r2
		payloadLen, r3, err := readUint16(rest)
		if err != nil {
			return nil, err
		}
		rest = r3
		if len(rest) < int(payloadLen) {
			return nil, ErrShortBuffer
		}
		payload := make([]byte, payloadLen)
		copy(payload, rest[:payloadLen])
		rest = rest[payloadLen:]

		c.Will = &Will{
			Topic:   topic,
			Payload: payload,
			QoS:     QoS((flags & connectFlagWillQoSMask) >> connectFlagWillQoSShift),
			Retain:  flags&connectFlagWillRetain != 0,
		}
		if !c.Will.QoS.IsValid() {
			return nil, ErrInvalidQoS
		}
	}

	_ = rest // username/password payload fields are not used by this core
	return c, nil
}

// ConnectReturnCode is the second byte of a CONNACK's variable header.
type ConnectReturnCode byte

const (
	ConnAccepted             ConnectReturnCode = 0
	ConnRefusedProtoVersion  ConnectReturnCode = 1
	ConnRefusedIdentifier    ConnectReturnCode = 2
	ConnRefusedUnavailable   ConnectReturnCode = 3
	ConnRefusedBadUserPass   ConnectReturnCode = 4
	ConnRefusedNotAuthorized ConnectReturnCode = 5
)

// EncodeConnack builds a CONNACK packet.
func EncodeConnack(sessionPresent bool, code ConnectReturnCode) ([]byte, error) {
	var flags byte
	if sessionPresent {
		flags = 0x01
	}
	return assemble(Header{Command: CONNACK}, []byte{flags, byte(code)})
}

// DecodeConnack parses a CONNACK packet's variable header.
func DecodeConnack(frame []byte) (sessionPresent bool, code ConnectReturnCode, err error) {
	if len(frame) != 2 {
		return false, 0, ErrShortBuffer
	}
	return frame[0]&0x01 != 0, ConnectReturnCode(frame[1]), nil
}

// assemble prepends the fixed header (command byte + remaining-length
// varint) to an already-built variable header + payload.
func assemble(h Header, body []byte) ([]byte, error) {
	h.RemainingLength = uint32(len(body))
	rl, err := EncodeVarint(h.RemainingLength)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 1+len(rl)+len(body))
	out = append(out, h.FirstByte())
	out = append(out, rl...)
	out = append(out, body...)
	return out, nil
}
