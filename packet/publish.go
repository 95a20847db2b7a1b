package packet

// EncodePublish builds a full PUBLISH packet. mid is ignored (and omitted
// from the wire) when qos is QoS0, per spec.md §4.1.
func EncodePublish(mid uint16, topic string, payload []byte, qos QoS, retain, dup bool) ([]byte, error) {
	if err := ValidatePublishTopic(topic); err != nil {
		return nil, err
	}
	if !qos.IsValid() {
		return nil, ErrInvalidQoS
	}
	if qos != QoS0 && mid == 0 {
		return nil, ErrZeroMessageID
	}

	var body []byte
	body = putString(body, topic)
	if qos != QoS0 {
		body = putUint16(body, mid)
	}
	body = append(body, payload...)

	if uint64(len(body)) > uint64(MaxRemainingLength) {
		return nil, ErrPayloadTooLarge
	}

	h := Header{Command: PUBLISH, Dup: dup, QoS: qos, Retain: retain}
	return assemble(h, body)
}

// DecodePublish parses the variable header and payload of a PUBLISH packet
// given its already-decoded fixed header and frame bytes.
func DecodePublish(h Header, frame []byte) (*Message, error) {
	if !h.QoS.IsValid() {
		return nil, ErrInvalidQoS
	}

	topic, rest, err := readString(frame)
	if err != nil {
		return nil, err
	}
	if len(topic) == 0 {
		return nil, ErrEmptyTopic
	}

	var mid uint16
	if h.QoS != QoS0 {
		mid, rest, err = readUint16(rest)
		if err != nil {
			return nil, err
		}
		if mid == 0 {
			return nil, ErrZeroMessageID
		}
	}

	payload := make([]byte, len(rest))
	copy(payload, rest)

	return &Message{
		MessageID: mid,
		Topic:     topic,
		Payload:   payload,
		QoS:       h.QoS,
		Retain:    h.Retain,
		Dup:       h.Dup,
		Direction: Inbound,
	}, nil
}
