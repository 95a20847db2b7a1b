package packet

// Single-topic limit: the core only ever builds a SUBSCRIBE/UNSUBSCRIBE
// with one topic filter per call, matching the original source's
// single-topic SUBSCRIBE path (spec.md §9, "ambiguous source behaviors").

// EncodeSubscribe builds a SUBSCRIBE packet for one topic filter.
func EncodeSubscribe(mid uint16, topicFilter string, qos QoS) ([]byte, error) {
	if err := ValidateTopicFilter(topicFilter); err != nil {
		return nil, err
	}
	if !qos.IsValid() {
		return nil, ErrInvalidQoS
	}
	if mid == 0 {
		return nil, ErrZeroMessageID
	}

	var body []byte
	body = putUint16(body, mid)
	body = putString(body, topicFilter)
	body = append(body, byte(qos))

	return assemble(Header{Command: SUBSCRIBE}, body)
}

// DecodeSubscribe parses a SUBSCRIBE packet's variable header and payload.
func DecodeSubscribe(frame []byte) (mid uint16, topicFilter string, qos QoS, err error) {
	mid, rest, err := readUint16(frame)
	if err != nil {
		return 0, "", 0, err
	}
	topicFilter, rest, err = readString(rest)
	if err != nil {
		return 0, "", 0, err
	}
	if len(rest) < 1 {
		return 0, "", 0, ErrShortBuffer
	}
	qos = QoS(rest[0] & 0x03)
	if !qos.IsValid() {
		return 0, "", 0, ErrInvalidQoS
	}
	return mid, topicFilter, qos, nil
}

// SubackFailure is the granted-QoS byte value MQTT 3.1 uses to report a
// rejected subscription in a SUBACK (spec.md §3 "subscription").
const SubackFailure QoS = 0x80

// EncodeSuback builds a SUBACK packet carrying the granted QoS for each
// topic filter requested, in request order.
func EncodeSuback(mid uint16, grantedQoS []QoS) ([]byte, error) {
	var body []byte
	body = putUint16(body, mid)
	for _, q := range grantedQoS {
		body = append(body, byte(q))
	}
	return assemble(Header{Command: SUBACK}, body)
}

// DecodeSuback parses a SUBACK packet's message id and granted-QoS list.
func DecodeSuback(frame []byte) (mid uint16, grantedQoS []QoS, err error) {
	mid, rest, err := readUint16(frame)
	if err != nil {
		return 0, nil, err
	}
	grantedQoS = make([]QoS, len(rest))
	for i, b := range rest {
		grantedQoS[i] = QoS(b)
	}
	return mid, grantedQoS, nil
}

// EncodeUnsubscribe builds an UNSUBSCRIBE packet for one topic filter.
// Unlike SUBSCRIBE, it carries no trailing QoS byte (spec.md §4.1).
func EncodeUnsubscribe(mid uint16, topicFilter string) ([]byte, error) {
	if err := ValidateTopicFilter(topicFilter); err != nil {
		return nil, err
	}
	if mid == 0 {
		return nil, ErrZeroMessageID
	}

	var body []byte
	body = putUint16(body, mid)
	body = putString(body, topicFilter)

	return assemble(Header{Command: UNSUBSCRIBE}, body)
}

// DecodeUnsubscribe parses an UNSUBSCRIBE packet's message id and topic
// filter.
func DecodeUnsubscribe(frame []byte) (mid uint16, topicFilter string, err error) {
	mid, rest, err := readUint16(frame)
	if err != nil {
		return 0, "", err
	}
	topicFilter, _, err = readString(rest)
	if err != nil {
		return 0, "", err
	}
	return mid, topicFilter, nil
}

// EncodeUnsuback builds an UNSUBACK packet.
func EncodeUnsuback(mid uint16) ([]byte, error) {
	return assemble(Header{Command: UNSUBACK}, putUint16(nil, mid))
}

// DecodeUnsuback parses an UNSUBACK packet's message id.
func DecodeUnsuback(frame []byte) (uint16, error) {
	mid, _, err := readUint16(frame)
	return mid, err
}
