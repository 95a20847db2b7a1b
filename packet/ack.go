package packet

// encodeMidOnly builds the 2-byte-payload packets that carry only a
// message id: PUBACK, PUBREC, PUBREL, PUBCOMP.
func encodeMidOnly(cmd Type, mid uint16) ([]byte, error) {
	h := Header{Command: cmd}
	return assemble(h, putUint16(nil, mid))
}

// decodeMidOnly parses the 2-byte message-id payload shared by
// PUBACK/PUBREC/PUBREL/PUBCOMP.
func decodeMidOnly(frame []byte) (uint16, error) {
	mid, rest, err := readUint16(frame)
	if err != nil {
		return 0, err
	}
	if len(rest) != 0 {
		return 0, ErrTrailingBytes
	}
	return mid, nil
}

func EncodePuback(mid uint16) ([]byte, error)  { return encodeMidOnly(PUBACK, mid) }
func EncodePubrec(mid uint16) ([]byte, error)  { return encodeMidOnly(PUBREC, mid) }
func EncodePubrel(mid uint16) ([]byte, error)  { return encodeMidOnly(PUBREL, mid) }
func EncodePubcomp(mid uint16) ([]byte, error) { return encodeMidOnly(PUBCOMP, mid) }

func DecodePuback(frame []byte) (uint16, error)  { return decodeMidOnly(frame) }
func DecodePubrec(frame []byte) (uint16, error)  { return decodeMidOnly(frame) }
func DecodePubrel(frame []byte) (uint16, error)  { return decodeMidOnly(frame) }
func DecodePubcomp(frame []byte) (uint16, error) { return decodeMidOnly(frame) }
