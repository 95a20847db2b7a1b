package packet

// ParseHeader decodes a complete fixed header from an in-memory buffer,
// returning the header, the number of bytes consumed, and any error. It is
// a convenience used by tests and by callers that already hold the whole
// frame; the connection loop itself uses iobuf's resumable cursor instead,
// since a real socket read may stop mid-header (spec.md §4.2).
func ParseHeader(buf []byte) (Header, int, error) {
	if len(buf) < 1 {
		return Header{}, 0, ErrShortBuffer
	}
	first := buf[0]
	cmd := Type(first >> 4)
	if cmd == Reserved {
		return Header{}, 0, ErrUnknownCommand
	}
	if cmd > DISCONNECT {
		return Header{}, 0, ErrUnknownCommand
	}

	h := Header{Command: cmd}
	if cmd == PUBLISH {
		h.Dup = first&0x08 != 0
		h.QoS = QoS((first & 0x06) >> 1)
		h.Retain = first&0x01 != 0
		if !h.QoS.IsValid() {
			return Header{}, 0, ErrInvalidQoS
		}
	}

	rl, n, err := DecodeVarint(buf[1:])
	if err != nil {
		return Header{}, 0, err
	}
	h.RemainingLength = rl
	return h, 1 + n, nil
}
