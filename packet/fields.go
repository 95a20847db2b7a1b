package packet

import (
	"encoding/binary"
	"unicode/utf8"
)

// putUint16 appends the big-endian encoding of v to buf.
func putUint16(buf []byte, v uint16) []byte {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	return append(buf, tmp[:]...)
}

// putString appends an MQTT-encoded string (uint16 length prefix + UTF-8
// bytes) to buf.
func putString(buf []byte, s string) []byte {
	buf = putUint16(buf, uint16(len(s)))
	return append(buf, s...)
}

// readUint16 reads a big-endian uint16 from the front of buf, returning the
// value and the unconsumed remainder.
func readUint16(buf []byte) (uint16, []byte, error) {
	if len(buf) < 2 {
		return 0, nil, ErrShortBuffer
	}
	return binary.BigEndian.Uint16(buf), buf[2:], nil
}

// readString reads a length-prefixed MQTT string from the front of buf,
// returning the decoded string and the unconsumed remainder. It rejects
// invalid UTF-8.
func readString(buf []byte) (string, []byte, error) {
	n, rest, err := readUint16(buf)
	if err != nil {
		return "", nil, err
	}
	if len(rest) < int(n) {
		return "", nil, ErrShortBuffer
	}
	s := string(rest[:n])
	if !utf8.ValidString(s) {
		return "", nil, ErrInvalidUTF8
	}
	return s, rest[n:], nil
}
