package packet

// MaxRemainingLength is the largest value representable in MQTT's 4-byte
// variable-length remaining-length field (spec.md §4.1).
const MaxRemainingLength uint32 = 268435455

// MaxVarintBytes is the maximum number of bytes a remaining-length varint
// may occupy on the wire.
const MaxVarintBytes = 4

// EncodeVarint encodes n as an MQTT remaining-length variable byte integer.
// n must not exceed MaxRemainingLength.
func EncodeVarint(n uint32) ([]byte, error) {
	if n > MaxRemainingLength {
		return nil, ErrVarintOverflow
	}
	buf := make([]byte, 0, MaxVarintBytes)
	for {
		b := byte(n % 128)
		n /= 128
		if n > 0 {
			b |= 0x80
		}
		buf = append(buf, b)
		if n == 0 {
			break
		}
	}
	return buf, nil
}

// VarintDecoder accumulates a remaining-length varint one byte at a time,
// so a short read can resume exactly where it left off (spec.md §4.2).
type VarintDecoder struct {
	value      uint32
	multiplier uint32
	count      int
	Done       bool
}

// NewVarintDecoder returns a fresh decoder ready to accept its first byte.
func NewVarintDecoder() *VarintDecoder {
	return &VarintDecoder{multiplier: 1}
}

// Reset returns the decoder to its initial state for reuse.
func (d *VarintDecoder) Reset() {
	d.value = 0
	d.multiplier = 1
	d.count = 0
	d.Done = false
}

// Feed consumes one wire byte. It returns (value, true, nil) once the
// terminating byte (continuation bit clear) has been seen; otherwise it
// returns (0, false, nil) and the caller should feed the next byte when
// available. An error is returned if more than MaxVarintBytes bytes are fed
// without termination, or if the accumulated value would exceed
// MaxRemainingLength.
func (d *VarintDecoder) Feed(b byte) (uint32, bool, error) {
	if d.count >= MaxVarintBytes {
		return 0, false, ErrVarintTooLong
	}
	d.value += uint32(b&0x7F) * d.multiplier
	d.count++
	if b&0x80 == 0 {
		if d.value > MaxRemainingLength {
			return 0, false, ErrVarintOverflow
		}
		d.Done = true
		return d.value, true, nil
	}
	if d.count == MaxVarintBytes {
		// A 4th byte with the continuation bit still set can never encode
		// a value within range; fail immediately rather than waiting for
		// a 5th byte that would also be rejected by the count check above.
		return 0, false, ErrVarintTooLong
	}
	d.multiplier *= 128
	return 0, false, nil
}

// DecodeVarint decodes a complete remaining-length varint from buf,
// returning the value and the number of bytes consumed. It is a
// convenience wrapper over VarintDecoder for callers that already hold the
// full buffer in memory.
func DecodeVarint(buf []byte) (value uint32, n int, err error) {
	d := NewVarintDecoder()
	for i, b := range buf {
		v, done, ferr := d.Feed(b)
		if ferr != nil {
			return 0, 0, ferr
		}
		if done {
			return v, i + 1, nil
		}
	}
	return 0, 0, ErrShortBuffer
}
