package packet

import "errors"

// Sentinel errors for MalformedPacket conditions (spec.md §7). Callers
// classify with errors.Is; all are fatal to the connection the packet was
// read from.
var (
	ErrVarintTooLong   = errors.New("packet: remaining-length varint exceeds 4 bytes")
	ErrVarintOverflow  = errors.New("packet: remaining-length exceeds 268435455")
	ErrShortBuffer     = errors.New("packet: buffer shorter than declared field length")
	ErrInvalidUTF8     = errors.New("packet: invalid UTF-8 in string field")
	ErrUnknownCommand  = errors.New("packet: unknown or reserved command type")
	ErrInvalidQoS      = errors.New("packet: invalid QoS level")
	ErrEmptyTopic      = errors.New("packet: topic must not be empty")
	ErrTopicTooLong    = errors.New("packet: topic exceeds 65535 bytes")
	ErrTopicWildcard   = errors.New("packet: publish topic must not contain wildcard characters")
	ErrZeroMessageID   = errors.New("packet: message id must not be zero for QoS > 0")
	ErrTrailingBytes   = errors.New("packet: trailing bytes after decoding fixed fields")
	ErrPayloadTooLarge = errors.New("packet: payload exceeds maximum remaining length")
)
