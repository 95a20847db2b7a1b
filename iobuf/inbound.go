package iobuf

import (
	"errors"
	"io"

	"github.com/nimbusmq/core/packet"
	"github.com/nimbusmq/core/transport"
)

type inboundStage byte

const (
	stageCommand inboundStage = iota
	stageVarint
	stagePayload
	stageComplete
)

// Inbound is the resumable inbound packet buffer of spec.md §4.2: command
// byte → remaining-length varint → payload bytes, with each sub-stage
// saving its cursor so a short read (transport.ErrWouldBlock) leaves
// progress intact for the next call to Fill.
type Inbound struct {
	stage   inboundStage
	first   byte
	varint  *packet.VarintDecoder
	header  packet.Header
	payload []byte
	pos     int
}

// NewInbound returns an Inbound ready to read the next frame.
func NewInbound() *Inbound {
	return &Inbound{varint: packet.NewVarintDecoder()}
}

// Reset returns the buffer to its initial state, ready for the next frame.
// Once payload allocation has occurred the size invariant of spec.md §4.2
// holds until Reset is called: len(payload) always equals the decoded
// remaining length, and pos+remaining always equals that size.
func (in *Inbound) Reset() {
	in.stage = stageCommand
	in.first = 0
	in.varint.Reset()
	in.header = packet.Header{}
	in.payload = nil
	in.pos = 0
}

// Fill attempts to make progress reading the current frame from r. It
// returns (true, nil) once a complete frame is buffered; (false, nil) if
// r reported transport.ErrWouldBlock before the frame completed (progress
// is retained for the next call); or a fatal error — including
// ErrPeerClosed for a 0-byte read after a partial frame, and any
// packet.ErrVarint*/MalformedPacket-classified decode error.
func (in *Inbound) Fill(r transport.Conn) (bool, error) {
	for {
		switch in.stage {
		case stageCommand:
			var b [1]byte
			n, err := r.Read(b[:])
			if n == 0 {
				return false, classifyShortRead(err, false)
			}
			in.first = b[0]
			if err := in.decodeFirstByte(); err != nil {
				return false, err
			}
			in.stage = stageVarint

		case stageVarint:
			var b [1]byte
			n, err := r.Read(b[:])
			if n == 0 {
				return false, classifyShortRead(err, true)
			}
			value, done, ferr := in.varint.Feed(b[0])
			if ferr != nil {
				return false, ferr
			}
			if done {
				in.header.RemainingLength = value
				if value == 0 {
					in.stage = stageComplete
					return true, nil
				}
				in.payload = make([]byte, value)
				in.pos = 0
				in.stage = stagePayload
			}

		case stagePayload:
			remaining := len(in.payload) - in.pos
			if remaining == 0 {
				in.stage = stageComplete
				return true, nil
			}
			n, err := r.Read(in.payload[in.pos:])
			in.pos += n
			if n == 0 {
				return false, classifyShortRead(err, true)
			}
			if in.pos == len(in.payload) {
				in.stage = stageComplete
				return true, nil
			}

		case stageComplete:
			return true, nil
		}
	}
}

// classifyShortRead turns a Read result with n==0 into either "try again
// later" (nil error, caller sees Fill return false) or a fatal error.
// midFrame controls whether a clean EOF is promoted to ErrPeerClosed, per
// spec.md §4.2: "a short read returning 0 bytes with a prior partial read
// signals peer close and surfaces as a fatal error to the loop."
func classifyShortRead(err error, midFrame bool) error {
	if errors.Is(err, transport.ErrWouldBlock) {
		return nil
	}
	if errors.Is(err, io.EOF) {
		if midFrame {
			return ErrPeerClosed
		}
		return io.EOF
	}
	if err == nil {
		return nil
	}
	return err
}

// Header returns the decoded fixed header once Fill has returned true.
func (in *Inbound) Header() packet.Header { return in.header }

// decodeFirstByte decodes the command nibble and PUBLISH flags as soon as
// the first wire byte arrives, so an unknown command or invalid QoS is
// rejected immediately rather than after buffering a payload for it.
func (in *Inbound) decodeFirstByte() error {
	cmd := packet.Type(in.first >> 4)
	if cmd == packet.Reserved || cmd > packet.DISCONNECT {
		return packet.ErrUnknownCommand
	}
	in.header.Command = cmd
	if cmd == packet.PUBLISH {
		in.header.Dup = in.first&0x08 != 0
		in.header.QoS = packet.QoS((in.first & 0x06) >> 1)
		in.header.Retain = in.first&0x01 != 0
		if !in.header.QoS.IsValid() {
			return packet.ErrInvalidQoS
		}
	}
	return nil
}

// Payload returns the buffered frame payload once complete.
func (in *Inbound) Payload() []byte { return in.payload }
