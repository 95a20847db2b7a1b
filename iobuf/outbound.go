package iobuf

import (
	"errors"

	"github.com/nimbusmq/core/transport"
)

// Outbound is one queued packet's resumable write cursor: the fully
// pre-encoded wire bytes (command byte, varint, variable header, payload
// already assembled by the packet package) plus a read cursor recording
// how much has been written so far (spec.md §4.2).
type Outbound struct {
	bytes []byte
	pos   int

	// MessageID is carried alongside a QoS-0 PUBLISH packet purely so the
	// loop can fire on_publish once the bytes have actually been written
	// (spec.md §3's "application message-id for QoS 0 completion").
	MessageID uint16
	// Qos0Complete marks an outbound packet as needing an on_publish
	// callback on write completion even though it is never stored
	// in-flight (QoS-0 publishes, spec.md §4.4).
	Qos0Complete bool
}

// NewOutbound wraps already-encoded packet bytes for queued transmission.
func NewOutbound(encoded []byte) *Outbound {
	return &Outbound{bytes: encoded}
}

// Done reports whether every byte has been written.
func (o *Outbound) Done() bool { return o.pos >= len(o.bytes) }

// WriteTo attempts to write the remaining bytes to w, resuming from the
// saved cursor. It returns (true, nil) once fully written, (false, nil) if
// w reported transport.ErrWouldBlock, or a fatal error.
func (o *Outbound) WriteTo(w transport.Conn) (bool, error) {
	for o.pos < len(o.bytes) {
		n, err := w.Write(o.bytes[o.pos:])
		o.pos += n
		if err != nil {
			if errors.Is(err, transport.ErrWouldBlock) {
				return false, nil
			}
			return false, err
		}
		if n == 0 {
			return false, nil
		}
	}
	return true, nil
}

// Queue is the FIFO outbound packet queue of spec.md §3: head is the
// packet currently being written, tail is where new packets are appended.
// The core places no bound on queue length.
type Queue struct {
	items []*Outbound
}

// Push appends a packet to the tail of the queue.
func (q *Queue) Push(o *Outbound) {
	q.items = append(q.items, o)
}

// Head returns the packet currently being written, or nil if the queue is
// empty.
func (q *Queue) Head() *Outbound {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

// Pop removes the head packet once it has been fully written.
func (q *Queue) Pop() {
	if len(q.items) == 0 {
		return
	}
	q.items = q.items[1:]
}

// Empty reports whether the queue has no packets.
func (q *Queue) Empty() bool { return len(q.items) == 0 }

// Len returns the number of packets currently queued.
func (q *Queue) Len() int { return len(q.items) }
