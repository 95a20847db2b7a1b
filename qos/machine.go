// Package qos implements the QoS 1 and QoS 2 delivery handshakes of
// spec.md §4.4 as a synchronous state machine: every method call is a
// single, non-blocking transition driven by the loop's dispatch of an
// already-decoded inbound packet or an application Publish call. There is
// no background goroutine, no timer, and no lock — the teacher's
// goroutine-per-handler qos.Handler is replaced with plain function calls
// because spec.md §5 mandates a single-threaded cooperative core.
package qos

import (
	"time"

	"github.com/nimbusmq/core/inflight"
	"github.com/nimbusmq/core/packet"
)

// Machine drives the QoS 1/2 handshakes for both directions using a
// shared in-flight store. Inbound and outbound handshakes are tracked
// independently (packet.Direction distinguishes them), matching spec.md
// §4.4's statement that the two message-id spaces never collide.
type Machine struct {
	store    *inflight.Store
	recorder Recorder
}

// New returns a Machine backed by store. A nil recorder is replaced with
// a no-op implementation.
func New(store *inflight.Store, recorder Recorder) *Machine {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Machine{store: store, recorder: recorder}
}

// RegisterOutbound records a freshly-sent QoS 1/2 PUBLISH as in-flight so
// its handshake can be tracked and, if needed, retried. QoS 0 messages
// must not be passed here — spec.md §4.4 says they are never stored.
func (m *Machine) RegisterOutbound(msg *packet.Message) error {
	clone := msg.Clone()
	clone.Direction = packet.Outbound
	switch clone.QoS {
	case packet.QoS1:
		clone.State = packet.WaitPubAck
	case packet.QoS2:
		clone.State = packet.WaitPubRec
	default:
		return nil
	}
	if err := m.store.Put(clone); err != nil {
		return err
	}
	m.recorder.IncInflight("outbound", byte(clone.QoS), 1)
	return nil
}

// HandlePuback completes an outbound QoS 1 handshake. It returns the
// completed message (for the on_publish callback) and true, or (nil,
// false) if no matching in-flight entry exists — a late or duplicate
// PUBACK is ignored rather than treated as an error, per spec.md §4.4.
func (m *Machine) HandlePuback(id uint16) (*packet.Message, bool) {
	msg, err := m.store.Get(packet.Outbound, id)
	if err != nil || msg.State != packet.WaitPubAck {
		return nil, false
	}
	m.store.Delete(packet.Outbound, id)
	m.recorder.IncInflight("outbound", byte(packet.QoS1), -1)
	m.recorder.ObserveRoundTrip("outbound", byte(packet.QoS1), time.Since(msg.Timestamp))
	return msg, true
}

// HandlePubrec advances an outbound QoS 2 handshake from step 2 to step
// 3, returning the encoded PUBREL to send. ok is false for an unknown or
// out-of-state message id, in which case no PUBREL should be sent.
func (m *Machine) HandlePubrec(id uint16) (encoded []byte, ok bool, err error) {
	msg, gerr := m.store.Get(packet.Outbound, id)
	if gerr != nil || msg.State != packet.WaitPubRec {
		return nil, false, nil
	}
	if err := m.store.SetState(packet.Outbound, id, packet.WaitPubComp); err != nil {
		return nil, false, err
	}
	encoded, err = packet.EncodePubrel(id)
	if err != nil {
		return nil, false, err
	}
	return encoded, true, nil
}

// HandlePubcomp completes an outbound QoS 2 handshake. Semantics mirror
// HandlePuback.
func (m *Machine) HandlePubcomp(id uint16) (*packet.Message, bool) {
	msg, err := m.store.Get(packet.Outbound, id)
	if err != nil || msg.State != packet.WaitPubComp {
		return nil, false
	}
	m.store.Delete(packet.Outbound, id)
	m.recorder.IncInflight("outbound", byte(packet.QoS2), -1)
	m.recorder.ObserveRoundTrip("outbound", byte(packet.QoS2), time.Since(msg.Timestamp))
	return msg, true
}

// InboundDecision tells the loop what to do with a freshly-decoded
// inbound PUBLISH: whether to hand it to the application callback, and
// what acknowledgment bytes (if any) to enqueue in reply.
type InboundDecision struct {
	Deliver bool
	Ack     []byte
}

// HandleInboundPublish applies spec.md §4.4's per-QoS inbound rules:
//
//   - QoS 0: always delivered, never acknowledged or stored.
//   - QoS 1: always delivered and PUBACK'd; at-least-once semantics place
//     duplicate-suppression on the application, not the core.
//   - QoS 2: stored in WaitPubRel and PUBREC'd, never delivered on
//     PUBLISH — the application is notified exactly once, on PUBREL
//     (HandlePubrel), per spec.md §3/§4.4.
func (m *Machine) HandleInboundPublish(msg *packet.Message) (InboundDecision, error) {
	switch msg.QoS {
	case packet.QoS0:
		return InboundDecision{Deliver: true}, nil

	case packet.QoS1:
		ack, err := packet.EncodePuback(msg.MessageID)
		if err != nil {
			return InboundDecision{}, err
		}
		return InboundDecision{Deliver: true, Ack: ack}, nil

	case packet.QoS2:
		ack, err := packet.EncodePubrec(msg.MessageID)
		if err != nil {
			return InboundDecision{}, err
		}
		if m.store.Has(packet.Inbound, msg.MessageID) {
			return InboundDecision{Deliver: false, Ack: ack}, nil
		}
		stored := msg.Clone()
		stored.Direction = packet.Inbound
		stored.State = packet.WaitPubRel
		if err := m.store.Put(stored); err != nil {
			return InboundDecision{}, err
		}
		m.recorder.IncInflight("inbound", byte(packet.QoS2), 1)
		return InboundDecision{Deliver: false, Ack: ack}, nil

	default:
		return InboundDecision{}, packet.ErrInvalidQoS
	}
}

// HandlePubrel completes the receiver side of a QoS 2 handshake: the
// in-flight record (if any) is discarded, the stored message is returned
// for delivery to the application — this is the only point at which a
// QoS 2 inbound message is notified, per spec.md §3/§8 — and a PUBCOMP is
// always returned, even for an unknown id, so a PUBREL retransmitted
// after the handshake already completed locally still gets answered
// instead of silently dropped (in which case the returned message is
// nil: it has already been delivered once and must not be redelivered).
func (m *Machine) HandlePubrel(id uint16) (msg *packet.Message, ack []byte, err error) {
	if stored, gerr := m.store.Get(packet.Inbound, id); gerr == nil && stored.State == packet.WaitPubRel {
		msg = stored
		m.store.Delete(packet.Inbound, id)
		m.recorder.IncInflight("inbound", byte(packet.QoS2), -1)
	}
	ack, err = packet.EncodePubcomp(id)
	if err != nil {
		return nil, nil, err
	}
	return msg, ack, nil
}

// DefaultRetryInterval is the flat resend interval of spec.md §4.4: an
// in-flight outbound message with no response within this window is
// retransmitted with DUP set.
const DefaultRetryInterval = 20 * time.Second

// DueForRetry returns every outbound in-flight message whose last send
// is older than interval, marking each Dup and stamping a fresh
// Timestamp so repeated ticks don't immediately re-select it.
func (m *Machine) DueForRetry(now time.Time, interval time.Duration) []*packet.Message {
	var due []*packet.Message
	m.store.Range(func(msg *packet.Message) bool {
		if msg.Direction == packet.Outbound && now.Sub(msg.Timestamp) >= interval {
			msg.Dup = true
			msg.Timestamp = now
			due = append(due, msg)
			m.recorder.IncRetry("outbound", byte(msg.QoS))
		}
		return true
	})
	return due
}
