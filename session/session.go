// Package session holds the per-connection state spec.md §3 describes:
// client identity, keep-alive interval, clean-session flag, the message-id
// generator, and the will. Unlike the teacher's session.Session, this type
// carries no mutex — the core is single-threaded per spec.md §5, and
// concurrent access from other goroutines is the caller's responsibility
// (see client.Serialized).
package session

import "time"

// State is the connection lifecycle state of spec.md §3.
type State byte

const (
	Disconnected State = iota
	Connecting
	Connected
	Disconnecting
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}

// Will is the last-will message registered for the session, sent by the
// broker if the connection is lost uncleanly.
type Will struct {
	Topic   string
	Payload []byte
	QoS     byte
	Retain  bool
}

// Session is the mutable state of one MQTT connection attempt. A new
// Session is not required for every reconnect: CleanSession is sent in
// CONNECT and controls whether the broker discards prior state. The
// client-side in-flight store is not kept here and does not survive a
// reconnect.
type Session struct {
	ClientID     string
	CleanSession bool
	KeepAlive    time.Duration

	State State

	Will *Will

	// LastOutgoing and LastIncoming track wall-clock activity for the
	// keep-alive rules of spec.md §4.3: a PINGREQ is due when
	// now-LastOutgoing >= KeepAlive, and the connection is considered lost
	// if nothing has arrived within 1.5*KeepAlive of LastIncoming.
	LastOutgoing time.Time
	LastIncoming time.Time

	nextID uint16
}

// New creates a Session ready for a fresh connection attempt. keepAlive of
// 0 disables the keep-alive mechanism entirely, per spec.md §4.3.
func New(clientID string, keepAlive time.Duration, cleanSession bool) *Session {
	return &Session{
		ClientID:     clientID,
		CleanSession: cleanSession,
		KeepAlive:    keepAlive,
		State:        Disconnected,
		nextID:       1,
	}
}

// SetWill registers a last-will message to be sent at CONNECT time.
func (s *Session) SetWill(w *Will) { s.Will = w }

// ClearWill removes any registered will.
func (s *Session) ClearWill() { s.Will = nil }

// NextMessageID returns the next message identifier to use for an
// outbound QoS 1/2 PUBLISH or SUBSCRIBE/UNSUBSCRIBE, per spec.md §3: ids
// are assigned sequentially starting at 1 and wrap from 65535 back to 1,
// skipping the reserved value 0.
func (s *Session) NextMessageID() uint16 {
	id := s.nextID
	if s.nextID == 65535 {
		s.nextID = 1
	} else {
		s.nextID++
	}
	return id
}

// Snapshot captures the fields a persist.SessionStore needs to resume this
// session across a process restart when CleanSession is false.
type Snapshot struct {
	ClientID     string
	CleanSession bool
	KeepAlive    time.Duration
	Will         *Will
	NextID       uint16
}

// Snapshot returns the persistable state of s.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		ClientID:     s.ClientID,
		CleanSession: s.CleanSession,
		KeepAlive:    s.KeepAlive,
		Will:         s.Will,
		NextID:       s.nextID,
	}
}

// Restore reinstates the will and the message-id counter from snap onto s,
// used when resuming a not-clean session loaded from a persist.SessionStore.
// ClientID, CleanSession and KeepAlive of s are left unchanged.
func (s *Session) Restore(snap Snapshot) {
	s.Will = snap.Will
	if snap.NextID != 0 {
		s.nextID = snap.NextID
	}
}

// MarkOutgoing records that a byte was just written to the wire, resetting
// the keep-alive PINGREQ clock.
func (s *Session) MarkOutgoing(now time.Time) { s.LastOutgoing = now }

// MarkIncoming records that a byte was just read from the wire, resetting
// the keep-alive timeout clock.
func (s *Session) MarkIncoming(now time.Time) { s.LastIncoming = now }

// PingDue reports whether a PINGREQ should be sent, per spec.md §4.3.
func (s *Session) PingDue(now time.Time) bool {
	if s.KeepAlive <= 0 {
		return false
	}
	return now.Sub(s.LastOutgoing) >= s.KeepAlive
}

// TimedOut reports whether the connection should be considered lost for
// want of inbound traffic, per spec.md §4.3's 1.5x keep-alive rule.
func (s *Session) TimedOut(now time.Time) bool {
	if s.KeepAlive <= 0 {
		return false
	}
	deadline := time.Duration(float64(s.KeepAlive) * 1.5)
	return now.Sub(s.LastIncoming) > deadline
}
