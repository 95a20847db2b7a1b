// Package inflight is the in-flight message store of spec.md §4.4: the
// set of QoS 1/2 messages currently moving through a delivery handshake,
// keyed by (direction, message id) and iterated in insertion order so
// retries are scanned in the order messages were first queued.
package inflight

import (
	"container/list"

	"github.com/nimbusmq/core/packet"
)

// Key identifies one in-flight entry. Inbound and outbound message-id
// spaces are independent per spec.md §4.4, so both direction and id are
// part of the key.
type Key struct {
	Direction packet.Direction
	ID        uint16
}

// Store holds in-flight QoS 1/2 messages. It is not safe for concurrent
// use — the core drives it from a single goroutine (spec.md §5).
type Store struct {
	order   *list.List
	entries map[Key]*list.Element
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		order:   list.New(),
		entries: make(map[Key]*list.Element),
	}
}

// Put inserts a new in-flight message. It returns ErrDuplicateID if an
// entry already exists for msg's (Direction, MessageID).
func (s *Store) Put(msg *packet.Message) error {
	key := Key{Direction: msg.Direction, ID: msg.MessageID}
	if _, ok := s.entries[key]; ok {
		return ErrDuplicateID
	}
	el := s.order.PushBack(msg)
	s.entries[key] = el
	return nil
}

// Get returns the in-flight message for (direction, id), or ErrNotFound.
func (s *Store) Get(direction packet.Direction, id uint16) (*packet.Message, error) {
	el, ok := s.entries[Key{Direction: direction, ID: id}]
	if !ok {
		return nil, ErrNotFound
	}
	return el.Value.(*packet.Message), nil
}

// Delete removes the in-flight entry for (direction, id). It is a no-op
// if no such entry exists, matching the teacher's idempotent-ack handling
// (spec.md §4.4: a duplicate/late ack for an already-completed message is
// ignored, not an error).
func (s *Store) Delete(direction packet.Direction, id uint16) {
	key := Key{Direction: direction, ID: id}
	el, ok := s.entries[key]
	if !ok {
		return
	}
	s.order.Remove(el)
	delete(s.entries, key)
}

// SetState updates the handshake state of an existing entry in place,
// without disturbing its position in the insertion order.
func (s *Store) SetState(direction packet.Direction, id uint16, state packet.State) error {
	el, ok := s.entries[Key{Direction: direction, ID: id}]
	if !ok {
		return ErrNotFound
	}
	el.Value.(*packet.Message).State = state
	return nil
}

// Has reports whether an entry exists for (direction, id).
func (s *Store) Has(direction packet.Direction, id uint16) bool {
	_, ok := s.entries[Key{Direction: direction, ID: id}]
	return ok
}

// Len returns the number of in-flight messages.
func (s *Store) Len() int { return s.order.Len() }

// Range calls fn for each in-flight message in insertion order, stopping
// early if fn returns false. Used for retry-on-tick scanning.
func (s *Store) Range(fn func(msg *packet.Message) bool) {
	for el := s.order.Front(); el != nil; el = el.Next() {
		if !fn(el.Value.(*packet.Message)) {
			return
		}
	}
}

// Clear discards every in-flight entry. Nothing in the core calls it: each
// client.Client.Connect starts with a new, empty Store.
func (s *Store) Clear() {
	s.order = list.New()
	s.entries = make(map[Key]*list.Element)
}
