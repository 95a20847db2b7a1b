package client

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/nimbusmq/core/packet"
	"github.com/nimbusmq/core/session"
)

// Serialized wraps a Client with the thread-safe handoff queue spec.md
// §5 requires of embedders that drive the connection from more than one
// goroutine: each Client call that Serialized exposes is re-expressed as a closure
// submitted to a command channel, drained by the single goroutine running
// Run alongside LoopOnce. This mirrors the reference stack's bounded
// worker-dispatch idiom in network/pool.go (a buffered channel of work
// items consumed by one loop) rather than guarding the whole Client with
// a general-purpose mutex, which would let a slow caller block LoopOnce
// indefinitely.
//
// sem is a single-permit weighted semaphore (golang.org/x/sync/semaphore)
// ensuring Run's LoopOnce call and a queued command never execute
// concurrently, even though they're already interleaved by construction —
// it is the one point where a future second dispatcher goroutine could be
// added without breaking the mutual-exclusion invariant.
type Serialized struct {
	client *Client
	cmds   chan func()
	sem    *semaphore.Weighted
}

// NewSerialized wraps client for multi-goroutine use.
func NewSerialized(client *Client) *Serialized {
	return &Serialized{
		client: client,
		cmds:   make(chan func(), 64),
		sem:    semaphore.NewWeighted(1),
	}
}

// Run drives the connection until ctx is cancelled or LoopOnce returns a
// fatal error: it alternates between draining any queued command and
// running one LoopOnce iteration bounded by timeout.
func (s *Serialized) Run(ctx context.Context, timeout time.Duration) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-s.cmds:
			s.runExclusive(ctx, cmd)
			continue
		default:
		}

		if s.client.loop == nil {
			// Connect hasn't been submitted yet: block on the command
			// queue instead of busy-looping LoopOnce against an unset
			// loop.Loop.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case cmd := <-s.cmds:
				s.runExclusive(ctx, cmd)
			}
			continue
		}

		var loopErr error
		s.runExclusive(ctx, func() {
			loopErr = s.client.LoopOnce(timeout)
		})
		if loopErr != nil {
			return loopErr
		}
	}
}

func (s *Serialized) runExclusive(ctx context.Context, fn func()) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return
	}
	defer s.sem.Release(1)
	fn()
}

func (s *Serialized) submit(fn func()) {
	done := make(chan struct{})
	s.cmds <- func() {
		fn()
		close(done)
	}
	<-done
}

// Connect enqueues a CONNECT from the caller's goroutine, handed off to
// Run's dispatcher.
func (s *Serialized) Connect() (err error) {
	s.submit(func() { err = s.client.Connect() })
	return err
}

// Disconnect enqueues a DISCONNECT.
func (s *Serialized) Disconnect() {
	s.submit(func() { s.client.Disconnect() })
}

// Publish enqueues a PUBLISH, safe to call from any goroutine.
func (s *Serialized) Publish(topic string, payload []byte, qos packet.QoS, retain bool) (mid uint16, err error) {
	s.submit(func() { mid, err = s.client.Publish(topic, payload, qos, retain) })
	return mid, err
}

// Subscribe enqueues a single-topic SUBSCRIBE.
func (s *Serialized) Subscribe(topicFilter string, qos packet.QoS) (mid uint16, err error) {
	s.submit(func() { mid, err = s.client.Subscribe(topicFilter, qos) })
	return mid, err
}

// Unsubscribe enqueues a single-topic UNSUBSCRIBE.
func (s *Serialized) Unsubscribe(topicFilter string) (mid uint16, err error) {
	s.submit(func() { mid, err = s.client.Unsubscribe(topicFilter) })
	return mid, err
}

// SetWill registers a last-will message, effective on the next Connect.
func (s *Serialized) SetWill(w *session.Will) {
	s.submit(func() { s.client.SetWill(w) })
}

// Connected reports whether the most recent CONNACK accepted the
// connection.
func (s *Serialized) Connected() (ok bool) {
	s.submit(func() { ok = s.client.Connected() })
	return ok
}
