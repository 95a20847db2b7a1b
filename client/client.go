// Package client is the public-facing API of spec.md §6: a single
// MQTT 3.1 connection, constructed over an already-dialed transport.Conn,
// driven by repeated LoopOnce calls from the caller's own event loop.
package client

import (
	"time"

	"github.com/nimbusmq/core/callback"
	"github.com/nimbusmq/core/loop"
	"github.com/nimbusmq/core/packet"
	"github.com/nimbusmq/core/session"
	"github.com/nimbusmq/core/transport"
)

// Client is not safe for concurrent use from multiple goroutines (spec.md
// §5: the core assumes single-writer access). Use Serialized for a
// thread-safe handoff wrapper.
type Client struct {
	conn   transport.Conn
	waiter transport.Waiter
	sess   *session.Session
	cfg    *config

	handlers callback.Handlers
	loop     *loop.Loop
}

// New constructs a Client over conn/waiter for the given client
// identifier. The connection is not dialed or established here — Connect
// does that by enqueueing a CONNECT packet.
func New(conn transport.Conn, waiter transport.Waiter, clientID string, opts ...Option) *Client {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	sess := session.New(clientID, cfg.keepAlive, cfg.cleanSession)
	if cfg.will != nil {
		sess.SetWill(cfg.will)
	}
	return &Client{conn: conn, waiter: waiter, sess: sess, cfg: cfg}
}

// SetOnConnect registers the CONNACK callback.
func (c *Client) SetOnConnect(fn func(callback.ConnectResult)) { c.handlers.OnConnect = fn }

// SetOnMessage registers the inbound PUBLISH callback.
func (c *Client) SetOnMessage(fn func(*packet.Message)) { c.handlers.OnMessage = fn }

// SetOnPublish registers the outbound-PUBLISH-acknowledged callback.
func (c *Client) SetOnPublish(fn func(messageID uint16)) { c.handlers.OnPublish = fn }

// SetOnSubscribe registers the SUBACK callback.
func (c *Client) SetOnSubscribe(fn func(messageID uint16, grantedQoS packet.QoS)) {
	c.handlers.OnSubscribe = fn
}

// SetOnUnsubscribe registers the UNSUBACK callback.
func (c *Client) SetOnUnsubscribe(fn func(messageID uint16)) { c.handlers.OnUnsubscribe = fn }

// SetOnDisconnect registers the teardown callback.
func (c *Client) SetOnDisconnect(fn func(error)) { c.handlers.OnDisconnect = fn }

// SetWill registers a last-will message, effective on the next Connect.
func (c *Client) SetWill(w *session.Will) { c.sess.SetWill(w) }

// ClearWill removes any registered will.
func (c *Client) ClearWill() { c.sess.ClearWill() }

// Snapshot captures the session state an out-of-core persist.SessionStore
// needs to resume a non-clean session across a reconnect.
func (c *Client) Snapshot() session.Snapshot { return c.sess.Snapshot() }

// RestoreSession applies a previously saved Snapshot before Connect, so a
// non-clean reconnect continues the same message-ID sequence.
func (c *Client) RestoreSession(snap session.Snapshot) { c.sess.Restore(snap) }

// Connect enqueues a CONNECT packet. Call LoopOnce afterward to transmit
// it and observe the CONNACK via OnConnect. Each call builds a new loop
// with an empty in-flight store, so QoS 1/2 messages still in flight from
// an earlier connection are not carried over or resent, whatever the
// clean-session flag says.
func (c *Client) Connect() error {
	c.loop = loop.New(c.conn, c.waiter, c.sess, c.handlers, c.cfg.recorder)
	return c.loop.Connect()
}

// Disconnect enqueues a DISCONNECT packet. Call LoopOnce until the
// outbound queue drains, then close the transport.
func (c *Client) Disconnect() {
	if c.loop == nil {
		return
	}
	c.loop.Disconnect()
}

// Publish enqueues a PUBLISH, returning its message id (0 for QoS 0).
func (c *Client) Publish(topic string, payload []byte, qos packet.QoS, retain bool) (uint16, error) {
	if c.loop == nil {
		return 0, loop.ErrNotConnected
	}
	return c.loop.Publish(topic, payload, qos, retain)
}

// Subscribe enqueues a single-topic SUBSCRIBE, returning its message id.
func (c *Client) Subscribe(topicFilter string, qos packet.QoS) (uint16, error) {
	if c.loop == nil {
		return 0, loop.ErrNotConnected
	}
	return c.loop.Subscribe(topicFilter, qos)
}

// Unsubscribe enqueues a single-topic UNSUBSCRIBE, returning its message id.
func (c *Client) Unsubscribe(topicFilter string) (uint16, error) {
	if c.loop == nil {
		return 0, loop.ErrNotConnected
	}
	return c.loop.Unsubscribe(topicFilter)
}

// LoopOnce drives one iteration of the connection loop (spec.md §4.5).
// The caller is responsible for calling it repeatedly — typically in a
// tight loop bounded by timeout, or interleaved with other work.
func (c *Client) LoopOnce(timeout time.Duration) error {
	if c.loop == nil {
		return loop.ErrNotConnected
	}
	err := c.loop.LoopOnce(timeout)
	if err != nil && c.handlers.OnDisconnect != nil {
		c.handlers.OnDisconnect(err)
	}
	return err
}

// Connected reports whether the most recent CONNACK accepted the
// connection.
func (c *Client) Connected() bool { return c.loop != nil && c.loop.Connected() }
