// Package callback defines the application-facing hooks spec.md §6
// dispatches into: connection-result, inbound message, and per-handshake
// completion notifications. The core calls these synchronously from
// inside LoopOnce — a callback that blocks, blocks the whole connection
// (spec.md §5), so implementations are expected to hand off slow work to
// their own goroutine.
package callback

import "github.com/nimbusmq/core/packet"

// ConnectResult is passed to OnConnect once a CONNACK has been decoded.
type ConnectResult struct {
	ReturnCode   packet.ConnectReturnCode
	SessionFound bool
}

// Handlers is the full set of callbacks a client may register. Any field
// left nil is simply not invoked — spec.md §9 leaves "no callback
// registered" as a no-op, not an error.
type Handlers struct {
	// OnConnect fires once per completed CONNECT/CONNACK exchange.
	OnConnect func(ConnectResult)

	// OnMessage fires for every inbound PUBLISH the QoS machine decides
	// should be delivered (spec.md §4.4): once for QoS 0/1, and exactly
	// once per QoS 2 message id regardless of PUBLISH retransmission.
	OnMessage func(msg *packet.Message)

	// OnPublish fires once an outbound PUBLISH has been fully
	// acknowledged: immediately after the write completes for QoS 0, or
	// after PUBACK/PUBCOMP for QoS 1/2.
	OnPublish func(messageID uint16)

	// OnSubscribe fires once a SUBACK has been decoded, reporting the
	// granted QoS (or packet.SubackFailure) for the corresponding
	// SUBSCRIBE.
	OnSubscribe func(messageID uint16, grantedQoS packet.QoS)

	// OnUnsubscribe fires once an UNSUBACK has been decoded.
	OnUnsubscribe func(messageID uint16)

	// OnDisconnect fires when client.Client.LoopOnce returns a fatal
	// transport, protocol or keep-alive error, and receives that error. A
	// caller-requested Disconnect does not fire it.
	OnDisconnect func(err error)
}
