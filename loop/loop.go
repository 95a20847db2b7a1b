// Package loop implements the connection loop of spec.md §4.5: one
// LoopOnce call is one iteration — readiness wait, inbound pump,
// dispatch, outbound pump, keep-alive tick, and a final flush of packets
// queued during the iteration — with exactly two places the
// call can suspend (the readiness wait itself, and a partial
// read/write), per spec.md §5.
package loop

import (
	"time"

	"github.com/nimbusmq/core/callback"
	"github.com/nimbusmq/core/inflight"
	"github.com/nimbusmq/core/iobuf"
	"github.com/nimbusmq/core/packet"
	"github.com/nimbusmq/core/qos"
	"github.com/nimbusmq/core/session"
	"github.com/nimbusmq/core/transport"
)

// Clock abstracts time.Now so tests can drive keep-alive deterministically.
type Clock func() time.Time

// Loop drives one MQTT connection. It owns the transport, the in-flight
// store, the QoS machine, and the inbound/outbound packet buffers; a
// client.Client wraps a Loop with the public Connect/Publish/Subscribe
// API and translates callback.Handlers into OnMessage etc.
type Loop struct {
	conn   transport.Conn
	waiter transport.Waiter

	sess       *session.Session
	store      *inflight.Store
	qosMachine *qos.Machine
	handlers   callback.Handlers

	in  *iobuf.Inbound
	out iobuf.Queue

	connected bool
	clock     Clock

	retryInterval time.Duration
}

// New returns a Loop ready to drive conn once Connect has sent a CONNECT.
// recorder may be nil (a no-op recorder is used).
func New(conn transport.Conn, waiter transport.Waiter, sess *session.Session, handlers callback.Handlers, recorder qos.Recorder) *Loop {
	store := inflight.New()
	return &Loop{
		conn:          conn,
		waiter:        waiter,
		sess:          sess,
		store:         store,
		qosMachine:    qos.New(store, recorder),
		handlers:      handlers,
		in:            iobuf.NewInbound(),
		clock:         time.Now,
		retryInterval: qos.DefaultRetryInterval,
	}
}

// SetClock overrides the time source, used by tests exercising keep-alive
// and retry timing deterministically.
func (l *Loop) SetClock(c Clock) { l.clock = c }

func (l *Loop) now() time.Time { return l.clock() }

// Connect enqueues a CONNECT packet built from the session's client id,
// keep-alive and will, and marks the session Connecting. The loop must be
// pumped (LoopOnce) afterward to actually transmit it and receive the
// CONNACK.
func (l *Loop) Connect() error {
	var will *packet.Will
	if l.sess.Will != nil {
		will = &packet.Will{
			Topic:   l.sess.Will.Topic,
			Payload: l.sess.Will.Payload,
			QoS:     packet.QoS(l.sess.Will.QoS),
			Retain:  l.sess.Will.Retain,
		}
	}
	keepAliveSecs := uint16(l.sess.KeepAlive / time.Second)
	encoded, err := packet.EncodeConnect(l.sess.ClientID, keepAliveSecs, l.sess.CleanSession, will)
	if err != nil {
		return err
	}
	l.sess.State = session.Connecting
	now := l.now()
	l.sess.MarkOutgoing(now)
	l.sess.MarkIncoming(now)
	l.enqueue(encoded)
	return nil
}

// Disconnect enqueues a DISCONNECT packet and marks the session
// Disconnecting; once the outbound queue drains (spec.md §4.6: graceful
// disconnect finishes writing in-flight bytes before closing), the caller
// should Close the transport.
func (l *Loop) Disconnect() {
	l.sess.State = session.Disconnecting
	l.enqueue(packet.EncodeDisconnect())
}

// Publish enqueues a PUBLISH packet. For QoS 0 the message-id field is
// ignored and on_publish fires as soon as the write completes; for QoS
// 1/2 the message is registered in the in-flight store and on_publish
// fires once its handshake completes.
func (l *Loop) Publish(topic string, payload []byte, qosLevel packet.QoS, retain bool) (uint16, error) {
	var mid uint16
	if qosLevel != packet.QoS0 {
		mid = l.sess.NextMessageID()
	}
	encoded, err := packet.EncodePublish(mid, topic, payload, qosLevel, retain, false)
	if err != nil {
		return 0, err
	}
	if qosLevel != packet.QoS0 {
		msg := &packet.Message{
			MessageID: mid,
			Topic:     topic,
			Payload:   payload,
			QoS:       qosLevel,
			Retain:    retain,
			Timestamp: l.now(),
		}
		if err := l.qosMachine.RegisterOutbound(msg); err != nil {
			return 0, err
		}
	}
	ob := iobuf.NewOutbound(encoded)
	if qosLevel == packet.QoS0 {
		ob.MessageID = mid
		ob.Qos0Complete = true
	}
	l.out.Push(ob)
	return mid, nil
}

// Subscribe enqueues a single-topic SUBSCRIBE, returning its message id.
func (l *Loop) Subscribe(topicFilter string, qosLevel packet.QoS) (uint16, error) {
	mid := l.sess.NextMessageID()
	encoded, err := packet.EncodeSubscribe(mid, topicFilter, qosLevel)
	if err != nil {
		return 0, err
	}
	l.enqueue(encoded)
	return mid, nil
}

// Unsubscribe enqueues a single-topic UNSUBSCRIBE, returning its message id.
func (l *Loop) Unsubscribe(topicFilter string) (uint16, error) {
	mid := l.sess.NextMessageID()
	encoded, err := packet.EncodeUnsubscribe(mid, topicFilter)
	if err != nil {
		return 0, err
	}
	l.enqueue(encoded)
	return mid, nil
}

func (l *Loop) enqueue(encoded []byte) {
	l.out.Push(iobuf.NewOutbound(encoded))
}

func (l *Loop) notifyPublish(mid uint16) {
	if l.handlers.OnPublish != nil {
		l.handlers.OnPublish(mid)
	}
}

func connectResult(sessionPresent bool, code packet.ConnectReturnCode) callback.ConnectResult {
	return callback.ConnectResult{ReturnCode: code, SessionFound: sessionPresent}
}

// LoopOnce runs exactly one iteration: wait for readiness (bounded by
// timeout), pump as much of the inbound frame as is available, dispatch
// every frame completed this iteration, pump the outbound queue, check
// keep-alive, then write any packets queued during the iteration (replies
// from dispatch, a due PINGREQ or retry). It returns promptly — a caller drives the connection
// by calling LoopOnce repeatedly (spec.md §4.5/§5).
func (l *Loop) LoopOnce(timeout time.Duration) error {
	wantWrite := !l.out.Empty()
	readReady, writeReady, err := l.waiter.Wait(timeout, wantWrite)
	if err != nil {
		return err
	}

	if readReady {
		if err := l.pumpInbound(); err != nil {
			return err
		}
	}

	if writeReady && !l.out.Empty() {
		if err := l.pumpOutbound(); err != nil {
			return err
		}
	}

	if err := l.tickKeepAlive(); err != nil {
		return err
	}

	// Flush what dispatch and the keep-alive tick queued during this
	// iteration (acks, PINGREQ, retries); a transport that cannot take the
	// bytes yet reports ErrWouldBlock and the rest goes out on a later call.
	if !l.out.Empty() {
		return l.pumpOutbound()
	}
	return nil
}

// pumpInbound drains as many complete frames as are immediately
// available without blocking, dispatching each.
func (l *Loop) pumpInbound() error {
	for {
		complete, err := l.in.Fill(l.conn)
		if err != nil {
			return err
		}
		if !complete {
			return nil
		}
		h := l.in.Header()
		payload := l.in.Payload()
		l.in.Reset()
		if err := l.dispatch(h, payload); err != nil {
			return err
		}
	}
}

// pumpOutbound writes as much of the head-of-queue packet as the
// transport will currently accept, popping it once fully written and
// firing on_publish for a completed QoS-0 send.
func (l *Loop) pumpOutbound() error {
	for !l.out.Empty() {
		head := l.out.Head()
		done, err := head.WriteTo(l.conn)
		if err != nil {
			return err
		}
		if !done {
			return nil
		}
		l.sess.MarkOutgoing(l.now())
		l.out.Pop()
		if head.Qos0Complete {
			l.notifyPublish(head.MessageID)
		}
	}
	return nil
}

// tickKeepAlive sends a PINGREQ if due and reports ErrKeepAliveTimeout if
// the peer has gone quiet past 1.5x the keep-alive interval (spec.md
// §4.3 — this is the "ambiguous source behavior" resolved on the receive
// side, not just on ping send).
func (l *Loop) tickKeepAlive() error {
	now := l.now()
	if l.sess.TimedOut(now) {
		return ErrKeepAliveTimeout
	}
	if l.sess.PingDue(now) {
		l.enqueue(packet.EncodePingreq())
	}
	for _, msg := range l.qosMachine.DueForRetry(now, l.retryInterval) {
		var encoded []byte
		var err error
		switch msg.State {
		case packet.WaitPubComp:
			// QoS 2 has already moved past PUBREC: the peer is waiting on
			// PUBREL, not another PUBLISH (spec.md §4.4 Retry).
			encoded, err = packet.EncodePubrel(msg.MessageID)
		default:
			encoded, err = packet.EncodePublish(msg.MessageID, msg.Topic, msg.Payload, msg.QoS, msg.Retain, true)
		}
		if err != nil {
			return err
		}
		l.enqueue(encoded)
	}
	return nil
}

// Connected reports whether the most recent CONNACK accepted the
// connection.
func (l *Loop) Connected() bool { return l.connected }
