package loop

import (
	"testing"
	"time"

	"github.com/nimbusmq/core/callback"
	"github.com/nimbusmq/core/packet"
	"github.com/nimbusmq/core/session"
	"github.com/nimbusmq/core/transport"
	"github.com/stretchr/testify/require"
)

// memConn is an in-memory transport.Conn+transport.Waiter pair: reads
// come from an inbound buffer fed by the test, writes accumulate into an
// outbound buffer the test can inspect, and Wait always reports both
// readReady/writeReady per the requested interest so LoopOnce never
// actually blocks in these tests.
type memConn struct {
	inbound  []byte
	inPos    int
	outbound []byte
}

func (m *memConn) Read(p []byte) (int, error) {
	if m.inPos >= len(m.inbound) {
		return 0, transport.ErrWouldBlock
	}
	n := copy(p, m.inbound[m.inPos:])
	m.inPos += n
	return n, nil
}

func (m *memConn) Write(p []byte) (int, error) {
	m.outbound = append(m.outbound, p...)
	return len(p), nil
}

func (m *memConn) Close() error { return nil }

func (m *memConn) Wait(timeout time.Duration, wantWrite bool) (bool, bool, error) {
	readReady := m.inPos < len(m.inbound)
	return readReady, wantWrite, nil
}

func newLoop(t *testing.T, conn *memConn, keepAlive time.Duration, handlers callback.Handlers) *Loop {
	t.Helper()
	sess := session.New("client-1", keepAlive, true)
	return New(conn, conn, sess, handlers, nil)
}

func TestConnectEnqueuesConnectPacket(t *testing.T) {
	conn := &memConn{}
	l := newLoop(t, conn, 0, callback.Handlers{})
	require.NoError(t, l.Connect())

	require.NoError(t, l.LoopOnce(time.Second))
	require.NotEmpty(t, conn.outbound)
	require.Equal(t, packet.CONNECT, packet.Type(conn.outbound[0]>>4))
}

func TestPublishQoS0FiresOnPublishAfterWrite(t *testing.T) {
	conn := &memConn{}
	var published uint16
	var fired bool
	l := newLoop(t, conn, 0, callback.Handlers{OnPublish: func(mid uint16) { published = mid; fired = true }})

	_, err := l.Publish("a/b", []byte("hi"), packet.QoS0, false)
	require.NoError(t, err)
	require.NoError(t, l.LoopOnce(time.Second))
	require.True(t, fired)
	require.Equal(t, uint16(0), published)
}

func TestPublishQoS1WaitsForPuback(t *testing.T) {
	conn := &memConn{}
	var fired bool
	l := newLoop(t, conn, 0, callback.Handlers{OnPublish: func(uint16) { fired = true }})

	mid, err := l.Publish("a/b", []byte("hi"), packet.QoS1, false)
	require.NoError(t, err)
	require.NoError(t, l.LoopOnce(time.Second))
	require.False(t, fired, "must not fire on_publish before PUBACK")

	puback, err := packet.EncodePuback(mid)
	require.NoError(t, err)
	conn.inbound = puback

	require.NoError(t, l.LoopOnce(time.Second))
	require.True(t, fired)
}

func TestDispatchInboundPublishQoS0(t *testing.T) {
	conn := &memConn{}
	var got *packet.Message
	l := newLoop(t, conn, 0, callback.Handlers{OnMessage: func(m *packet.Message) { got = m }})

	raw, err := packet.EncodePublish(0, "a/b", []byte("hello"), packet.QoS0, false, false)
	require.NoError(t, err)
	conn.inbound = raw

	require.NoError(t, l.LoopOnce(time.Second))
	require.NotNil(t, got)
	require.Equal(t, "a/b", got.Topic)
}

// TestDispatchInboundPublishQoS2DeliversOnlyOnPubrel exercises spec.md §8
// scenario 4 end to end through the loop: the PUBLISH is PUBREC'd but
// on_message must not fire until the matching PUBREL arrives.
func TestDispatchInboundPublishQoS2DeliversOnlyOnPubrel(t *testing.T) {
	conn := &memConn{}
	var got *packet.Message
	l := newLoop(t, conn, 0, callback.Handlers{OnMessage: func(m *packet.Message) { got = m }})

	raw, err := packet.EncodePublish(42, "a/b", []byte("hello"), packet.QoS2, false, false)
	require.NoError(t, err)
	conn.inbound = raw

	require.NoError(t, l.LoopOnce(time.Second))
	require.Nil(t, got, "QoS2 publish must not deliver before PUBREL")
	require.NotEmpty(t, conn.outbound)
	require.Equal(t, packet.PUBREC, packet.Type(conn.outbound[0]>>4))

	conn.outbound = nil
	conn.inbound, conn.inPos = nil, 0
	pubrel, err := packet.EncodePubrel(42)
	require.NoError(t, err)
	conn.inbound = pubrel

	require.NoError(t, l.LoopOnce(time.Second))
	require.NotNil(t, got, "on_message must fire exactly once, on PUBREL")
	require.Equal(t, "a/b", got.Topic)
	require.NotEmpty(t, conn.outbound)
	require.Equal(t, packet.PUBCOMP, packet.Type(conn.outbound[0]>>4))
}

// TestRetryResendsPubrelPastPubrec exercises spec.md §4.4's retry rule: a
// QoS2 message already in WaitPubComp (PUBREC received, no PUBCOMP yet)
// must be retried with PUBREL, not a fresh PUBLISH.
func TestRetryResendsPubrelPastPubrec(t *testing.T) {
	conn := &memConn{}
	l := newLoop(t, conn, 0, callback.Handlers{})
	l.retryInterval = time.Second

	base := time.Now()
	l.SetClock(func() time.Time { return base })

	mid, err := l.Publish("a/b", []byte("hi"), packet.QoS2, false)
	require.NoError(t, err)
	require.NoError(t, l.LoopOnce(time.Second))

	pubrec, err := packet.EncodePubrec(mid)
	require.NoError(t, err)
	conn.inbound = pubrec
	require.NoError(t, l.LoopOnce(time.Second))
	conn.outbound = nil
	conn.inbound, conn.inPos = nil, 0

	l.SetClock(func() time.Time { return base.Add(2 * time.Second) })
	require.NoError(t, l.LoopOnce(time.Millisecond))
	require.NotEmpty(t, conn.outbound, "retry must resend something")
	require.Equal(t, packet.PUBREL, packet.Type(conn.outbound[0]>>4))
}

// TestKeepAliveTimeout exercises spec.md §8 scenario 5: no inbound
// traffic within 1.5x the keep-alive interval is a fatal timeout.
func TestKeepAliveTimeout(t *testing.T) {
	conn := &memConn{}
	l := newLoop(t, conn, 10*time.Second, callback.Handlers{})

	base := time.Now()
	l.SetClock(func() time.Time { return base })
	require.NoError(t, l.Connect())
	require.NoError(t, l.LoopOnce(time.Millisecond))

	l.SetClock(func() time.Time { return base.Add(16 * time.Second) })
	err := l.LoopOnce(time.Millisecond)
	require.ErrorIs(t, err, ErrKeepAliveTimeout)
}

func TestKeepAlivePingSentWhenDue(t *testing.T) {
	conn := &memConn{}
	l := newLoop(t, conn, 10*time.Second, callback.Handlers{})

	base := time.Now()
	l.SetClock(func() time.Time { return base })
	require.NoError(t, l.Connect())
	require.NoError(t, l.LoopOnce(time.Millisecond))
	conn.outbound = nil // discard the CONNECT bytes just written

	l.SetClock(func() time.Time { return base.Add(10 * time.Second) })
	require.NoError(t, l.LoopOnce(time.Millisecond))
	require.NotEmpty(t, conn.outbound)
	require.Equal(t, packet.PINGREQ, packet.Type(conn.outbound[0]>>4))
}
