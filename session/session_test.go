package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNextMessageIDSkipsZeroAndWraps(t *testing.T) {
	s := New("client-1", 30*time.Second, true)
	require.Equal(t, uint16(1), s.NextMessageID())
	require.Equal(t, uint16(2), s.NextMessageID())

	s.nextID = 65535
	require.Equal(t, uint16(65535), s.NextMessageID())
	require.Equal(t, uint16(1), s.NextMessageID(), "must skip the reserved 0 id on wrap")
}

func TestPingDueAndTimedOut(t *testing.T) {
	s := New("client-1", 10*time.Second, true)
	base := time.Now()
	s.MarkOutgoing(base)
	s.MarkIncoming(base)

	require.False(t, s.PingDue(base.Add(5*time.Second)))
	require.True(t, s.PingDue(base.Add(10*time.Second)))

	require.False(t, s.TimedOut(base.Add(14*time.Second)))
	require.True(t, s.TimedOut(base.Add(16*time.Second)))
}

func TestKeepAliveDisabledWhenZero(t *testing.T) {
	s := New("client-1", 0, true)
	now := time.Now()
	require.False(t, s.PingDue(now.Add(time.Hour)))
	require.False(t, s.TimedOut(now.Add(time.Hour)))
}

func TestWillRegistration(t *testing.T) {
	s := New("client-1", 0, true)
	require.Nil(t, s.Will)
	s.SetWill(&Will{Topic: "clients/1/status", Payload: []byte("offline"), QoS: 1, Retain: true})
	require.NotNil(t, s.Will)
	require.Equal(t, "clients/1/status", s.Will.Topic)
	s.ClearWill()
	require.Nil(t, s.Will)
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := New("client-1", 30*time.Second, false)
	s.SetWill(&Will{Topic: "clients/1/status", Payload: []byte("offline"), QoS: 1})
	s.NextMessageID()
	s.NextMessageID()

	snap := s.Snapshot()
	require.Equal(t, "client-1", snap.ClientID)
	require.Equal(t, uint16(3), snap.NextID)

	restored := New("client-1", 30*time.Second, false)
	restored.Restore(snap)
	require.Equal(t, snap.Will, restored.Will)
	require.Equal(t, uint16(3), restored.NextMessageID())
}
