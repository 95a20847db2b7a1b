package transport

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func pipe(t *testing.T) (client, server net.Conn) {
	t.Helper()
	client, server = net.Pipe()
	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})
	return client, server
}

func TestNetConnWaitThenRead(t *testing.T) {
	client, server := pipe(t)
	nc := NewConn(client)

	done := make(chan struct{})
	go func() {
		_, _ = server.Write([]byte("hi"))
		close(done)
	}()

	readReady, _, err := nc.Wait(time.Second, false)
	require.NoError(t, err)
	require.True(t, readReady)

	buf := make([]byte, 2)
	n, err := io.ReadFull(nc, buf)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, "hi", string(buf))
	<-done
}

func TestNetConnWaitTimesOutWithoutData(t *testing.T) {
	client, _ := pipe(t)
	nc := NewConn(client)

	readReady, _, err := nc.Wait(20*time.Millisecond, false)
	require.NoError(t, err)
	require.False(t, readReady)
}

func TestNetConnReadReportsEOF(t *testing.T) {
	client, server := pipe(t)
	nc := NewConn(client)
	require.NoError(t, server.Close())

	buf := make([]byte, 4)
	_, err := nc.Read(buf)
	require.ErrorIs(t, err, io.EOF)
}
