package persist

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbusmq/core/session"
)

func TestPebbleStoreSaveLoadDelete(t *testing.T) {
	store, err := NewPebbleStore(PebbleStoreConfig{Path: t.TempDir(), Prefix: "test:"})
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	snap := session.Snapshot{
		ClientID:     "sensor-01",
		CleanSession: false,
		KeepAlive:    30 * time.Second,
		Will:         &session.Will{Topic: "clients/sensor-01/status", Payload: []byte("offline"), QoS: 1},
		NextID:       42,
	}

	require.NoError(t, store.Save(ctx, "sensor-01", snap))

	got, err := store.Load(ctx, "sensor-01")
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	exists, err := store.Exists(ctx, "sensor-01")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Delete(ctx, "sensor-01"))
	exists, err = store.Exists(ctx, "sensor-01")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPebbleStoreLoadMissing(t *testing.T) {
	store, err := NewPebbleStore(PebbleStoreConfig{Path: t.TempDir()})
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPebbleStoreClosedRejectsOps(t *testing.T) {
	store, err := NewPebbleStore(PebbleStoreConfig{Path: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	err = store.Save(context.Background(), "x", session.Snapshot{})
	assert.ErrorIs(t, err, ErrStoreClosed)

	assert.ErrorIs(t, store.Close(), ErrStoreClosed)
}

func TestPebbleStoreLoadCorruptedData(t *testing.T) {
	store, err := NewPebbleStore(PebbleStoreConfig{Path: t.TempDir(), Prefix: "test:"})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.db.Set(store.makeKey("corrupt"), []byte("not cbor"), pebble.Sync))

	_, err = store.Load(context.Background(), "corrupt")
	assert.Error(t, err)
}
