//go:build integration

package persist

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbusmq/core/session"
)

func getRedisAddr() string {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	return addr
}

func setupRedis(t *testing.T) RedisStoreConfig {
	cfg := RedisStoreConfig{Addr: getRedisAddr(), Prefix: "test:"}

	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available at %s: %v", cfg.Addr, err)
	}
	client.Close()
	return cfg
}

func TestRedisStoreSaveLoadDelete(t *testing.T) {
	cfg := setupRedis(t)
	store, err := NewRedisStore(cfg)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	snap := session.Snapshot{ClientID: "sensor-01", KeepAlive: 30 * time.Second, NextID: 7}

	require.NoError(t, store.Save(ctx, "sensor-01", snap))

	got, err := store.Load(ctx, "sensor-01")
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	require.NoError(t, store.Delete(ctx, "sensor-01"))

	_, err = store.Load(ctx, "sensor-01")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreClosedRejectsOps(t *testing.T) {
	cfg := setupRedis(t)
	store, err := NewRedisStore(cfg)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	err = store.Save(context.Background(), "x", session.Snapshot{})
	assert.ErrorIs(t, err, ErrStoreClosed)
}
