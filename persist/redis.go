package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nimbusmq/core/session"
)

// RedisStore is a Redis-backed SessionStore, adapted from the reference
// stack's generic store.RedisStore[T] and narrowed to session.Snapshot.
type RedisStore struct {
	client *redis.Client
	mu     sync.RWMutex
	closed bool
	ttl    time.Duration
	prefix string
}

// RedisStoreConfig configures the Redis-backed store.
type RedisStoreConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // defaults to "session:"
	TTL      time.Duration // 0 = no expiry
	Options  *redis.Options
}

// NewRedisStore dials Redis and verifies the connection with a PING.
func NewRedisStore(config RedisStoreConfig) (*RedisStore, error) {
	var client *redis.Client
	if config.Options != nil {
		client = redis.NewClient(config.Options)
	} else {
		client = redis.NewClient(&redis.Options{
			Addr:     config.Addr,
			Password: config.Password,
			DB:       config.DB,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	prefix := config.Prefix
	if prefix == "" {
		prefix = "session:"
	}

	return &RedisStore{client: client, ttl: config.TTL, prefix: prefix}, nil
}

func (r *RedisStore) makeKey(clientID string) string {
	return r.prefix + clientID
}

func (r *RedisStore) Save(ctx context.Context, clientID string, snap session.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return ErrStoreClosed
	}
	r.mu.RUnlock()

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := r.client.Set(ctx, r.makeKey(clientID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (r *RedisStore) Load(ctx context.Context, clientID string) (session.Snapshot, error) {
	var zero session.Snapshot
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return zero, ErrStoreClosed
	}
	r.mu.RUnlock()

	data, err := r.client.Get(ctx, r.makeKey(clientID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return zero, ErrNotFound
		}
		return zero, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var snap session.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return zero, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snap, nil
}

func (r *RedisStore) Delete(ctx context.Context, clientID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return ErrStoreClosed
	}
	r.mu.RUnlock()
	return r.client.Del(ctx, r.makeKey(clientID)).Err()
}

func (r *RedisStore) Exists(ctx context.Context, clientID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return false, ErrStoreClosed
	}
	r.mu.RUnlock()

	count, err := r.client.Exists(ctx, r.makeKey(clientID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return count > 0, nil
}

func (r *RedisStore) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrStoreClosed
	}
	r.closed = true
	return r.client.Close()
}
