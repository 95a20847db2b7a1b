package persist

import (
	"context"
	"errors"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/fxamacker/cbor/v2"

	"github.com/nimbusmq/core/session"
)

// PebbleStore is a Pebble-backed SessionStore, adapted from the reference
// stack's generic store.PebbleStore[T] and narrowed to session.Snapshot —
// the core only ever persists one kind of value, so the generic type
// parameter buys nothing here.
type PebbleStore struct {
	db     *pebble.DB
	mu     sync.RWMutex
	closed bool
	prefix []byte
}

// PebbleStoreConfig configures the Pebble-backed store.
type PebbleStoreConfig struct {
	Path   string
	Prefix string // defaults to "session:"
	Opts   *pebble.Options
}

// NewPebbleStore opens (or creates) a Pebble database at config.Path.
func NewPebbleStore(config PebbleStoreConfig) (*PebbleStore, error) {
	opts := config.Opts
	if opts == nil {
		opts = &pebble.Options{ErrorIfExists: false}
	}

	db, err := pebble.Open(config.Path, opts)
	if err != nil {
		return nil, err
	}

	prefix := []byte(config.Prefix)
	if len(prefix) == 0 {
		prefix = []byte("session:")
	}

	return &PebbleStore{db: db, prefix: prefix}, nil
}

func (p *PebbleStore) makeKey(clientID string) []byte {
	key := make([]byte, len(p.prefix)+len(clientID))
	copy(key, p.prefix)
	copy(key[len(p.prefix):], clientID)
	return key
}

func (p *PebbleStore) Save(ctx context.Context, clientID string, snap session.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrStoreClosed
	}
	p.mu.RUnlock()

	data, err := cbor.Marshal(snap)
	if err != nil {
		return err
	}
	return p.db.Set(p.makeKey(clientID), data, pebble.Sync)
}

func (p *PebbleStore) Load(ctx context.Context, clientID string) (session.Snapshot, error) {
	var zero session.Snapshot
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return zero, ErrStoreClosed
	}
	p.mu.RUnlock()

	data, closer, err := p.db.Get(p.makeKey(clientID))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return zero, ErrNotFound
		}
		return zero, err
	}
	defer closer.Close()

	var snap session.Snapshot
	if err := cbor.Unmarshal(data, &snap); err != nil {
		return zero, err
	}
	return snap, nil
}

func (p *PebbleStore) Delete(ctx context.Context, clientID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrStoreClosed
	}
	p.mu.RUnlock()
	return p.db.Delete(p.makeKey(clientID), pebble.Sync)
}

func (p *PebbleStore) Exists(ctx context.Context, clientID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return false, ErrStoreClosed
	}
	p.mu.RUnlock()

	_, closer, err := p.db.Get(p.makeKey(clientID))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	closer.Close()
	return true, nil
}

func (p *PebbleStore) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrStoreClosed
	}
	p.closed = true
	return p.db.Close()
}
