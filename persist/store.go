// Package persist adapts the reference stack's generic key/value stores
// to spec.md §1's session-persistence collaborator: a place to save and
// reload a session.Session snapshot across a non-clean reconnect. Neither
// client nor loop imports this package — spec.md scopes persistence out
// of the core itself, naming it only as an interface the core's caller
// may choose to use.
package persist

import (
	"context"
	"errors"

	"github.com/nimbusmq/core/session"
)

var (
	ErrNotFound    = errors.New("session not found")
	ErrStoreClosed = errors.New("store is closed")
)

// SessionStore saves and reloads session.Snapshot values keyed by client
// id, so a caller with CleanSession false can resume message-id sequencing
// and the registered will across a process restart.
type SessionStore interface {
	Save(ctx context.Context, clientID string, snap session.Snapshot) error
	Load(ctx context.Context, clientID string) (session.Snapshot, error)
	Delete(ctx context.Context, clientID string) error
	Exists(ctx context.Context, clientID string) (bool, error)
	Close() error
}
