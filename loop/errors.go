package loop

import "errors"

// ErrNotConnected is returned by operations that require an established
// connection (Publish, Subscribe, Unsubscribe) when called before
// Connect or after Disconnect.
var ErrNotConnected = errors.New("loop: not connected")

// ErrKeepAliveTimeout is surfaced to OnDisconnect when no inbound bytes
// arrived within 1.5x the keep-alive interval (spec.md §4.3).
var ErrKeepAliveTimeout = errors.New("loop: keep-alive timeout, no inbound traffic")
