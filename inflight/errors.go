package inflight

import "errors"

// ErrNotFound is returned when an operation references a message id that
// has no matching in-flight entry.
var ErrNotFound = errors.New("inflight: message id not found")

// ErrDuplicateID is returned when Put is called for a (direction, id) pair
// that already has an entry.
var ErrDuplicateID = errors.New("inflight: message id already in flight")
