// Package iobuf implements the resumable, byte-granular inbound and
// outbound packet buffers of spec.md §4.2: every I/O syscall may be short,
// so both directions save an explicit cursor and can resume exactly where
// a prior partial read or write left off.
package iobuf

import "errors"

var (
	// ErrPeerClosed signals a short read that returned 0 bytes after some
	// bytes of the current frame had already been read — spec.md §4.2's
	// "signals peer close and surfaces as a fatal error to the loop".
	ErrPeerClosed = errors.New("iobuf: peer closed mid-frame")

	// ErrNotReady reports that there is nothing queued to write. No function
	// in this package returns it at present.
	ErrNotReady = errors.New("iobuf: no outbound data queued")
)
