// Package ioengine provides the pluggable async-I/O backend the warming
// engine drives: a small prepare/submit/reap/destroy contract with two
// interchangeable Linux implementations, a classical one (legacy AIO,
// io_setup/io_submit/io_getevents) and a ring-based one (io_uring).
//
// Neither syscall family is exposed as a typed helper by
// golang.org/x/sys/unix, so both backends hand-roll their uapi struct
// layouts and call them via unix.Syscall — the same technique the pack's
// FIEMAP example (other_examples/...linux4life798-btrfs-optimize.../
// fiemap.go) uses for its own uapi struct, and the style the ublk runner
// example (other_examples/31c3f1e2_ehrlich-b-go-ublk/.../runner.go) uses
// for mmap'd io_uring rings.
package ioengine

import "errors"

// Backend is the capability set spec.md §4.7 requires: prepare a read
// into a queue slot's buffer, submit a batch, reap a batch, and tear
// down. A tagged-variant dispatch (picking one Backend at startup) is
// sufficient; no per-request virtual dispatch is needed.
type Backend interface {
	// PrepareRead stages a pread of length bytes at offset into the
	// buffer owned by slot (0 <= slot < QueueDepth()).
	PrepareRead(slot int, offset int64, length int) error

	// SubmitBatch submits the first n prepared slots (0..n-1) and
	// returns how many the kernel accepted. Per spec.md §4.5 step 3, a
	// return less than n is phase-fatal for the caller.
	SubmitBatch(n int) (accepted int, err error)

	// ReapBatch blocks until exactly n completions have arrived (or an
	// error occurs) and reports each completion's result via onResult
	// (slot, negative errno-as-int on failure or >=0 bytes read).
	ReapBatch(n int, onResult func(slot int, result int)) (completed int, err error)

	// QueueDepth reports the fixed number of slots/buffers this backend
	// was constructed with.
	QueueDepth() int

	// Destroy releases kernel and buffer resources. Safe to call once.
	Destroy()
}

// ErrUnsupportedPlatform is returned by backend constructors on non-Linux
// platforms: the async interfaces spec.md §4.7 names are Linux-specific.
var ErrUnsupportedPlatform = errors.New("ioengine: requires linux")
