//go:build linux

package ioengine

import (
	"log/slog"
)

// Open picks the best available backend for fd, trying io_uring with
// SQPOLL first, then io_uring without it, then falling back to classical
// AIO. This mirrors original_source/disk-warmer/io_operations.c's
// initialization order: liburing-with-polling is preferred, but any
// failure (old kernel, disabled io_uring, permission denial under a
// restrictive seccomp profile) degrades gracefully rather than aborting
// the run.
func Open(fd int, queueDepth, readSize, align int) (Backend, string, error) {
	if rb, err := newRingBackend(fd, queueDepth, readSize, align, true); err == nil {
		return rb, "io_uring+sqpoll", nil
	} else {
		slog.Debug("ioengineFallback", "from", "io_uring+sqpoll", "err", err)
	}

	if rb, err := newRingBackend(fd, queueDepth, readSize, align, false); err == nil {
		return rb, "io_uring", nil
	} else {
		slog.Debug("ioengineFallback", "from", "io_uring", "err", err)
	}

	cb, err := newClassicalBackend(fd, queueDepth, readSize, align)
	if err != nil {
		return nil, "", err
	}
	return cb, "aio", nil
}
