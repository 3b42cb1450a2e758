package discover

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/pastelsky/ebs-folder-warmer/internal/extent"
)

// FileEntry is the page-cache-mode counterpart of an Extent: an absolute
// path and its size, per spec.md §3.
type FileEntry struct {
	AbsolutePath string
	Size         int64
}

// Extents walks opts.Roots and returns the union of physical extents of
// every regular file reached (plus one-level symlink targets), for
// block-device warming. Failures are logged and skipped; discovery always
// returns whatever it managed to collect (spec.md §7).
func Extents(opts Options) *extent.List {
	var (
		list  extent.List
		mu    sync.Mutex
		dedup dedupeOnce
	)

	walk(opts, func(path string, info os.FileInfo) {
		if !dedup.first(path) {
			return
		}
		if info.Size() == 0 {
			return
		}
		extractFileExtents(path, &list, &mu)
	})

	return &list
}

// Files walks opts.Roots and returns the flat file list used by
// page-cache-mode warming (SPEC_FULL.md "Page-cache variant").
func Files(opts Options) []FileEntry {
	var (
		out   []FileEntry
		mu    sync.Mutex
		dedup dedupeOnce
	)

	walk(opts, func(path string, info os.FileInfo) {
		if !dedup.first(path) {
			return
		}
		mu.Lock()
		out = append(out, FileEntry{AbsolutePath: path, Size: info.Size()})
		mu.Unlock()
	})

	return out
}

// extractFileExtents opens path, runs the FIEMAP extent query, and
// appends every mapped (non-UNKNOWN) extent to list under mu. Failures
// are per-item recoverable: the file is skipped, never fatal to the run
// (spec.md §7).
func extractFileExtents(path string, list *extent.List, mu *sync.Mutex) {
	f, err := os.Open(path)
	if err != nil {
		slog.Warn("discoverOpenFailed", "path", path, "err", err)
		return
	}
	defer f.Close()

	err = queryFileExtents(int(f.Fd()), func(e fiemapExtent) {
		mu.Lock()
		list.Append(int64(e.Physical), int64(e.Length))
		mu.Unlock()
	})
	if err != nil {
		slog.Warn("discoverFiemapFailed", "path", path, "err", err)
	}
}

// Validate reports obviously-wrong Options up front: no roots, or a root
// that does not exist or is not a directory. NumThreads is not checked
// here; walk clamps it into [1, 16]. It never returns an error for
// MaxDepth, since any integer (including negative, "unlimited") is legal
// there.
func (o Options) Validate() error {
	if len(o.Roots) == 0 {
		return fmt.Errorf("discover: at least one root directory is required")
	}
	for _, r := range o.Roots {
		if fi, err := os.Stat(r); err != nil {
			return fmt.Errorf("discover: root %s: %w", r, err)
		} else if !fi.IsDir() {
			return fmt.Errorf("discover: root %s is not a directory", r)
		}
	}
	return nil
}
