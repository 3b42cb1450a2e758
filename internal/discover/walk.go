// Package discover walks a filesystem subtree and produces either the
// union of its files' physical extents (block-device mode) or a flat file
// list (page-cache mode, see SPEC_FULL.md "Page-cache variant").
//
// The queue/worker shape is grounded on two places at once: the teacher's
// internal/walk/walk.go (a channel-fed goroutine-per-directory walker) and
// original_source/disk-warmer/filesystem.c's pthread worker pool (a
// mutex+condvar work queue with a done flag broadcast on drain). Since
// spec.md asks for a *bounded* worker count rather than one goroutine per
// directory, the queue here is the latter shape translated into Go
// channels: a buffered work channel plus a WaitGroup, which gives the same
// "done when queue is empty and no worker is still producing" termination
// without a condvar.
package discover

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// Options configures a discovery run. NumThreads is clamped into [1, 16]
// per spec.md §4.4; MaxDepth < 0 means unlimited.
type Options struct {
	Roots      []string
	MaxDepth   int
	NumThreads int
	Excludes   []string // doublestar glob patterns matched against each path
}

func (o Options) threads() int {
	n := o.NumThreads
	if n < 1 {
		n = 1
	}
	if n > 16 {
		n = 16
	}
	return n
}

type pathDepth struct {
	path  string
	depth int
}

// visitor is invoked once per regular file (or one-level symlink target
// that resolves to a regular file) discovered during the walk.
type visitor func(path string, info os.FileInfo)

// walk drains Options.Roots with up to threads() concurrent workers,
// calling visit for every regular file found. It returns once every
// worker has drained the queue and no more work can be produced.
func walk(opts Options, visit visitor) {
	threads := opts.threads()

	queue := make(chan pathDepth, 4096)
	var pending sync.WaitGroup // outstanding (enqueued-but-not-processed) items

	for _, root := range opts.Roots {
		pending.Add(1)
		queue <- pathDepth{path: root, depth: 0}
	}

	excluded := func(path string) bool {
		for _, pattern := range opts.Excludes {
			if ok, _ := doublestar.Match(pattern, path); ok {
				return true
			}
			if ok, _ := doublestar.Match(pattern, filepath.Base(path)); ok {
				return true
			}
		}
		return false
	}

	// done is closed once the producer side determines the queue can
	// never receive more work: all `pending` counters have drained.
	done := make(chan struct{})
	go func() {
		pending.Wait()
		close(done)
	}()

	worker := func() {
		for {
			select {
			case item := <-queue:
				processEntry(item, opts, excluded, queue, &pending, visit)
				pending.Done()
			case <-done:
				// Drain whatever is left without blocking, then exit:
				// pending reaching zero guarantees the channel is empty
				// or about to be, since every send is paired with an
				// Add before it is issued.
				select {
				case item := <-queue:
					processEntry(item, opts, excluded, queue, &pending, visit)
					pending.Done()
				default:
					return
				}
			}
		}
	}

	if threads == 1 {
		worker()
		return
	}

	var wg sync.WaitGroup
	for range threads {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker()
		}()
	}
	wg.Wait()
}

func processEntry(item pathDepth, opts Options, excluded func(string) bool, queue chan<- pathDepth, pending *sync.WaitGroup, visit visitor) {
	if excluded(item.path) {
		return
	}

	entries, err := os.ReadDir(item.path)
	if err != nil {
		slog.Warn("discoverDirUnreadable", "path", item.path, "err", err)
		return
	}

	for _, entry := range entries {
		childPath := filepath.Join(item.path, entry.Name())
		if excluded(childPath) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			slog.Warn("discoverStatFailed", "path", childPath, "err", err)
			continue
		}

		switch {
		case info.Mode()&os.ModeSymlink != 0:
			visitSymlink(childPath, visit)
		case info.IsDir():
			if opts.MaxDepth >= 0 && item.depth+1 > opts.MaxDepth {
				continue
			}
			pending.Add(1)
			select {
			case queue <- pathDepth{path: childPath, depth: item.depth + 1}:
			default:
				// Queue is momentarily full; process inline instead of
				// blocking a worker that might be needed to drain it.
				pending.Done()
				processEntry(pathDepth{path: childPath, depth: item.depth + 1}, opts, excluded, queue, pending, visit)
			}
		case info.Mode().IsRegular():
			visit(childPath, info)
		}
	}
}

// visitSymlink follows exactly one level of indirection (spec.md §9 Open
// Question: deeper chains and cycles are not detected, preserved as
// specified). A relative target is resolved against the symlink's own
// parent directory.
func visitSymlink(linkPath string, visit visitor) {
	target, err := os.Readlink(linkPath)
	if err != nil {
		slog.Warn("discoverReadlinkFailed", "path", linkPath, "err", err)
		return
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(linkPath), target)
	}
	info, err := os.Stat(target)
	if err != nil || !info.Mode().IsRegular() {
		return
	}
	visit(target, info)
}

// dedupeOnce ensures a symlink target visited through more than one link
// is only counted once per discovery run, guarding spec.md E5 ("the
// target file's extents are included exactly once").
type dedupeOnce struct {
	seen sync.Map
}

func (d *dedupeOnce) first(path string) bool {
	_, loaded := d.seen.LoadOrStore(path, struct{}{})
	return !loaded
}
