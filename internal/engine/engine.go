// Package engine drives the bounded-batch submit/reap loop over an
// ioengine.Backend: phase 1 over the sorted, optionally-merged extent
// list, and the optional phase-2 device sweep that consults the warmed
// bitmap to skip already-covered blocks.
//
// Both loops are grounded almost line for line on
// original_source/disk-warmer/io_operations.c's io_warm_extents and
// io_warm_remaining_disk: fill a batch, mark the bitmap at submission
// time, submit, reap exactly that many completions, repeat. The shape —
// one goroutine owning all the mutable state in a plain for loop, no
// channels — mirrors the teacher's spinner multiplexer functions
// (internal/spinner/concurrent.go), which are themselves single-goroutine
// "for { ... }" loops rather than fan-out workers.
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pastelsky/ebs-folder-warmer/internal/bitmap"
	"github.com/pastelsky/ebs-folder-warmer/internal/extent"
	"github.com/pastelsky/ebs-folder-warmer/internal/ioengine"
	"github.com/pastelsky/ebs-folder-warmer/internal/progress"
)

// Phase1Config parameterizes the extent-warming phase (spec.md §4.5).
type Phase1Config struct {
	Backend    ioengine.Backend
	Extents    []extent.Extent // already sorted (and optionally merged)
	Bitmap     *bitmap.Bitmap
	ReadSize   int64
	Stride     int64
	QueueDepth int
	Phase      string // label used in progress lines, e.g. "phase1"
	Sink       progress.Sink
}

// TotalReads1 returns Σ ceil(length_i / stride), the phase-1 read count
// spec.md §8 property 6 and §4.5 define for progress totals.
func TotalReads1(extents []extent.Extent, stride int64) int64 {
	var total int64
	for _, e := range extents {
		total += ceilDiv(e.Length, stride)
	}
	return total
}

func ceilDiv(a, b int64) int64 {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// extentCursor walks (extent_index, extent_offset) exactly as spec.md
// §4.5 describes: for each extent (p, l) it yields p + k*stride for
// k = 0 .. ceil(l/stride)-1, then advances to the next extent.
type extentCursor struct {
	items  []extent.Extent
	stride int64
	idx    int
	k      int64
}

func (c *extentCursor) next() (offset int64, ok bool) {
	for c.idx < len(c.items) {
		e := c.items[c.idx]
		total := ceilDiv(e.Length, c.stride)
		if c.k < total {
			off := e.PhysicalOffset + c.k*c.stride
			c.k++
			return off, true
		}
		c.idx++
		c.k = 0
	}
	return 0, false
}

// RunPhase1 issues the strided reads covering every extent, marking the
// bitmap at submission time (spec.md §9 accepted Open Question), and
// reports progress through cfg.Sink.
func RunPhase1(cfg Phase1Config) error {
	sink := cfg.Sink
	if sink == nil {
		sink = progress.NopSink{}
	}
	start := time.Now()
	total := TotalReads1(cfg.Extents, cfg.Stride)
	phase := cfg.Phase
	if phase == "" {
		phase = "phase1"
	}

	cur := extentCursor{items: cfg.Extents, stride: cfg.Stride}
	var current int64
	offsets := make([]int64, cfg.QueueDepth)

	for {
		n := 0
		for n < cfg.QueueDepth {
			off, ok := cur.next()
			if !ok {
				break
			}
			if err := cfg.Backend.PrepareRead(n, off, int(cfg.ReadSize)); err != nil {
				return fmt.Errorf("engine: %s: prepare read: %w", phase, err)
			}
			cfg.Bitmap.MarkRange(off, cfg.ReadSize)
			offsets[n] = off
			n++
		}
		if n == 0 {
			break
		}

		accepted, err := cfg.Backend.SubmitBatch(n)
		if err != nil {
			return fmt.Errorf("engine: %s: submit: %w", phase, err)
		}
		if accepted < n {
			return fmt.Errorf("engine: %s: submit accepted %d of %d requests", phase, accepted, n)
		}

		if _, err := cfg.Backend.ReapBatch(n, func(slot, result int) {
			if result < 0 {
				slog.Warn("readFailed", "phase", phase, "offset", offsets[slot], "result", result)
			}
		}); err != nil {
			return fmt.Errorf("engine: %s: reap: %w", phase, err)
		}

		current += int64(n)
		sink.Tick(phase, current, total)
	}

	sink.Tick(phase, total, total)
	sink.PhaseDone(phase, time.Since(start), total)
	return nil
}

// Phase2Config parameterizes the device sweep (spec.md §4.6).
type Phase2Config struct {
	Backend    ioengine.Backend
	Bitmap     *bitmap.Bitmap
	DiskSize   int64
	ReadSize   int64
	Stride     int64
	QueueDepth int
	Phase      string
	Sink       progress.Sink
}

// RunPhase2 sweeps the device from 0 to DiskSize in Stride steps,
// skipping any offset the bitmap already covers.
func RunPhase2(cfg Phase2Config) error {
	sink := cfg.Sink
	if sink == nil {
		sink = progress.NopSink{}
	}
	start := time.Now()
	phase := cfg.Phase
	if phase == "" {
		phase = "phase2"
	}
	total := cfg.Bitmap.NumBits() - cfg.Bitmap.CountSet()
	if total < 0 {
		total = 0
	}

	var current int64
	offsets := make([]int64, cfg.QueueDepth)
	position := int64(0)

	for position < cfg.DiskSize {
		n := 0
		for n < cfg.QueueDepth && position < cfg.DiskSize {
			if cfg.Bitmap.IsMarked(position) {
				position += cfg.Stride
				continue
			}
			length := cfg.ReadSize
			if position+length > cfg.DiskSize {
				length = cfg.DiskSize - position
			}
			if err := cfg.Backend.PrepareRead(n, position, int(length)); err != nil {
				return fmt.Errorf("engine: %s: prepare read: %w", phase, err)
			}
			offsets[n] = position
			position += cfg.Stride
			n++
		}
		if n == 0 {
			continue
		}

		accepted, err := cfg.Backend.SubmitBatch(n)
		if err != nil {
			return fmt.Errorf("engine: %s: submit: %w", phase, err)
		}
		if accepted < n {
			return fmt.Errorf("engine: %s: submit accepted %d of %d requests", phase, accepted, n)
		}

		if _, err := cfg.Backend.ReapBatch(n, func(slot, result int) {
			if result < 0 {
				slog.Warn("readFailed", "phase", phase, "offset", offsets[slot], "result", result)
			}
		}); err != nil {
			return fmt.Errorf("engine: %s: reap: %w", phase, err)
		}

		current += int64(n)
		sink.Tick(phase, current, total)
	}

	sink.Tick(phase, total, total)
	sink.PhaseDone(phase, time.Since(start), total)
	return nil
}
