// Package extent holds the deduplicated, sorted stream of device-relative
// I/O coordinates that the warming engine reads: physical byte ranges
// backing the files under a discovered directory subtree.
package extent

import (
	"encoding/binary"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// Extent is a maximal contiguous run of physical blocks backing a region
// of a file. Length is always > 0; zero-length extents are never appended.
type Extent struct {
	PhysicalOffset int64
	Length         int64
}

// End returns the first byte past the extent.
func (e Extent) End() int64 { return e.PhysicalOffset + e.Length }

// List is an append-only ordered buffer of extents, with amortized-O(1)
// append, bulk sort and an in-place adjacent-merge pass. The zero value is
// an empty list ready to use.
type List struct {
	items []Extent
}

const initialCapacity = 16

// Append adds one extent to the list. Zero-length extents are dropped, as
// spec.md's data model requires Length > 0 for every stored extent.
func (l *List) Append(physicalOffset, length int64) {
	if length <= 0 {
		return
	}
	if l.items == nil {
		l.items = make([]Extent, 0, initialCapacity)
	} else if len(l.items) == cap(l.items) {
		grown := make([]Extent, len(l.items), 2*cap(l.items))
		copy(grown, l.items)
		l.items = grown
	}
	l.items = append(l.items, Extent{PhysicalOffset: physicalOffset, Length: length})
}

// Len reports the number of extents currently stored.
func (l *List) Len() int { return len(l.items) }

// Items exposes the underlying slice read-only, for callers (the warming
// engine) that must iterate it without copying.
func (l *List) Items() []Extent { return l.items }

// Sort orders the list by PhysicalOffset ascending. Ties are not broken;
// the sort need not be stable.
func (l *List) Sort() {
	slices.SortFunc(l.items, func(a, b Extent) int {
		switch {
		case a.PhysicalOffset < b.PhysicalOffset:
			return -1
		case a.PhysicalOffset > b.PhysicalOffset:
			return 1
		default:
			return 0
		}
	})
}

// MergeAdjacent performs a single forward pass over an already-sorted list,
// coalescing e[i+1] into e[i] whenever they are byte-adjacent and the
// combined length does not exceed maxMerge (maxMerge <= 0 means no cap).
// It returns the new, possibly-shrunk count.
//
// This exists to protect the backing storage's optimal transfer unit (16
// MiB for EBS) from being exceeded by a single read request once extents
// are coalesced for sequential access.
func (l *List) MergeAdjacent(maxMerge int64) int {
	if len(l.items) == 0 {
		return 0
	}

	out := l.items[:1]
	for _, next := range l.items[1:] {
		last := &out[len(out)-1]
		adjacent := last.PhysicalOffset+last.Length == next.PhysicalOffset
		withinCap := maxMerge <= 0 || last.Length+next.Length <= maxMerge
		if adjacent && withinCap {
			last.Length += next.Length
			continue
		}
		out = append(out, next)
	}
	l.items = out
	return len(l.items)
}

// Fingerprint hashes the list's current (offset, length) sequence with
// xxhash, the same hash the teacher uses for its file-identity cache
// (internal/fileid). It is only ever consulted under --debug, to let a
// run log a short, stable identifier for "the exact extent list this
// invocation warmed" without printing every extent.
func (l *List) Fingerprint() uint64 {
	var buf [16]byte
	h := xxhash.New()
	for _, e := range l.items {
		binary.LittleEndian.PutUint64(buf[0:8], uint64(e.PhysicalOffset))
		binary.LittleEndian.PutUint64(buf[8:16], uint64(e.Length))
		h.Write(buf[:])
	}
	return h.Sum64()
}
