package engine

import (
	"testing"

	"github.com/pastelsky/ebs-folder-warmer/internal/bitmap"
	"github.com/pastelsky/ebs-folder-warmer/internal/extent"
	"github.com/pastelsky/ebs-folder-warmer/internal/ioengine"
)

// TestPhase1E1 matches spec.md scenario E1: device size 1 GiB, stride
// 512 KiB, one extent (0, 1 MiB) yields exactly 2 reads.
func TestPhase1E1(t *testing.T) {
	const stride = 512 * 1024
	extents := []extent.Extent{{PhysicalOffset: 0, Length: 1024 * 1024}}
	bm := bitmap.New(1<<30, stride)
	backend := ioengine.NewMockBackend(4)

	err := RunPhase1(Phase1Config{
		Backend:    backend,
		Extents:    extents,
		Bitmap:     bm,
		ReadSize:   stride,
		Stride:     stride,
		QueueDepth: 4,
		Phase:      "phase1",
	})
	if err != nil {
		t.Fatalf("RunPhase1: %v", err)
	}
	if backend.TotalSubmitted != 2 {
		t.Fatalf("got %d reads, want 2", backend.TotalSubmitted)
	}
	if !bm.IsMarked(0) || !bm.IsMarked(524288) {
		t.Fatal("expected offsets 0 and 524288 to be marked")
	}
}

// TestPhase1E2 matches spec.md E2: two extents merged into one, yielding
// 2 reads at offsets 524288 and 1048576.
func TestPhase1E2(t *testing.T) {
	var list extent.List
	list.Append(1048576, 524288)
	list.Append(524288, 524288)
	list.Sort()
	list.MergeAdjacent(16 * 1024 * 1024)
	if list.Len() != 1 {
		t.Fatalf("expected merge to produce 1 extent, got %d", list.Len())
	}

	const stride = 524288
	bm := bitmap.New(1<<30, stride)
	backend := ioengine.NewMockBackend(4)

	if err := RunPhase1(Phase1Config{
		Backend:    backend,
		Extents:    list.Items(),
		Bitmap:     bm,
		ReadSize:   stride,
		Stride:     stride,
		QueueDepth: 4,
	}); err != nil {
		t.Fatalf("RunPhase1: %v", err)
	}
	if backend.TotalSubmitted != 2 {
		t.Fatalf("got %d reads, want 2", backend.TotalSubmitted)
	}
	if !bm.IsMarked(524288) || !bm.IsMarked(1048576) {
		t.Fatal("expected both merged-extent offsets marked")
	}
}

func TestPhase1ReturnsErrorOnPartialAccept(t *testing.T) {
	const stride = 1024
	extents := []extent.Extent{{PhysicalOffset: 0, Length: 4096}}
	bm := bitmap.New(1 << 20, stride)
	backend := ioengine.NewMockBackend(4)
	backend.AcceptLimit = 2

	err := RunPhase1(Phase1Config{
		Backend:    backend,
		Extents:    extents,
		Bitmap:     bm,
		ReadSize:   stride,
		Stride:     stride,
		QueueDepth: 4,
	})
	if err == nil {
		t.Fatal("expected phase-fatal error on partial accept")
	}
}

func TestPhase2SkipsMarkedBlocks(t *testing.T) {
	const stride = 1048576
	diskSize := int64(2 * stride)
	bm := bitmap.New(diskSize, stride)
	bm.MarkRange(0, stride) // first block already warmed by phase 1

	backend := ioengine.NewMockBackend(4)
	err := RunPhase2(Phase2Config{
		Backend:    backend,
		Bitmap:     bm,
		DiskSize:   diskSize,
		ReadSize:   stride,
		Stride:     stride,
		QueueDepth: 4,
	})
	if err != nil {
		t.Fatalf("RunPhase2: %v", err)
	}
	if backend.TotalSubmitted != 1 {
		t.Fatalf("got %d reads, want 1 (second block only)", backend.TotalSubmitted)
	}
}

func TestPhase2FullSweepWhenNothingMarked(t *testing.T) {
	const stride = 256 * 1024
	diskSize := int64(1 << 20) // 1 MiB -> 4 blocks
	bm := bitmap.New(diskSize, stride)

	backend := ioengine.NewMockBackend(2)
	if err := RunPhase2(Phase2Config{
		Backend:    backend,
		Bitmap:     bm,
		DiskSize:   diskSize,
		ReadSize:   stride,
		Stride:     stride,
		QueueDepth: 2,
	}); err != nil {
		t.Fatalf("RunPhase2: %v", err)
	}
	if backend.TotalSubmitted != 4 {
		t.Fatalf("got %d reads, want 4", backend.TotalSubmitted)
	}
}

func TestTotalReads1MatchesSpecFormula(t *testing.T) {
	extents := []extent.Extent{{PhysicalOffset: 0, Length: 1500}, {PhysicalOffset: 10000, Length: 300}}
	got := TotalReads1(extents, 1000)
	// ceil(1500/1000)=2, ceil(300/1000)=1
	if got != 3 {
		t.Fatalf("got %d, want 3", got)
	}
}
