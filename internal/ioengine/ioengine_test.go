package ioengine

import (
	"testing"
	"unsafe"
)

func TestAlignedBufferAlignment(t *testing.T) {
	for _, align := range []int{512, 4096} {
		buf := alignedBuffer(8192, align)
		if len(buf) != 8192 {
			t.Fatalf("align %d: got len %d, want 8192", align, len(buf))
		}
		addr := uintptr(unsafe.Pointer(&buf[0]))
		if addr%uintptr(align) != 0 {
			t.Fatalf("align %d: address %x not aligned", align, addr)
		}
	}
}

func TestMockBackendRoundTrip(t *testing.T) {
	b := NewMockBackend(4)
	for i := 0; i < 4; i++ {
		if err := b.PrepareRead(i, int64(i*1024), 1024); err != nil {
			t.Fatal(err)
		}
	}
	accepted, err := b.SubmitBatch(4)
	if err != nil || accepted != 4 {
		t.Fatalf("SubmitBatch: accepted=%d err=%v", accepted, err)
	}

	var got []int
	reaped, err := b.ReapBatch(4, func(slot, result int) {
		got = append(got, slot)
		if result < 0 {
			t.Fatalf("slot %d unexpectedly failed", slot)
		}
	})
	if err != nil || reaped != 4 || len(got) != 4 {
		t.Fatalf("ReapBatch: reaped=%d got=%v err=%v", reaped, got, err)
	}
}

func TestMockBackendAcceptLimit(t *testing.T) {
	b := NewMockBackend(4)
	b.AcceptLimit = 2
	for i := 0; i < 4; i++ {
		_ = b.PrepareRead(i, int64(i*1024), 1024)
	}
	accepted, _ := b.SubmitBatch(4)
	if accepted != 2 {
		t.Fatalf("got accepted=%d, want 2", accepted)
	}
}

func TestMockBackendReportsFailures(t *testing.T) {
	b := NewMockBackend(2)
	b.FailOffset[0] = true
	_ = b.PrepareRead(0, 0, 512)
	_ = b.PrepareRead(1, 512, 512)
	if _, err := b.SubmitBatch(2); err != nil {
		t.Fatal(err)
	}
	results := map[int]int{}
	if _, err := b.ReapBatch(2, func(slot, result int) { results[slot] = result }); err != nil {
		t.Fatal(err)
	}
	if results[0] >= 0 {
		t.Fatalf("slot 0 expected failure result, got %d", results[0])
	}
	if results[1] < 0 {
		t.Fatalf("slot 1 expected success, got %d", results[1])
	}
}
