//go:build linux

package ioengine

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Linux aio_abi.h constants. golang.org/x/sys/unix exposes the raw
// syscall numbers (SYS_IO_SETUP and friends) but no typed wrapper, since
// the kernel ABI for iocb/io_event is a plain C struct with no matching
// Go type anywhere in the toolchain.
const (
	iocbCmdPread = 0

	sizeofIocb    = 64
	sizeofIoEvent = 32
)

// classicalBackend drives reads through the legacy Linux AIO interface:
// io_setup once, then repeated io_submit/io_getevents cycles. Grounded on
// original_source/disk-warmer/io_operations.c's non-liburing code path.
type classicalBackend struct {
	ctx     uintptr // aio_context_t handle returned by io_setup
	fd      int
	queue   int
	align   int
	bufs    [][]byte
	iocbs   []byte // queue*sizeofIocb, one packed iocb per slot
	events  []byte // queue*sizeofIoEvent scratch for io_getevents
	iocbPtr []uintptr
}

// newClassicalBackend opens an AIO context sized for queueDepth concurrent
// requests against fd, with each slot's buffer aligned to align bytes (the
// device's physical sector size when O_DIRECT is in play, per spec.md
// §4.3).
func newClassicalBackend(fd int, queueDepth, readSize, align int) (*classicalBackend, error) {
	var ctx uintptr
	if _, _, errno := unix.Syscall(unix.SYS_IO_SETUP, uintptr(queueDepth), uintptr(unsafe.Pointer(&ctx)), 0); errno != 0 {
		return nil, fmt.Errorf("ioengine: io_setup: %w", errno)
	}

	b := &classicalBackend{
		ctx:     ctx,
		fd:      fd,
		queue:   queueDepth,
		align:   align,
		bufs:    make([][]byte, queueDepth),
		iocbs:   make([]byte, queueDepth*sizeofIocb),
		events:  make([]byte, queueDepth*sizeofIoEvent),
		iocbPtr: make([]uintptr, queueDepth),
	}
	for i := range b.bufs {
		b.bufs[i] = alignedBuffer(readSize, align)
	}
	return b, nil
}

func (b *classicalBackend) QueueDepth() int { return b.queue }

func (b *classicalBackend) PrepareRead(slot int, offset int64, length int) error {
	if length > len(b.bufs[slot]) {
		return fmt.Errorf("ioengine: read length %d exceeds buffer %d", length, len(b.bufs[slot]))
	}
	iocb := b.iocbs[slot*sizeofIocb : (slot+1)*sizeofIocb]
	clear(iocb)

	// aio_data: carry the slot index through so io_getevents can tell us
	// which buffer just landed.
	putU64(iocb[0:8], uint64(slot))
	// aio_key / aio_rw_flags left zero.
	putU16(iocb[16:18], iocbCmdPread)
	// aio_reqprio left zero.
	putU32(iocb[20:24], uint32(b.fd))
	putU64(iocb[24:32], uint64(uintptr(unsafe.Pointer(&b.bufs[slot][0]))))
	putU64(iocb[32:40], uint64(length))
	putU64(iocb[40:48], uint64(offset))

	b.iocbPtr[slot] = uintptr(unsafe.Pointer(&iocb[0]))
	return nil
}

func (b *classicalBackend) SubmitBatch(n int) (int, error) {
	if n == 0 {
		return 0, nil
	}
	ptrs := make([]uintptr, n)
	copy(ptrs, b.iocbPtr[:n])
	r1, _, errno := unix.Syscall(unix.SYS_IO_SUBMIT, b.ctx, uintptr(n), uintptr(unsafe.Pointer(&ptrs[0])))
	if errno != 0 {
		return 0, fmt.Errorf("ioengine: io_submit: %w", errno)
	}
	return int(r1), nil
}

func (b *classicalBackend) ReapBatch(n int, onResult func(slot int, result int)) (int, error) {
	if n == 0 {
		return 0, nil
	}
	eventsBuf := b.events[:n*sizeofIoEvent]
	r1, _, errno := unix.Syscall6(unix.SYS_IO_GETEVENTS, b.ctx, uintptr(n), uintptr(n),
		uintptr(unsafe.Pointer(&eventsBuf[0])), 0, 0)
	if errno != 0 {
		return 0, fmt.Errorf("ioengine: io_getevents: %w", errno)
	}
	got := int(r1)
	for i := 0; i < got; i++ {
		ev := eventsBuf[i*sizeofIoEvent : (i+1)*sizeofIoEvent]
		slot := int(getU64(ev[0:8]))
		res := int64(getU64(ev[16:24]))
		onResult(slot, int(res))
	}
	return got, nil
}

func (b *classicalBackend) Destroy() {
	unix.Syscall(unix.SYS_IO_DESTROY, b.ctx, 0, 0)
}

func putU16(b []byte, v uint16) { b[0] = byte(v); b[1] = byte(v >> 8) }
func putU32(b []byte, v uint32) {
	for i := 0; i < 4; i++ {
		b[i] = byte(v >> (8 * i))
	}
}
func putU64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}
func getU64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}
