package ioengine

import "unsafe"

// alignedBuffer returns a size-byte slice whose start address is a
// multiple of align, by over-allocating and trimming the head. Go gives
// no posix_memalign equivalent; this is the usual workaround for O_DIRECT
// reads, which require aligned buffers, offsets and lengths (spec.md
// §4.3/§4.6).
func alignedBuffer(size, align int) []byte {
	if align <= 1 {
		return make([]byte, size)
	}
	raw := make([]byte, size+align)
	addr := uintptr(unsafe.Pointer(&raw[0]))
	pad := (align - int(addr%uintptr(align))) % align
	return raw[pad : pad+size : pad+size]
}
