// Package deviceprobe opens the target block device (or a regular file
// standing in for one), discovers its size and sector geometry, and
// aligns the caller's requested read size and stride to that geometry.
//
// Ioctl plumbing follows the same "hand-roll the uapi request, call it
// through golang.org/x/sys/unix" approach the pack's FIEMAP example uses
// (other_examples/...linux4life798-btrfs-optimize.../fiemap.go): neither
// BLKGETSIZE64 nor BLKSSZGET/BLKPBSZGET are exposed as typed helpers, so
// they're issued directly against the fd.
package deviceprobe

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

const defaultSectorSize = 512

// Params describes an opened device: its size, sector geometry and
// whether direct I/O is in effect. Immutable after Probe returns.
type Params struct {
	File            *os.File
	SizeBytes       int64
	LogicalSector   int64
	PhysicalSector  int64
	SupportsDirectO bool
	IsBlockDevice   bool
}

// Probe opens path, preferring O_DIRECT, and fills in Params. Failure to
// open the device at all is fatal to the caller (spec.md §7); a path that
// exists but is not a block device only logs a warning.
func Probe(path string) (*Params, error) {
	f, directOK, err := openPreferDirect(path)
	if err != nil {
		return nil, fmt.Errorf("open device %s: %w", path, err)
	}

	p := &Params{File: f, SupportsDirectO: directOK}

	if fi, statErr := f.Stat(); statErr == nil {
		p.IsBlockDevice = fi.Mode()&os.ModeDevice != 0 && fi.Mode()&os.ModeCharDevice == 0
		if !p.IsBlockDevice {
			slog.Warn("notBlockDevice", "path", path)
		}
	}

	size, err := deviceSize(f)
	if err != nil || size <= 0 {
		f.Close()
		return nil, fmt.Errorf("device %s: could not determine size: %w", path, errNonPositiveSize(size, err))
	}
	p.SizeBytes = size

	logical, physical := sectorSizes(f)
	p.LogicalSector = logical
	p.PhysicalSector = physical

	return p, nil
}

func errNonPositiveSize(size int64, err error) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("non-positive size %d", size)
}

func openPreferDirect(path string) (*os.File, bool, error) {
	f, err := os.OpenFile(path, os.O_RDONLY|unix.O_DIRECT, 0)
	if err == nil {
		return f, true, nil
	}
	slog.Debug("directIoUnavailable", "path", path, "err", err)
	f, err = os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, false, err
	}
	return f, false, nil
}

// deviceSize queries the device's byte size via BLKGETSIZE64, falling
// back to seek-to-end for regular files (loop-mounted images).
func deviceSize(f *os.File) (int64, error) {
	var size uint64
	if err := ioctlPointer(f.Fd(), unix.BLKGETSIZE64, unsafe.Pointer(&size)); err == nil && size > 0 {
		return int64(size), nil
	}

	cur, err := f.Seek(0, os.SEEK_CUR)
	if err != nil {
		return 0, err
	}
	end, err := f.Seek(0, os.SEEK_END)
	if err != nil {
		return 0, err
	}
	if _, err := f.Seek(cur, os.SEEK_SET); err != nil {
		return 0, err
	}
	return end, nil
}

// sectorSizes queries logical/physical sector size, defaulting both to
// 512 on query failure; physical defaults to logical if only the logical
// query succeeds (spec.md §4.3).
func sectorSizes(f *os.File) (logical, physical int64) {
	var logicalSize int
	if err := ioctlPointer(f.Fd(), unix.BLKSSZGET, unsafe.Pointer(&logicalSize)); err != nil || logicalSize <= 0 {
		return defaultSectorSize, defaultSectorSize
	}
	logical = int64(logicalSize)

	var physicalSize uint32
	if err := ioctlPointer(f.Fd(), unix.BLKPBSZGET, unsafe.Pointer(&physicalSize)); err != nil || physicalSize == 0 {
		return logical, logical
	}
	return logical, int64(physicalSize)
}

func ioctlPointer(fd uintptr, req uint, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// AlignIOParams rounds readSize and stride up to the next multiple of the
// physical sector size when direct I/O is active. In buffered mode no
// alignment is required.
func (p *Params) AlignIOParams(readSize, stride int64) (alignedReadSize, alignedStride int64) {
	if !p.SupportsDirectO {
		return readSize, stride
	}
	align := p.PhysicalSector
	if align <= 0 {
		align = defaultSectorSize
	}
	return roundUp(readSize, align), roundUp(stride, align)
}

func roundUp(n, align int64) int64 {
	if align <= 0 {
		return n
	}
	rem := n % align
	if rem == 0 {
		return n
	}
	return n + (align - rem)
}

// ErrNotOpened names the error of using a Params whose File has already
// been closed. Nothing in this package returns it.
var ErrNotOpened = errors.New("deviceprobe: device not opened")
