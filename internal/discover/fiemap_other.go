//go:build !linux

package discover

import "errors"

var errFiemapUnsupported = errors.New("discover: FIEMAP extent queries require linux")

type fiemapExtent struct {
	Logical  uint64
	Physical uint64
	Length   uint64
	Flags    uint32
}

func queryFileExtents(fd int, yield func(fiemapExtent)) error {
	return errFiemapUnsupported
}
