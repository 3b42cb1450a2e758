//go:build !linux

package ioengine

// Open is unsupported outside Linux: spec.md §4.7's async backends are
// both Linux-specific kernel interfaces, and there is no portable
// equivalent worth hand-rolling.
func Open(fd int, queueDepth, readSize, align int) (Backend, string, error) {
	return nil, "", ErrUnsupportedPlatform
}
