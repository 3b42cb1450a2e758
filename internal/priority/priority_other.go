//go:build !linux

package priority

// Applied is a no-op stand-in outside Linux: nice/ioprio throttling is a
// Linux-specific scheduling concept.
type Applied struct{}

// Apply is a no-op on non-Linux platforms; callers still get an Applied
// whose Restore is safe to call.
func Apply(level int) (*Applied, error) {
	return &Applied{}, nil
}

func (a *Applied) Restore() {}
