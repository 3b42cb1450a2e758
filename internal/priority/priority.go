// Package priority applies and restores the nice/ioprio throttling
// mapping spec.md §6 defines for phase 1 and phase 2. Neither golang.org/
// x/sys/unix exposes a typed ioprio_set wrapper (only the setpriority
// syscall is wrapped, as Setpriority), so ioprio_set is issued as a raw
// syscall the same way the device probe hand-rolls its block-device
// ioctls.
package priority

const (
	ioprioClassShift = 13

	ioprioClassBestEffort = 2
	ioprioClassIdle       = 3
)

// Mapping converts a throttle level L (0..7, spec.md §6) into the
// process nice value and ioprio (class, data) pair to apply during a
// phase. Level 0 means "no throttling" and is represented by ok=false.
func Mapping(level int) (nice int, class int, data int, ok bool) {
	if level <= 0 {
		return 0, 0, 0, false
	}
	nice = 10 + level
	if level < 4 {
		class = ioprioClassBestEffort
	} else {
		class = ioprioClassIdle
	}
	data = level + 3
	if data > 7 {
		data = 7
	}
	return nice, class, data, true
}

func packIOPrio(class, data int) int {
	return class<<ioprioClassShift | data
}

func unpackIOPrio(packed int) (class, data int) {
	return packed >> ioprioClassShift, packed & ((1 << ioprioClassShift) - 1)
}
