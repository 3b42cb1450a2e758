//go:build linux

package priority

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const (
	ioprioWhoProcess    = 1
	priorityWhoProcess  = unix.PRIO_PROCESS
)

// Applied restores the previous nice/ioprio values; callers defer its
// Restore after Apply succeeds (spec.md §6: "original priorities are
// restored after the phase").
type Applied struct {
	pid        int
	prevNice   int
	prevIOPrio int
	didIOPrio  bool
}

// Apply sets the calling process's nice value and I/O priority for
// throttle level. A level of 0 is a no-op and returns a zero Applied
// whose Restore does nothing.
func Apply(level int) (*Applied, error) {
	nice, class, data, ok := Mapping(level)
	if !ok {
		return &Applied{}, nil
	}

	pid := unix.Getpid()
	rawPrevNice, err := unix.Getpriority(priorityWhoProcess, pid)
	if err != nil {
		return nil, fmt.Errorf("priority: getpriority: %w", err)
	}
	// Linux's getpriority syscall returns a value already offset by 20;
	// undo that before storing it back as a raw setpriority argument.
	prevNice := 20 - rawPrevNice

	if err := unix.Setpriority(priorityWhoProcess, pid, nice); err != nil {
		return nil, fmt.Errorf("priority: setpriority(%d): %w", nice, err)
	}

	prevClass, prevData, ioErr := getIOPrio(pid)
	didIOPrio := ioErr == nil

	if err := setIOPrio(pid, class, data); err != nil {
		// Best-effort: ioprio_set can fail under a restrictive seccomp
		// profile or on kernels without CFQ/BFQ; the nice value alone
		// still throttles in that case.
		return &Applied{pid: pid, prevNice: prevNice}, nil
	}

	applied := &Applied{pid: pid, prevNice: prevNice, didIOPrio: didIOPrio}
	if didIOPrio {
		applied.prevIOPrio = packIOPrio(prevClass, prevData)
	}
	return applied, nil
}

// Restore reapplies the nice and (if it was read successfully) ioprio
// values captured at Apply time.
func (a *Applied) Restore() {
	if a == nil || a.pid == 0 {
		return
	}
	unix.Setpriority(priorityWhoProcess, a.pid, a.prevNice)
	if a.didIOPrio {
		class, data := unpackIOPrio(a.prevIOPrio)
		setIOPrio(a.pid, class, data)
	}
}

func setIOPrio(pid, class, data int) error {
	_, _, errno := unix.Syscall(unix.SYS_IOPRIO_SET, uintptr(ioprioWhoProcess), uintptr(pid), uintptr(packIOPrio(class, data)))
	if errno != 0 {
		return errno
	}
	return nil
}

func getIOPrio(pid int) (class, data int, err error) {
	r1, _, errno := unix.Syscall(unix.SYS_IOPRIO_GET, uintptr(ioprioWhoProcess), uintptr(pid), 0)
	if errno != 0 {
		return 0, 0, errno
	}
	packed := int(r1)
	return packed >> ioprioClassShift, packed & ((1 << ioprioClassShift) - 1), nil
}
