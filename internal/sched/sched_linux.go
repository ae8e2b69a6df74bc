//go:build linux

// Package sched applies hosted scheduling attributes — CPU affinity and
// round-robin priority — to the calling OS thread. Both are advisory: an
// unprivileged process keeps correctness and loses only the real-time
// mapping.
package sched

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

type schedParam struct {
	priority int32
}

// PriorityRange returns the hosted round-robin priority bounds, or ok=false
// when the substrate does not report them (all priorities accepted then).
func PriorityRange() (min, max uint32, ok bool) {
	lo, _, e1 := unix.Syscall(unix.SYS_SCHED_GET_PRIORITY_MIN, uintptr(schedRR), 0, 0)
	hi, _, e2 := unix.Syscall(unix.SYS_SCHED_GET_PRIORITY_MAX, uintptr(schedRR), 0, 0)
	if e1 != 0 || e2 != 0 {
		return 0, 0, false
	}
	return uint32(lo), uint32(hi), true
}

const schedRR = 2 // SCHED_RR policy number on Linux

// ApplyPriority maps the task priority onto SCHED_RR for the calling
// thread. EPERM is expected for unprivileged processes and is not an error.
func ApplyPriority(priority uint32) error {
	param := schedParam{priority: int32(priority)}
	_, _, errno := unix.Syscall(unix.SYS_SCHED_SETSCHEDULER,
		0, // calling thread
		uintptr(schedRR),
		uintptr(unsafe.Pointer(&param)))
	if errno != 0 && errno != unix.EPERM {
		return errno
	}
	return nil
}

// ApplyAffinity pins the calling thread to a single CPU.
func ApplyAffinity(cpu int) error {
	var mask unix.CPUSet
	mask.Set(cpu)
	return unix.SchedSetaffinity(0, &mask)
}

// Supported reports whether scheduling attributes take effect on this
// substrate.
func Supported() bool { return true }
