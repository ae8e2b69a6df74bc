//go:build !linux

package sched

// PriorityRange reports no bounds on substrates without an RR mapping; all
// priorities are accepted and ignored.
func PriorityRange() (min, max uint32, ok bool) {
	return 0, 0, false
}

// ApplyPriority is a no-op off Linux.
func ApplyPriority(priority uint32) error { return nil }

// ApplyAffinity is a no-op off Linux.
func ApplyAffinity(cpu int) error { return nil }

// Supported reports whether scheduling attributes take effect on this
// substrate.
func Supported() bool { return false }
