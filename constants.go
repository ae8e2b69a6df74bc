package osal

import "github.com/hq-platform/go-osal/internal/constants"

// Re-export constants for public API
const (
	// MaxNameLen is the maximum object name length, terminator included.
	// Names are advisory: stored for debugging, never a lookup key.
	MaxNameLen = constants.MaxNameLen

	// MaxDelay means "wait forever" wherever a millisecond timeout is taken.
	MaxDelay = constants.MaxDelay

	// SemEmpty and SemFull are the two binary semaphore states.
	SemEmpty = 0
	SemFull  = 1

	// NoAffinity leaves a task free to run on any core.
	NoAffinity = constants.NoAffinity

	// DefaultStackSize is a safe stack request for hosted tasks.
	DefaultStackSize = constants.DefaultStackSize
)
