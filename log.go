package osal

import (
	"io"

	"github.com/hq-platform/go-osal/internal/logging"
)

// LogLevel selects the minimum severity the façade prints.
type LogLevel = logging.Level

const (
	LogDebug   = logging.LevelDebug
	LogInfo    = logging.LevelInfo
	LogWarning = logging.LevelWarning
	LogError   = logging.LevelError
)

// SetLogLevel changes the threshold of the default logger.
func SetLogLevel(level LogLevel) {
	logging.Default().SetLevel(level)
}

// SetLogOutput replaces the default logger with one writing to w at the
// given level.
func SetLogOutput(w io.Writer, level LogLevel) {
	logging.SetDefault(logging.NewLogger(&logging.Config{Level: level, Output: w}))
}

// LogDebugf prints a debug-level line with the standard level prefix.
func LogDebugf(format string, args ...any) {
	logging.Debugf(format, args...)
}

// LogInfof prints an info-level line.
func LogInfof(format string, args ...any) {
	logging.Infof(format, args...)
}

// LogWarningf prints a warning-level line.
func LogWarningf(format string, args ...any) {
	logging.Warningf(format, args...)
}

// LogErrorf prints an error-level line.
func LogErrorf(format string, args ...any) {
	logging.Errorf(format, args...)
}
