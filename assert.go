package osal

import (
	"fmt"
	"os"
	"runtime"
	"sync/atomic"
)

// AssertHandler receives programmer-error reports: nil handles, invalid
// sizes, out-of-range priorities. The operation still returns its specific
// status; the handler is a side channel for diagnostics.
type AssertHandler func(file, function string, line int, message string)

var assertHandler atomic.Value // AssertHandler

func init() {
	assertHandler.Store(AssertHandler(defaultAssertHandler))
}

// SetAssertHandler replaces the assertion reporter. A nil handler restores
// the default stderr report.
func SetAssertHandler(h AssertHandler) {
	if h == nil {
		h = defaultAssertHandler
	}
	assertHandler.Store(h)
}

func defaultAssertHandler(file, function string, line int, message string) {
	fmt.Fprintf(os.Stderr, "OSAL Assertion Failed:\n")
	fmt.Fprintf(os.Stderr, "  File:     %s\n", file)
	fmt.Fprintf(os.Stderr, "  Function: %s\n", function)
	fmt.Fprintf(os.Stderr, "  Line:     %d\n", line)
	fmt.Fprintf(os.Stderr, "  Message:  %s\n", message)
}

// assertFail reports a programmer error at the API function that detected
// it. skip counts stack frames above assertFail: 1 for a direct call, 2 when
// routed through a guard helper.
func assertFail(skip int, message string) {
	file := "unknown"
	function := "unknown"
	line := 0
	if pc, f, l, ok := runtime.Caller(skip); ok {
		file = f
		line = l
		if fn := runtime.FuncForPC(pc); fn != nil {
			function = fn.Name()
		}
	}
	assertHandler.Load().(AssertHandler)(file, function, line, message)
}

// checkName validates an advisory object name. Empty names are allowed.
func checkName(name string) error {
	if len(name) >= MaxNameLen {
		assertFail(2, "name exceeds OSAL_MAX_NAME_LEN")
		return StatusNameTooLong
	}
	return nil
}
