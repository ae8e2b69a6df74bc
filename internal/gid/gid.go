// Package gid resolves the numeric ID of the calling goroutine.
//
// The runtime does not expose goroutine identity, so the ID is parsed out of
// the first line of a single-goroutine stack dump ("goroutine N [running]:").
// The cost is a stack header capture per call, which is acceptable for the
// control-path uses in this module (mutex ownership, task registry lookup).
package gid

import (
	"bytes"
	"runtime"
	"strconv"
)

var prefix = []byte("goroutine ")

// ID returns the current goroutine's ID, or 0 if the header cannot be
// parsed (which would indicate a runtime format change).
func ID() int64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	buf = buf[:n]
	if !bytes.HasPrefix(buf, prefix) {
		return 0
	}
	buf = buf[len(prefix):]
	end := bytes.IndexByte(buf, ' ')
	if end < 0 {
		return 0
	}
	id, err := strconv.ParseInt(string(buf[:end]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
