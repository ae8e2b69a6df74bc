package osal

import (
	"sync"
	"testing"
)

// quietAsserts redirects programmer-error reports into a recorder for the
// duration of a test, keeping stderr clean and letting tests verify that
// guards tripped.
func quietAsserts(t *testing.T) *assertRecorder {
	t.Helper()
	rec := &assertRecorder{}
	SetAssertHandler(rec.handle)
	t.Cleanup(func() { SetAssertHandler(nil) })
	return rec
}

type assertRecorder struct {
	mu       sync.Mutex
	messages []string
}

func (r *assertRecorder) handle(file, function string, line int, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

func (r *assertRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}
