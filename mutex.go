package osal

import (
	"sync"
	"sync/atomic"

	"github.com/hq-platform/go-osal/internal/gid"
)

// Mutex is an owner-tracking exclusion lock. At most one goroutine holds it
// at a time and only the holder may release it. Recursion is not supported:
// a second Take by the owner deadlocks, as on the RTOS backend's
// non-recursive mutex.
type Mutex struct {
	inner   sync.Mutex
	owner   atomic.Int64 // goroutine ID of the holder, 0 when free
	deleted atomic.Bool
	name    string
}

// NewMutex creates a mutex in the free state. The name is advisory.
func NewMutex(name string) (*Mutex, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	return &Mutex{name: name}, nil
}

// Name returns the advisory name given at create.
func (m *Mutex) Name() string {
	if m == nil {
		return ""
	}
	return m.name
}

// Take acquires the mutex, blocking indefinitely. The API shape is
// deliberately unconditional: there is no timed variant in the contract.
func (m *Mutex) Take() error {
	if m == nil {
		assertFail(1, "mutex is nil")
		return StatusInvalidPointer
	}
	if m.deleted.Load() {
		return StatusInvalidID
	}
	m.inner.Lock()
	m.owner.Store(gid.ID())
	return nil
}

// Give releases the mutex. Release by a goroutine that is not the owner
// fails with StatusSemFailure and leaves the lock held.
func (m *Mutex) Give() error {
	if m == nil {
		assertFail(1, "mutex is nil")
		return StatusInvalidPointer
	}
	if m.deleted.Load() {
		return StatusInvalidID
	}
	if m.owner.Load() != gid.ID() {
		return StatusSemFailure
	}
	m.owner.Store(0)
	m.inner.Unlock()
	return nil
}

// Delete destroys the mutex. It must not be held: deleting a held mutex
// returns StatusObjectInUse.
func (m *Mutex) Delete() error {
	if m == nil {
		assertFail(1, "mutex is nil")
		return StatusInvalidPointer
	}
	if m.owner.Load() != 0 {
		return StatusObjectInUse
	}
	if !m.deleted.CompareAndSwap(false, true) {
		return StatusInvalidID
	}
	return nil
}
