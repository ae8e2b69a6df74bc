package osal

import (
	"sync"
	"time"
)

// CountSem is a counting semaphore with a count in [0, max]. A max of zero
// at create means unbounded. Give increments the count and fails with
// StatusSemFailure at an enforced max; Take decrements, blocking while zero.
type CountSem struct {
	mu      sync.Mutex
	signal  chan struct{}
	done    chan struct{}
	count   uint32
	max     uint32 // 0 = unbounded
	deleted bool
	name    string
}

// NewCountSem creates a counting semaphore. initial must not exceed max
// when max is nonzero.
func NewCountSem(name string, initial, max uint32) (*CountSem, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if max != 0 && initial > max {
		assertFail(1, "initial count exceeds max")
		return nil, StatusInvalidSemValue
	}
	return &CountSem{
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
		count:  initial,
		max:    max,
		name:   name,
	}, nil
}

// Name returns the advisory name given at create.
func (s *CountSem) Name() string {
	if s == nil {
		return ""
	}
	return s.name
}

// Give increments the count and wakes one waiter. At an enforced max the
// count is unchanged and StatusSemFailure is returned.
func (s *CountSem) Give() error {
	if s == nil {
		assertFail(1, "semaphore is nil")
		return StatusInvalidPointer
	}
	s.mu.Lock()
	if s.deleted {
		s.mu.Unlock()
		return StatusInvalidID
	}
	if s.max != 0 && s.count == s.max {
		s.mu.Unlock()
		return StatusSemFailure
	}
	s.count++
	s.mu.Unlock()
	notify(s.signal)
	defaultMetrics.SemGives.Add(1)
	return nil
}

// Take decrements the count, blocking indefinitely while zero.
func (s *CountSem) Take() error {
	return s.wait(MaxDelay)
}

// TimedWait decrements the count, blocking up to timeoutMS. A zero timeout
// polls; expiry returns StatusSemTimeout.
func (s *CountSem) TimedWait(timeoutMS uint32) error {
	return s.wait(timeoutMS)
}

func (s *CountSem) wait(timeoutMS uint32) error {
	if s == nil {
		assertFail(2, "semaphore is nil")
		return StatusInvalidPointer
	}
	kind := classifyTimeout(timeoutMS)
	var deadline time.Time
	if kind == waitTimed {
		deadline = deadlineFor(timeoutMS)
	}

	s.mu.Lock()
	for s.count == 0 {
		if s.deleted {
			s.mu.Unlock()
			return StatusInvalidID
		}
		if kind == waitPoll {
			s.mu.Unlock()
			return StatusSemTimeout
		}
		s.mu.Unlock()
		switch waitSignal(s.signal, s.done, kind, deadline) {
		case wakeTimeout:
			defaultMetrics.SemTimeouts.Add(1)
			return StatusSemTimeout
		case wakeClosed:
			return StatusInvalidID
		}
		s.mu.Lock()
	}
	s.count--
	if s.count > 0 {
		// More takers may proceed; pass the wake along.
		notify(s.signal)
	}
	s.mu.Unlock()
	defaultMetrics.SemTakes.Add(1)
	return nil
}

// GetCount returns the current count. A deleted handle reports 0 rather
// than an error, preserving the behavior consumers already depend on.
func (s *CountSem) GetCount() uint32 {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleted {
		return 0
	}
	return s.count
}

// GiveFromISR is unsupported on the hosted backend.
func (s *CountSem) GiveFromISR() error {
	return StatusNotImplemented
}

// TakeFromISR is unsupported on the hosted backend.
func (s *CountSem) TakeFromISR() error {
	return StatusNotImplemented
}

// Delete destroys the semaphore and wakes all blocked waiters, which return
// StatusInvalidID.
func (s *CountSem) Delete() error {
	if s == nil {
		assertFail(1, "semaphore is nil")
		return StatusInvalidPointer
	}
	s.mu.Lock()
	if s.deleted {
		s.mu.Unlock()
		return StatusInvalidID
	}
	s.deleted = true
	close(s.done)
	s.mu.Unlock()
	return nil
}
