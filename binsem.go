package osal

import (
	"sync"
	"time"
)

// BinSem is a binary semaphore: a signal primitive with two states, Empty
// and Full. Give sets Full and is idempotent; Take consumes Full and blocks
// while Empty.
type BinSem struct {
	mu      sync.Mutex
	signal  chan struct{}
	done    chan struct{}
	full    bool
	deleted bool
	name    string
}

// NewBinSem creates a binary semaphore. initial must be SemEmpty or SemFull.
func NewBinSem(name string, initial uint32) (*BinSem, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if initial > SemFull {
		assertFail(1, "binary semaphore initial value must be 0 or 1")
		return nil, StatusInvalidSemValue
	}
	s := &BinSem{
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
		full:   initial == SemFull,
		name:   name,
	}
	return s, nil
}

// Name returns the advisory name given at create.
func (s *BinSem) Name() string {
	if s == nil {
		return ""
	}
	return s.name
}

// Give signals the semaphore. Giving an already-full semaphore is a no-op
// success, not an error.
func (s *BinSem) Give() error {
	if s == nil {
		assertFail(1, "semaphore is nil")
		return StatusInvalidPointer
	}
	s.mu.Lock()
	if s.deleted {
		s.mu.Unlock()
		return StatusInvalidID
	}
	s.full = true
	s.mu.Unlock()
	notify(s.signal)
	defaultMetrics.SemGives.Add(1)
	return nil
}

// Take consumes the signal, blocking indefinitely while Empty.
func (s *BinSem) Take() error {
	return s.wait(MaxDelay)
}

// TimedWait consumes the signal, blocking up to timeoutMS. A zero timeout
// polls; expiry returns StatusSemTimeout.
func (s *BinSem) TimedWait(timeoutMS uint32) error {
	return s.wait(timeoutMS)
}

func (s *BinSem) wait(timeoutMS uint32) error {
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
	for !s.full {
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
	s.full = false
	s.mu.Unlock()
	defaultMetrics.SemTakes.Add(1)
	return nil
}

// GiveFromISR is unsupported on the hosted backend.
func (s *BinSem) GiveFromISR() error {
	return StatusNotImplemented
}

// TakeFromISR is unsupported on the hosted backend. On the RTOS backend an
// unavailable semaphore reports StatusSemTimeout, not StatusSemFailure.
func (s *BinSem) TakeFromISR() error {
	return StatusNotImplemented
}

// Delete destroys the semaphore and wakes all blocked waiters, which return
// StatusInvalidID. Callers should quiesce waiters first.
func (s *BinSem) Delete() error {
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
