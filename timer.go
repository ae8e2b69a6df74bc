package osal

import (
	"sync"
	"time"
	"unsafe"
)

// TimerCallback is invoked on expiry with the timer's opaque handle. The
// callback runs on the timer's worker with no OSAL lock held, so it may
// freely start, stop, reset, or re-period this or any other timer. It must
// not perform unbounded blocking work.
type TimerCallback func(*Timer)

// TimerControlSize is the hosted control-block size, the minimum length of
// a caller-supplied static buffer.
var TimerControlSize = int(unsafe.Sizeof(Timer{}))

// Timer is a one-shot or periodic software timer. Each timer owns a
// dedicated worker that waits out the period and fires the callback; the
// command operations (Start, Stop, Reset, ChangePeriod) signal the worker and
// return without waiting for it. Delete signals the worker and joins it.
type Timer struct {
	mu            sync.Mutex
	signal        chan struct{}
	workerDone    chan struct{}
	periodMS      uint32
	autoReload    bool
	callback      TimerCallback
	context       any
	active        bool
	stopRequested bool
	deleted       bool
	staticBuf     []byte // caller-supplied control-block reservation, never freed
	name          string
}

// TimerConfig carries the optional create parameters.
type TimerConfig struct {
	// Context is the user pointer later retrieved via Context(). It is
	// distinct from the handle the callback receives.
	Context any

	// StaticBuf, when non-nil, is a caller-provided control-block
	// reservation of at least TimerControlSize bytes, word-aligned. The
	// backend records it as non-owning and never releases it on Delete.
	StaticBuf []byte
}

// NewTimer creates a dormant timer. periodMS must be positive; callback
// must be non-nil.
func NewTimer(name string, periodMS uint32, autoReload bool, callback TimerCallback, cfg TimerConfig) (*Timer, error) {
	if callback == nil {
		assertFail(1, "timer callback is nil")
		return nil, StatusInvalidPointer
	}
	if err := checkName(name); err != nil {
		return nil, err
	}
	if periodMS == 0 {
		assertFail(1, "timer period must be positive")
		return nil, StatusTimerInvalidArgs
	}
	if cfg.StaticBuf != nil {
		if len(cfg.StaticBuf) < TimerControlSize {
			assertFail(1, "static buffer smaller than timer control block")
			return nil, StatusInvalidSize
		}
		if uintptr(unsafe.Pointer(&cfg.StaticBuf[0]))%unsafe.Alignof(uint64(0)) != 0 {
			return nil, StatusAddressMisaligned
		}
	}
	t := &Timer{
		signal:     make(chan struct{}, 1),
		workerDone: make(chan struct{}),
		periodMS:   periodMS,
		autoReload: autoReload,
		callback:   callback,
		context:    cfg.Context,
		staticBuf:  cfg.StaticBuf,
		name:       name,
	}
	go t.worker()
	defaultMetrics.TimersCreated.Add(1)
	return t, nil
}

// Name returns the advisory name given at create.
func (t *Timer) Name() string {
	if t == nil {
		return ""
	}
	return t.name
}

// worker is the per-timer activity: wait for activation, wait out the
// period, fire. The callback runs with the lock released so it can call
// back into this timer.
func (t *Timer) worker() {
	defer close(t.workerDone)

	t.mu.Lock()
	for !t.stopRequested {
		for !t.active && !t.stopRequested {
			t.mu.Unlock()
			<-t.signal
			t.mu.Lock()
		}
		if t.stopRequested {
			break
		}

		deadline := time.Now().Add(time.Duration(t.periodMS) * time.Millisecond)
		for t.active && !t.stopRequested {
			remaining := time.Until(deadline)
			expired := remaining <= 0
			if !expired {
				t.mu.Unlock()
				timer := time.NewTimer(remaining)
				select {
				case <-t.signal:
				case <-timer.C:
					expired = true
				}
				timer.Stop()
				t.mu.Lock()
			}

			if !expired {
				// Command wake: state may have changed, restart the
				// interval against the (possibly new) period.
				if !t.active || t.stopRequested {
					break
				}
				deadline = time.Now().Add(time.Duration(t.periodMS) * time.Millisecond)
				continue
			}

			callback := t.callback
			if !t.autoReload {
				t.active = false
			} else {
				deadline = time.Now().Add(time.Duration(t.periodMS) * time.Millisecond)
			}
			t.mu.Unlock()
			callback(t)
			defaultMetrics.TimerFires.Add(1)
			t.mu.Lock()
			if !t.autoReload {
				break
			}
		}
	}
	t.mu.Unlock()
}

// Start activates a dormant timer: the first expiry is one period from now.
// Starting an active timer is a no-op; the running interval is unchanged
// (use Reset to restart it). cmdTimeoutMS bounds the command handoff on the
// RTOS backend and is advisory here.
func (t *Timer) Start(cmdTimeoutMS uint32) error {
	if t == nil {
		assertFail(1, "timer is nil")
		return StatusInvalidPointer
	}
	_ = cmdTimeoutMS
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.deleted {
		return StatusTimerIDErr
	}
	if t.active {
		return nil
	}
	t.active = true
	notify(t.signal)
	return nil
}

// Reset (re)activates the timer with the next expiry one full period from
// now, whether or not it was running.
func (t *Timer) Reset(cmdTimeoutMS uint32) error {
	if t == nil {
		assertFail(1, "timer is nil")
		return StatusInvalidPointer
	}
	_ = cmdTimeoutMS
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.deleted {
		return StatusTimerIDErr
	}
	t.active = true
	notify(t.signal)
	return nil
}

// Stop deactivates the timer. The callback does not fire until a later
// Start or Reset.
func (t *Timer) Stop(cmdTimeoutMS uint32) error {
	if t == nil {
		assertFail(1, "timer is nil")
		return StatusInvalidPointer
	}
	_ = cmdTimeoutMS
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.deleted {
		return StatusTimerIDErr
	}
	t.active = false
	notify(t.signal)
	return nil
}

// ChangePeriod installs a new period and (re)activates the timer; the next
// expiry is one new period from now.
func (t *Timer) ChangePeriod(newPeriodMS, cmdTimeoutMS uint32) error {
	if t == nil {
		assertFail(1, "timer is nil")
		return StatusInvalidPointer
	}
	if newPeriodMS == 0 {
		assertFail(1, "timer period must be positive")
		return StatusTimerInvalidArgs
	}
	_ = cmdTimeoutMS
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.deleted {
		return StatusTimerIDErr
	}
	t.periodMS = newPeriodMS
	t.active = true
	notify(t.signal)
	return nil
}

// IsActive reports whether the timer is counting toward an expiry.
func (t *Timer) IsActive() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active && !t.deleted
}

// Context returns the user context pointer.
func (t *Timer) Context() any {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.context
}

// SetContext replaces the user context pointer.
func (t *Timer) SetContext(ctx any) error {
	if t == nil {
		assertFail(1, "timer is nil")
		return StatusInvalidPointer
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.deleted {
		return StatusTimerIDErr
	}
	t.context = ctx
	return nil
}

// StartFromISR is unsupported on the hosted backend.
func (t *Timer) StartFromISR() error {
	return StatusNotImplemented
}

// StopFromISR is unsupported on the hosted backend.
func (t *Timer) StopFromISR() error {
	return StatusNotImplemented
}

// ResetFromISR is unsupported on the hosted backend.
func (t *Timer) ResetFromISR() error {
	return StatusNotImplemented
}

// Delete stops the timer, joins its worker, and releases its resources. A
// caller-supplied static buffer is left untouched. Delete must not be
// called from the timer's own callback: the worker cannot join itself.
func (t *Timer) Delete(cmdTimeoutMS uint32) error {
	if t == nil {
		assertFail(1, "timer is nil")
		return StatusInvalidPointer
	}
	_ = cmdTimeoutMS
	t.mu.Lock()
	if t.deleted {
		t.mu.Unlock()
		return StatusTimerIDErr
	}
	t.deleted = true
	t.stopRequested = true
	t.active = false
	notify(t.signal)
	t.mu.Unlock()

	<-t.workerDone
	return nil
}
