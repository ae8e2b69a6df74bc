package osal

import (
	"sync/atomic"
	"time"
)

// Metrics tracks activity counters for the OSAL primitives. All fields are
// updated atomically off the primitives' lock paths; the process-wide
// instance is reachable via DefaultMetrics.
type Metrics struct {
	// Task lifecycle
	TasksCreated atomic.Uint64
	TasksExited  atomic.Uint64

	// Queue activity
	QueuesCreated        atomic.Uint64
	QueueSends           atomic.Uint64
	QueueReceives        atomic.Uint64
	QueueSendTimeouts    atomic.Uint64
	QueueReceiveTimeouts atomic.Uint64

	// Semaphore activity (binary and counting combined)
	SemGives    atomic.Uint64
	SemTakes    atomic.Uint64
	SemTimeouts atomic.Uint64

	// Timer activity
	TimersCreated atomic.Uint64
	TimerFires    atomic.Uint64

	// Process start (UnixNano), for rate computations
	StartTime atomic.Int64
}

var defaultMetrics = newMetrics()

func newMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// DefaultMetrics returns the process-wide metrics instance.
func DefaultMetrics() *Metrics {
	return defaultMetrics
}

// Snapshot holds a point-in-time copy of the counters. Counters are read
// individually; cross-counter consistency is not promised.
type Snapshot struct {
	TasksCreated         uint64
	TasksExited          uint64
	TasksRunning         uint64
	QueuesCreated        uint64
	QueueSends           uint64
	QueueReceives        uint64
	QueueSendTimeouts    uint64
	QueueReceiveTimeouts uint64
	SemGives             uint64
	SemTakes             uint64
	SemTimeouts          uint64
	TimersCreated        uint64
	TimerFires           uint64
	UptimeNs             uint64
}

// Snapshot copies the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		TasksCreated:         m.TasksCreated.Load(),
		TasksExited:          m.TasksExited.Load(),
		QueuesCreated:        m.QueuesCreated.Load(),
		QueueSends:           m.QueueSends.Load(),
		QueueReceives:        m.QueueReceives.Load(),
		QueueSendTimeouts:    m.QueueSendTimeouts.Load(),
		QueueReceiveTimeouts: m.QueueReceiveTimeouts.Load(),
		SemGives:             m.SemGives.Load(),
		SemTakes:             m.SemTakes.Load(),
		SemTimeouts:          m.SemTimeouts.Load(),
		TimersCreated:        m.TimersCreated.Load(),
		TimerFires:           m.TimerFires.Load(),
		UptimeNs:             uint64(time.Now().UnixNano() - m.StartTime.Load()),
	}
	if s.TasksCreated >= s.TasksExited {
		s.TasksRunning = s.TasksCreated - s.TasksExited
	}
	return s
}

// Reset zeroes all counters (useful for testing).
func (m *Metrics) Reset() {
	m.TasksCreated.Store(0)
	m.TasksExited.Store(0)
	m.QueuesCreated.Store(0)
	m.QueueSends.Store(0)
	m.QueueReceives.Store(0)
	m.QueueSendTimeouts.Store(0)
	m.QueueReceiveTimeouts.Store(0)
	m.SemGives.Store(0)
	m.SemTakes.Store(0)
	m.SemTimeouts.Store(0)
	m.TimersCreated.Store(0)
	m.TimerFires.Store(0)
	m.StartTime.Store(time.Now().UnixNano())
}
