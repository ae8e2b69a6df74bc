package osal

import (
	"math"
	"sync"
	"time"
)

// Queue is a bounded FIFO of fixed-size opaque items. Items are copied
// bytewise into a ring buffer of capacity*itemSize bytes; senders block
// while full and receivers while empty, under the three-regime timeout
// model.
type Queue struct {
	mu       sync.Mutex
	notEmpty chan struct{}
	notFull  chan struct{}
	done     chan struct{}
	buf      []byte
	itemSize uint32
	capacity uint32
	head     uint32
	tail     uint32
	count    uint32
	deleted  bool
	name     string
}

// NewQueue creates a message queue holding up to capacity items of exactly
// itemSize bytes each. Zero capacity or item size, or a buffer that would
// overflow, returns StatusQueueInvalidSize.
func NewQueue(name string, capacity, itemSize uint32) (*Queue, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if capacity == 0 || itemSize == 0 {
		assertFail(1, "queue capacity and item size must be nonzero")
		return nil, StatusQueueInvalidSize
	}
	if uint64(capacity)*uint64(itemSize) > math.MaxInt32 {
		return nil, StatusQueueInvalidSize
	}
	q := &Queue{
		notEmpty: make(chan struct{}, 1),
		notFull:  make(chan struct{}, 1),
		done:     make(chan struct{}),
		buf:      make([]byte, capacity*itemSize),
		itemSize: itemSize,
		capacity: capacity,
		name:     name,
	}
	defaultMetrics.QueuesCreated.Add(1)
	return q, nil
}

// Name returns the advisory name given at create.
func (q *Queue) Name() string {
	if q == nil {
		return ""
	}
	return q.name
}

// ItemSize returns the fixed per-item size in bytes.
func (q *Queue) ItemSize() uint32 {
	if q == nil {
		return 0
	}
	return q.itemSize
}

// Capacity returns the maximum number of items the queue can hold.
func (q *Queue) Capacity() uint32 {
	if q == nil {
		return 0
	}
	return q.capacity
}

// Send copies item into the queue, waking one receiver. item must be
// exactly ItemSize bytes. While the queue is full: a zero timeout returns
// StatusQueueFull, a bounded timeout returns StatusQueueTimeout on expiry,
// and MaxDelay waits indefinitely.
func (q *Queue) Send(item []byte, timeoutMS uint32) error {
	if q == nil {
		assertFail(1, "queue is nil")
		return StatusInvalidPointer
	}
	if item == nil {
		assertFail(1, "item is nil")
		return StatusInvalidPointer
	}
	if uint32(len(item)) != q.itemSize {
		assertFail(1, "item length does not match queue item size")
		return StatusInvalidSize
	}
	kind := classifyTimeout(timeoutMS)
	var deadline time.Time
	if kind == waitTimed {
		deadline = deadlineFor(timeoutMS)
	}

	q.mu.Lock()
	for q.count == q.capacity {
		if q.deleted {
			q.mu.Unlock()
			return StatusQueueIDError
		}
		if kind == waitPoll {
			q.mu.Unlock()
			return StatusQueueFull
		}
		q.mu.Unlock()
		switch waitSignal(q.notFull, q.done, kind, deadline) {
		case wakeTimeout:
			defaultMetrics.QueueSendTimeouts.Add(1)
			return StatusQueueTimeout
		case wakeClosed:
			return StatusQueueIDError
		}
		q.mu.Lock()
	}
	if q.deleted {
		q.mu.Unlock()
		return StatusQueueIDError
	}
	copy(q.buf[q.tail*q.itemSize:(q.tail+1)*q.itemSize], item)
	q.tail = (q.tail + 1) % q.capacity
	q.count++
	spaceLeft := q.count < q.capacity
	q.mu.Unlock()
	notify(q.notEmpty)
	if spaceLeft {
		// Pass the wake along so a burst of receives unblocks every
		// waiting sender, not just the first.
		notify(q.notFull)
	}
	defaultMetrics.QueueSends.Add(1)
	return nil
}

// Receive copies the oldest item into buffer, waking one sender. buffer
// must be at least ItemSize bytes. While the queue is empty: a zero timeout
// returns StatusQueueEmpty, a bounded timeout returns StatusQueueTimeout on
// expiry, and MaxDelay waits indefinitely.
func (q *Queue) Receive(buffer []byte, timeoutMS uint32) error {
	if q == nil {
		assertFail(1, "queue is nil")
		return StatusInvalidPointer
	}
	if buffer == nil {
		assertFail(1, "buffer is nil")
		return StatusInvalidPointer
	}
	if uint32(len(buffer)) < q.itemSize {
		assertFail(1, "buffer smaller than queue item size")
		return StatusInvalidSize
	}
	kind := classifyTimeout(timeoutMS)
	var deadline time.Time
	if kind == waitTimed {
		deadline = deadlineFor(timeoutMS)
	}

	q.mu.Lock()
	for q.count == 0 {
		if q.deleted {
			q.mu.Unlock()
			return StatusQueueIDError
		}
		if kind == waitPoll {
			q.mu.Unlock()
			return StatusQueueEmpty
		}
		q.mu.Unlock()
		switch waitSignal(q.notEmpty, q.done, kind, deadline) {
		case wakeTimeout:
			defaultMetrics.QueueReceiveTimeouts.Add(1)
			return StatusQueueTimeout
		case wakeClosed:
			return StatusQueueIDError
		}
		q.mu.Lock()
	}
	if q.deleted {
		q.mu.Unlock()
		return StatusQueueIDError
	}
	copy(buffer[:q.itemSize], q.buf[q.head*q.itemSize:(q.head+1)*q.itemSize])
	q.head = (q.head + 1) % q.capacity
	q.count--
	itemsLeft := q.count > 0
	q.mu.Unlock()
	notify(q.notFull)
	if itemsLeft {
		notify(q.notEmpty)
	}
	defaultMetrics.QueueReceives.Add(1)
	return nil
}

// GetCount returns the number of items currently queued, consistent under
// the queue lock. A deleted handle reports 0.
func (q *Queue) GetCount() uint32 {
	if q == nil {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.deleted {
		return 0
	}
	return q.count
}

// SendFromISR is unsupported on the hosted backend. On the RTOS backend it
// never blocks and arranges a deferred yield to any higher-priority task
// woken.
func (q *Queue) SendFromISR(item []byte) error {
	return StatusNotImplemented
}

// ReceiveFromISR is unsupported on the hosted backend.
func (q *Queue) ReceiveFromISR(buffer []byte) error {
	return StatusNotImplemented
}

// Delete destroys the queue. Blocked senders and receivers are woken and
// return StatusQueueIDError; callers should quiesce them first.
func (q *Queue) Delete() error {
	if q == nil {
		assertFail(1, "queue is nil")
		return StatusInvalidPointer
	}
	q.mu.Lock()
	if q.deleted {
		q.mu.Unlock()
		return StatusQueueIDError
	}
	q.deleted = true
	close(q.done)
	q.buf = nil
	q.mu.Unlock()
	return nil
}
