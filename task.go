package osal

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hq-platform/go-osal/internal/constants"
	"github.com/hq-platform/go-osal/internal/gid"
	"github.com/hq-platform/go-osal/internal/logging"
	"github.com/hq-platform/go-osal/internal/sched"
)

// TaskEntry is a task's entry point. The argument is passed through
// unchanged from CreateTask. Returning from the entry terminates the task.
type TaskEntry func(arg any)

// TaskAttr is the optional attribute block for task creation. The reserved
// tail keeps the block ABI-stable across backends and must be zero.
type TaskAttr struct {
	CoreAffinity int
	Reserved     [constants.ReservedAttrBytes]uint8
}

// NewTaskAttr returns an attribute block with no affinity and a zeroed
// reserved tail. Prefer it over a literal so future fields start zeroed.
func NewTaskAttr() *TaskAttr {
	return &TaskAttr{CoreAffinity: NoAffinity}
}

// TaskConfig carries the create parameters beyond name, entry, and
// argument.
type TaskConfig struct {
	// Stack is an optional pre-supplied stack buffer. The hosted backend
	// neither checks nor consumes it: goroutine stacks are runtime managed.
	Stack []byte

	// StackSize is the requested stack size in bytes and must be positive.
	// Sizes below the host minimum are rounded up by the host.
	StackSize int

	// Priority is validated against the substrate's round-robin range and
	// applied advisorily.
	Priority uint32

	// Attr is the optional attribute block.
	Attr *TaskAttr
}

// Task is a handle to a schedulable activity. Tasks run until their entry
// returns, they call TaskExit, or they are deleted.
type Task struct {
	name     string
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	deleted  atomic.Bool
}

// Hosted tasks register themselves by goroutine ID so OSAL calls made from
// inside a task (TaskExit, DelayMS cancellation) can find their control block.
var (
	taskRegistry   = make(map[int64]*Task)
	taskRegistryMu sync.RWMutex
)

func currentTask() *Task {
	taskRegistryMu.RLock()
	defer taskRegistryMu.RUnlock()
	return taskRegistry[gid.ID()]
}

// CreateTask starts a task running entry(arg). The name is advisory: it is
// stored in the control block and reported by Name, and is not applied to
// the OS thread.
func CreateTask(name string, entry TaskEntry, arg any, cfg TaskConfig) (*Task, error) {
	if entry == nil {
		assertFail(1, "task entry is nil")
		return nil, StatusInvalidPointer
	}
	if err := checkName(name); err != nil {
		return nil, err
	}
	if cfg.StackSize <= 0 {
		assertFail(1, "task stack size must be positive")
		return nil, StatusInvalidSize
	}
	if err := validateAttr(cfg.Attr); err != nil {
		return nil, err
	}
	if min, max, ok := sched.PriorityRange(); ok {
		if cfg.Priority < min || cfg.Priority > max {
			assertFail(1, "task priority outside substrate range")
			return nil, StatusInvalidPriority
		}
	}

	t := &Task{
		name: name,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	pinned := cfg.Attr != nil && cfg.Attr.CoreAffinity != NoAffinity
	go func() {
		id := gid.ID()
		taskRegistryMu.Lock()
		taskRegistry[id] = t
		taskRegistryMu.Unlock()
		defer func() {
			taskRegistryMu.Lock()
			delete(taskRegistry, id)
			taskRegistryMu.Unlock()
			defaultMetrics.TasksExited.Add(1)
			close(t.done)
		}()

		if pinned || sched.Supported() {
			// The locked thread is discarded when the goroutine exits, so
			// the RR policy and affinity never leak to other tasks.
			runtime.LockOSThread()
			if pinned {
				if err := sched.ApplyAffinity(cfg.Attr.CoreAffinity); err != nil {
					logging.Debugf("task %s: affinity to core %d not applied: %v", name, cfg.Attr.CoreAffinity, err)
				}
			}
			if err := sched.ApplyPriority(cfg.Priority); err != nil {
				logging.Debugf("task %s: priority %d not applied: %v", name, cfg.Priority, err)
			}
		}

		entry(arg)
	}()

	defaultMetrics.TasksCreated.Add(1)
	return t, nil
}

func validateAttr(attr *TaskAttr) error {
	if attr == nil {
		return nil
	}
	for _, b := range attr.Reserved {
		if b != 0 {
			assertFail(2, "reserved attribute bytes must be zero")
			return StatusInvalidArgument
		}
	}
	if attr.CoreAffinity == NoAffinity {
		return nil
	}
	if attr.CoreAffinity < 0 || attr.CoreAffinity >= runtime.NumCPU() {
		assertFail(2, "core affinity outside [0, cpu count)")
		return StatusInvalidArgument
	}
	return nil
}

// Name returns the advisory name given at create.
func (t *Task) Name() string {
	if t == nil {
		return ""
	}
	return t.name
}

// Stopping returns a channel closed when the task has been asked to stop.
// Long-running entries should select on it for deterministic shutdown.
func (t *Task) Stopping() <-chan struct{} {
	if t == nil {
		return nil
	}
	return t.stop
}

// Delete terminates a task. Deleting the calling task does not return.
// Deleting another task signals it to stop, interrupts any DelayMS it is
// blocked in, and joins it; the entry must exit for Delete to complete.
// Deleting an already-deleted handle returns StatusInvalidID.
func (t *Task) Delete() error {
	if t == nil {
		assertFail(1, "task is nil")
		return StatusInvalidPointer
	}
	if t == currentTask() {
		t.deleted.Store(true)
		t.stopOnce.Do(func() { close(t.stop) })
		runtime.Goexit()
	}
	if t.deleted.Load() {
		assertFail(1, "task deleted twice")
		return StatusInvalidID
	}
	t.stopOnce.Do(func() { close(t.stop) })
	<-t.done
	t.deleted.Store(true)
	return nil
}

// TaskExit terminates the calling task as if its entry had returned. It is
// a no-op error for goroutines not created through CreateTask.
func TaskExit() error {
	t := currentTask()
	if t == nil {
		return StatusIncorrectObjState
	}
	runtime.Goexit()
	return nil
}

// DelayMS suspends the caller for at least the given number of
// milliseconds. When called from a task that is being deleted, the delay is
// a cancellation point: the task terminates instead of sleeping out the
// interval.
func DelayMS(ms uint32) error {
	d := time.Duration(ms) * time.Millisecond
	t := currentTask()
	if t == nil {
		time.Sleep(d)
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-t.stop:
		runtime.Goexit()
	}
	return nil
}
