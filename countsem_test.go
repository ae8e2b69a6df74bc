package osal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountSemProducerConsumer(t *testing.T) {
	s, err := NewCountSem("items", 0, 3)
	require.NoError(t, err)
	defer s.Delete()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Give())
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, s.TimedWait(1000))
	}
	assert.Equal(t, uint32(0), s.GetCount())
	assert.ErrorIs(t, s.TimedWait(0), StatusSemTimeout, "fourth take of an empty semaphore must time out")
}

func TestCountSemPacedGives(t *testing.T) {
	s, err := NewCountSem("paced", 0, 3)
	require.NoError(t, err)
	defer s.Delete()

	go func() {
		for i := 0; i < 3; i++ {
			time.Sleep(50 * time.Millisecond)
			_ = s.Give()
		}
	}()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.TimedWait(1000), "take %d", i)
	}
	assert.Equal(t, uint32(0), s.GetCount())
}

func TestCountSemMaxEnforced(t *testing.T) {
	s, err := NewCountSem("bounded", 3, 3)
	require.NoError(t, err)
	defer s.Delete()

	assert.ErrorIs(t, s.Give(), StatusSemFailure, "give at max must fail")
	assert.Equal(t, uint32(3), s.GetCount(), "failed give must not change the count")
}

func TestCountSemUnbounded(t *testing.T) {
	s, err := NewCountSem("unbounded", 0, 0)
	require.NoError(t, err)
	defer s.Delete()

	for i := 0; i < 100; i++ {
		require.NoError(t, s.Give())
	}
	assert.Equal(t, uint32(100), s.GetCount())
}

func TestCountSemInvalidInitial(t *testing.T) {
	quietAsserts(t)
	_, err := NewCountSem("bad", 4, 3)
	assert.ErrorIs(t, err, StatusInvalidSemValue)
}

func TestCountSemGetCountAfterDelete(t *testing.T) {
	s, err := NewCountSem("gone", 2, 3)
	require.NoError(t, err)
	require.NoError(t, s.Delete())

	assert.Equal(t, uint32(0), s.GetCount(), "destroyed handle reports 0, not an error")
}

func TestCountSemISRVariants(t *testing.T) {
	s, err := NewCountSem("isr", 0, 1)
	require.NoError(t, err)
	defer s.Delete()

	assert.ErrorIs(t, s.GiveFromISR(), StatusNotImplemented)
	assert.ErrorIs(t, s.TakeFromISR(), StatusNotImplemented)
}

func TestCountSemWakePropagation(t *testing.T) {
	s, err := NewCountSem("fanout", 0, 0)
	require.NoError(t, err)
	defer s.Delete()

	const waiters = 4
	done := make(chan error, waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			done <- s.TimedWait(2000)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	for i := 0; i < waiters; i++ {
		require.NoError(t, s.Give())
	}
	for i := 0; i < waiters; i++ {
		select {
		case err := <-done:
			assert.NoError(t, err, "waiter %d", i)
		case <-time.After(3 * time.Second):
			t.Fatal("a waiter was never woken")
		}
	}
	assert.Equal(t, uint32(0), s.GetCount())
}
