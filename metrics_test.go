package osal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsQueueCounters(t *testing.T) {
	m := DefaultMetrics()
	base := m.Snapshot()

	q, err := NewQueue("metered", 2, 4)
	require.NoError(t, err)
	defer q.Delete()

	require.NoError(t, q.Send([]byte{1, 0, 0, 0}, 0))
	buf := make([]byte, 4)
	require.NoError(t, q.Receive(buf, 0))
	assert.ErrorIs(t, q.Receive(buf, 20), StatusQueueTimeout)

	s := m.Snapshot()
	assert.Equal(t, base.QueueSends+1, s.QueueSends)
	assert.Equal(t, base.QueueReceives+1, s.QueueReceives)
	assert.Equal(t, base.QueueReceiveTimeouts+1, s.QueueReceiveTimeouts)
	assert.Equal(t, base.QueuesCreated+1, s.QueuesCreated)
}

func TestMetricsSemCounters(t *testing.T) {
	m := DefaultMetrics()
	base := m.Snapshot()

	s, err := NewCountSem("metered", 0, 2)
	require.NoError(t, err)
	defer s.Delete()

	require.NoError(t, s.Give())
	require.NoError(t, s.TimedWait(0))
	assert.ErrorIs(t, s.TimedWait(20), StatusSemTimeout)

	snap := m.Snapshot()
	assert.Equal(t, base.SemGives+1, snap.SemGives)
	assert.Equal(t, base.SemTakes+1, snap.SemTakes)
	assert.Equal(t, base.SemTimeouts+1, snap.SemTimeouts)
}

func TestMetricsReset(t *testing.T) {
	m := newMetrics()
	m.QueueSends.Add(5)
	m.TimerFires.Add(2)

	m.Reset()
	s := m.Snapshot()
	assert.Zero(t, s.QueueSends)
	assert.Zero(t, s.TimerFires)
}

func TestMetricsTasksRunning(t *testing.T) {
	m := newMetrics()
	m.TasksCreated.Add(3)
	m.TasksExited.Add(1)
	assert.Equal(t, uint64(2), m.Snapshot().TasksRunning)
}
