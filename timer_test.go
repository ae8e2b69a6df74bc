package osal

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForFires(t *testing.T, rec *TimerRecorder, want int, within time.Duration) {
	t.Helper()
	deadline := time.Now().Add(within)
	for time.Now().Before(deadline) {
		if rec.Count() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timer fired %d times, want at least %d within %v", rec.Count(), want, within)
}

func TestTimerOneShot(t *testing.T) {
	type ctx struct{ fired bool }
	userCtx := &ctx{}
	rec := NewTimerRecorder()

	start := TimeMS()
	tm, err := NewTimer("oneshot", 200, false, rec.Callback(), TimerConfig{Context: userCtx})
	require.NoError(t, err)
	defer tm.Delete(100)

	require.NoError(t, tm.Start(100))
	waitForFires(t, rec, 1, 2*time.Second)

	elapsed := rec.Times()[0] - start
	assert.GreaterOrEqual(t, elapsed, uint32(140), "fired too early")
	assert.LessOrEqual(t, elapsed, uint32(300), "fired too late")
	assert.Same(t, userCtx, rec.Contexts()[0], "callback observed the wrong context")

	// One-shot: no second fire, dormant afterward.
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 1, rec.Count(), "one-shot fired more than once")
	assert.False(t, tm.IsActive())
}

func TestTimerAutoReload(t *testing.T) {
	rec := NewTimerRecorder()
	tm, err := NewTimer("periodic", 100, true, rec.Callback(), TimerConfig{})
	require.NoError(t, err)
	defer tm.Delete(100)

	require.NoError(t, tm.Start(100))
	waitForFires(t, rec, 3, 2*time.Second)
	require.NoError(t, tm.Stop(100))

	times := rec.Times()
	for i := 1; i < 3; i++ {
		gap := times[i] - times[i-1]
		assert.GreaterOrEqual(t, gap, uint32(40), "inter-arrival %d too short", i)
		assert.LessOrEqual(t, gap, uint32(200), "inter-arrival %d too long", i)
	}
	assert.True(t, len(times) >= 3)
}

func TestTimerChangePeriod(t *testing.T) {
	rec := NewTimerRecorder()
	tm, err := NewTimer("tunable", 100, true, rec.Callback(), TimerConfig{})
	require.NoError(t, err)
	defer tm.Delete(100)

	require.NoError(t, tm.Start(100))
	waitForFires(t, rec, 2, 2*time.Second)

	require.NoError(t, tm.ChangePeriod(200, 100))
	before := rec.Count()
	waitForFires(t, rec, before+2, 2*time.Second)
	require.NoError(t, tm.Stop(100))

	times := rec.Times()
	// The last observed interval ran at the new period.
	gap := times[before+1] - times[before]
	assert.GreaterOrEqual(t, gap, uint32(140), "interval did not stretch to the new period")
	assert.LessOrEqual(t, gap, uint32(300))
}

func TestTimerReset(t *testing.T) {
	rec := NewTimerRecorder()
	tm, err := NewTimer("resettable", 200, false, rec.Callback(), TimerConfig{})
	require.NoError(t, err)
	defer tm.Delete(100)

	require.NoError(t, tm.Start(100))
	time.Sleep(100 * time.Millisecond)

	resetAt := TimeMS()
	require.NoError(t, tm.Reset(100))
	waitForFires(t, rec, 1, 2*time.Second)

	elapsed := rec.Times()[0] - resetAt
	assert.GreaterOrEqual(t, elapsed, uint32(140), "reset did not restart the interval")
	assert.LessOrEqual(t, elapsed, uint32(300))
}

func TestTimerStartWhileActiveIsNoOp(t *testing.T) {
	rec := NewTimerRecorder()
	tm, err := NewTimer("running", 200, false, rec.Callback(), TimerConfig{})
	require.NoError(t, err)
	defer tm.Delete(100)

	start := TimeMS()
	require.NoError(t, tm.Start(100))
	time.Sleep(120 * time.Millisecond)
	require.NoError(t, tm.Start(100), "start on an active timer is a no-op success")

	waitForFires(t, rec, 1, 2*time.Second)
	elapsed := rec.Times()[0] - start
	assert.LessOrEqual(t, elapsed, uint32(300), "second start restarted the running interval")
}

func TestTimerStop(t *testing.T) {
	rec := NewTimerRecorder()
	tm, err := NewTimer("stoppable", 100, false, rec.Callback(), TimerConfig{})
	require.NoError(t, err)
	defer tm.Delete(100)

	require.NoError(t, tm.Start(100))
	assert.True(t, tm.IsActive())
	require.NoError(t, tm.Stop(100))
	assert.False(t, tm.IsActive())

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 0, rec.Count(), "stopped timer fired anyway")
}

func TestTimerContext(t *testing.T) {
	tm, err := NewTimer("ctx", 1000, false, func(*Timer) {}, TimerConfig{Context: "first"})
	require.NoError(t, err)
	defer tm.Delete(100)

	assert.Equal(t, "first", tm.Context())
	require.NoError(t, tm.SetContext("second"))
	assert.Equal(t, "second", tm.Context())
}

func TestTimerCallbackMayCommandItself(t *testing.T) {
	var fires atomic.Uint32
	ready := make(chan struct{})

	cb := func(self *Timer) {
		if fires.Add(1) == 1 {
			// Re-arm from inside the callback: must not deadlock.
			_ = self.Reset(100)
		} else {
			_ = self.Stop(100)
			close(ready)
		}
	}

	tm, err := NewTimer("reentrant", 50, false, cb, TimerConfig{})
	require.NoError(t, err)
	defer tm.Delete(100)

	require.NoError(t, tm.Start(100))
	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("callback-driven reset deadlocked or never refired")
	}
	assert.Equal(t, uint32(2), fires.Load())
}

func TestTimerConcurrentCommands(t *testing.T) {
	rec := NewTimerRecorder()
	tm, err := NewTimer("hammered", 20, true, rec.Callback(), TimerConfig{})
	require.NoError(t, err)

	require.NoError(t, tm.Start(100))
	stop := make(chan struct{})
	go func() {
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			switch i % 4 {
			case 0:
				_ = tm.Reset(100)
			case 1:
				_ = tm.ChangePeriod(uint32(10+i%30), 100)
			case 2:
				_ = tm.Stop(100)
			case 3:
				_ = tm.Start(100)
			}
			time.Sleep(time.Millisecond)
		}
	}()

	time.Sleep(500 * time.Millisecond)
	close(stop)

	// The final command wins: stop, then confirm dormancy.
	require.NoError(t, tm.Stop(100))
	assert.False(t, tm.IsActive())
	require.NoError(t, tm.Delete(100))
}

func TestTimerCreateGuards(t *testing.T) {
	quietAsserts(t)

	_, err := NewTimer("zero_period", 0, false, func(*Timer) {}, TimerConfig{})
	assert.ErrorIs(t, err, StatusTimerInvalidArgs)

	_, err = NewTimer("nil_callback", 100, false, nil, TimerConfig{})
	assert.ErrorIs(t, err, StatusInvalidPointer)

	tm, err := NewTimer("zero_change", 100, false, func(*Timer) {}, TimerConfig{})
	require.NoError(t, err)
	defer tm.Delete(100)
	assert.ErrorIs(t, tm.ChangePeriod(0, 100), StatusTimerInvalidArgs)
}

func TestTimerStaticBuffer(t *testing.T) {
	quietAsserts(t)

	_, err := NewTimer("small_buf", 100, false, func(*Timer) {},
		TimerConfig{StaticBuf: make([]byte, 8)})
	assert.ErrorIs(t, err, StatusInvalidSize)

	buf := make([]byte, TimerControlSize)
	tm, err := NewTimer("static", 100, false, func(*Timer) {}, TimerConfig{StaticBuf: buf})
	require.NoError(t, err)
	require.NoError(t, tm.Delete(100))
}

func TestTimerISRVariants(t *testing.T) {
	tm, err := NewTimer("isr", 100, false, func(*Timer) {}, TimerConfig{})
	require.NoError(t, err)
	defer tm.Delete(100)

	assert.ErrorIs(t, tm.StartFromISR(), StatusNotImplemented)
	assert.ErrorIs(t, tm.StopFromISR(), StatusNotImplemented)
	assert.ErrorIs(t, tm.ResetFromISR(), StatusNotImplemented)
}

func TestTimerDeleteJoinsWorker(t *testing.T) {
	rec := NewTimerRecorder()
	tm, err := NewTimer("joined", 30, true, rec.Callback(), TimerConfig{})
	require.NoError(t, err)
	require.NoError(t, tm.Start(100))
	waitForFires(t, rec, 2, 2*time.Second)

	require.NoError(t, tm.Delete(100))
	after := rec.Count()
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, after, rec.Count(), "worker kept firing after delete")

	assert.ErrorIs(t, tm.Start(100), StatusTimerIDErr, "commands on a deleted timer must fail")
	assert.ErrorIs(t, tm.Delete(100), StatusTimerIDErr)
}
