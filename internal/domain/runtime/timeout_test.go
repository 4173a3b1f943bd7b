package runtime

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeoutMonitorRearmsOnActivity(t *testing.T) {
	var cleanups atomic.Int32
	m := newTimeoutMonitor(timeoutMonitorConfig{
		wait:    60 * time.Millisecond,
		cleanup: func() { cleanups.Add(1) },
	})
	defer m.Stop()

	// Keep calling inside the window; the cleanup must stay disarmed.
	for i := 0; i < 5; i++ {
		m.Call(func() {})
		time.Sleep(20 * time.Millisecond)
	}
	assert.Equal(t, int32(0), cleanups.Load())

	require.Eventually(t, func() bool {
		return cleanups.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestTimeoutMonitorDropsCallsAfterTimeout(t *testing.T) {
	var cleanups, dropped, ran atomic.Int32
	m := newTimeoutMonitor(timeoutMonitorConfig{
		wait:         20 * time.Millisecond,
		cleanup:      func() { cleanups.Add(1) },
		afterTimeout: func() { dropped.Add(1) },
	})
	defer m.Stop()

	m.Call(func() { ran.Add(1) })
	require.Eventually(t, func() bool {
		return cleanups.Load() == 1
	}, time.Second, 5*time.Millisecond)

	m.Call(func() { ran.Add(1) })
	m.Call(func() { ran.Add(1) })

	assert.Equal(t, int32(1), ran.Load(), "tasks after timeout must not run")
	assert.Equal(t, int32(2), dropped.Load())
	assert.Equal(t, int32(1), cleanups.Load(), "cleanup fires exactly once")
}

func TestTimeoutMonitorStopSkipsCleanup(t *testing.T) {
	var cleanups atomic.Int32
	m := newTimeoutMonitor(timeoutMonitorConfig{
		wait:    20 * time.Millisecond,
		cleanup: func() { cleanups.Add(1) },
	})

	m.Call(func() {})
	m.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), cleanups.Load())

	m.Call(func() {})
	assert.Equal(t, int32(0), cleanups.Load())
}
