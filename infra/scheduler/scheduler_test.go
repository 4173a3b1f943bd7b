package scheduler

import (
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler() *timerScheduler {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestScheduleFiresOnce(t *testing.T) {
	s := newTestScheduler()
	defer s.Shutdown()

	var fired atomic.Int32
	_, err := s.Schedule("start", time.Now().Add(20*time.Millisecond), func() {
		fired.Add(1)
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return fired.Load() == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestScheduleInPast(t *testing.T) {
	s := newTestScheduler()
	defer s.Shutdown()

	_, err := s.Schedule("start", time.Now().Add(-time.Second), func() {})
	assert.ErrorIs(t, err, ErrInPast)

	_, err = s.Schedule("start", time.Now(), func() {})
	assert.ErrorIs(t, err, ErrInPast)
}

func TestCancelPreventsFiring(t *testing.T) {
	s := newTestScheduler()
	defer s.Shutdown()

	var fired atomic.Int32
	h, err := s.Schedule("evict", time.Now().Add(50*time.Millisecond), func() {
		fired.Add(1)
	})
	require.NoError(t, err)
	h.Cancel()

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestCancelAfterFireIsNoop(t *testing.T) {
	s := newTestScheduler()
	defer s.Shutdown()

	var fired atomic.Int32
	h, err := s.Schedule("end", time.Now().Add(10*time.Millisecond), func() {
		fired.Add(1)
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return fired.Load() == 1
	}, time.Second, 5*time.Millisecond)
	h.Cancel()
	assert.Equal(t, int32(1), fired.Load())
}

func TestShutdownCancelsPending(t *testing.T) {
	s := newTestScheduler()

	var fired atomic.Int32
	_, err := s.Schedule("end", time.Now().Add(50*time.Millisecond), func() {
		fired.Add(1)
	})
	require.NoError(t, err)

	s.Shutdown()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())

	_, err = s.Schedule("late", time.Now().Add(time.Second), func() {})
	assert.Error(t, err)
}

func TestIndependentActions(t *testing.T) {
	s := newTestScheduler()
	defer s.Shutdown()

	var fired atomic.Int32
	for i := 0; i < 5; i++ {
		_, err := s.Schedule("tick", time.Now().Add(10*time.Millisecond), func() {
			fired.Add(1)
		})
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		return fired.Load() == 5
	}, time.Second, 5*time.Millisecond)
}
