package debounce

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		QuietPeriod: 50 * time.Millisecond,
		MaxStack:    5,
		MaxWait:     200 * time.Millisecond,
	}
}

type recorder struct {
	mu      sync.Mutex
	batches [][]rune
	stamps  []time.Time
}

func (r *recorder) proc(batch []rune) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, batch)
	r.stamps = append(r.stamps, time.Now())
}

func (r *recorder) snapshot() [][]rune {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]rune, len(r.batches))
	copy(out, r.batches)
	return out
}

func TestQuietPeriodCoalesces(t *testing.T) {
	rec := &recorder{}
	d := New[rune](testConfig())
	defer d.Shutdown()

	for _, c := range "abc" {
		d.Call(c, rec.proc)
	}

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []rune("abc"), rec.snapshot()[0])
}

func TestMaxStackReleasesImmediately(t *testing.T) {
	rec := &recorder{}
	d := New[rune](testConfig())
	defer d.Shutdown()

	start := time.Now()
	for _, c := range "abcde" { // exactly MaxStack
		d.Call(c, rec.proc)
	}

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, time.Second, time.Millisecond)
	assert.Less(t, time.Since(start), 40*time.Millisecond,
		"a full stack must release without waiting out the quiet period")
	assert.Equal(t, []rune("abcde"), rec.snapshot()[0])
}

func TestMaxWaitBoundsStarvation(t *testing.T) {
	rec := &recorder{}
	d := New[rune](testConfig())
	defer d.Shutdown()

	// Keep re-arming the quiet period; MaxWait must force a release anyway.
	deadline := time.Now().Add(350 * time.Millisecond)
	for time.Now().Before(deadline) {
		d.Call('x', rec.proc)
		time.Sleep(20 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) >= 1
	}, time.Second, 10*time.Millisecond)
	rec.mu.Lock()
	first := rec.stamps[0]
	rec.mu.Unlock()
	assert.WithinDuration(t, deadline.Add(-350*time.Millisecond).Add(200*time.Millisecond), first, 120*time.Millisecond)
}

func TestLatestProcessorWins(t *testing.T) {
	var old, latest atomic.Int32
	d := New[rune](testConfig())
	defer d.Shutdown()

	d.Call('a', func(batch []rune) { old.Add(1) })
	d.Call('b', func(batch []rune) { latest.Add(int32(len(batch))) })

	require.Eventually(t, func() bool {
		return latest.Load() == 2
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(0), old.Load(), "superseded processor must never run")
}

func TestInputDuringProcessingOpensNextCycle(t *testing.T) {
	d := New[rune](testConfig())
	defer d.Shutdown()

	processing := make(chan struct{})
	release := make(chan struct{})
	var second atomic.Int32

	d.Call('a', func([]rune) {
		close(processing)
		<-release
	})

	<-processing
	// The worker is blocked inside the first release; these stay pending.
	d.Call('b', func(batch []rune) { second.Add(int32(len(batch))) })
	d.Call('c', func(batch []rune) { second.Add(int32(len(batch))) })
	close(release)

	require.Eventually(t, func() bool {
		return second.Load() == 2
	}, time.Second, 10*time.Millisecond)
}

func TestShutdownFlushesPending(t *testing.T) {
	rec := &recorder{}
	d := New[rune](Config{QuietPeriod: time.Hour, MaxStack: 1000, MaxWait: time.Hour})

	d.Call('a', rec.proc)
	d.Call('b', rec.proc)
	d.Shutdown()

	require.Len(t, rec.snapshot(), 1)
	assert.Equal(t, []rune("ab"), rec.snapshot()[0])

	// Calls after shutdown are dropped, and Shutdown stays reentrant.
	d.Call('z', rec.proc)
	d.Shutdown()
	assert.Len(t, rec.snapshot(), 1)
}

func TestTriggerCoalesces(t *testing.T) {
	var fired atomic.Int32
	tr := NewTrigger(func() { fired.Add(1) }, Config{
		QuietPeriod: 50 * time.Millisecond,
		MaxStack:    20,
		MaxWait:     3 * time.Second,
	})
	defer tr.Shutdown()

	first := time.Now()
	for i := 0; i < 5; i++ {
		tr.Trigger()
		time.Sleep(5 * time.Millisecond)
	}

	// Exactly one release, roughly a quiet period after the last trigger and
	// well inside [first, first+MaxWait].
	require.Eventually(t, func() bool {
		return fired.Load() == 1
	}, time.Second, 5*time.Millisecond)
	assert.Less(t, time.Since(first), 3*time.Second)

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load(), "quiescence must not produce extra releases")
}

func TestTriggerSteadyStreamReleasesEveryMaxWait(t *testing.T) {
	var fired atomic.Int32
	tr := NewTrigger(func() { fired.Add(1) }, Config{
		QuietPeriod: 60 * time.Millisecond,
		MaxStack:    1000,
		MaxWait:     150 * time.Millisecond,
	})
	defer tr.Shutdown()

	// Trigger every 40ms for ~600ms: the quiet period never elapses, so only
	// MaxWait paces releases; expect one per 150ms window, about four total.
	deadline := time.Now().Add(600 * time.Millisecond)
	for time.Now().Before(deadline) {
		tr.Trigger()
		time.Sleep(40 * time.Millisecond)
	}
	time.Sleep(200 * time.Millisecond)

	got := fired.Load()
	assert.GreaterOrEqual(t, got, int32(3))
	assert.LessOrEqual(t, got, int32(6))
}
