package runtime

import (
	"sync"
	"time"
)

type timeoutMonitorConfig struct {
	wait         time.Duration
	cleanup      func()
	afterTimeout func()
}

// timeoutMonitor is the per-socket inactivity watchdog. Every Call disarms
// the pending timer, runs the task, then re-arms. If the timer fires first the
// cleanup runs once and the monitor goes permanently quiet: later calls only
// trigger the after-timeout side effect.
type timeoutMonitor struct {
	cfg timeoutMonitorConfig

	mu       sync.Mutex
	timer    *time.Timer
	timedOut bool
	stopped  bool
}

func newTimeoutMonitor(cfg timeoutMonitorConfig) *timeoutMonitor {
	return &timeoutMonitor{cfg: cfg}
}

func (m *timeoutMonitor) Call(task func()) {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	if m.timedOut {
		m.mu.Unlock()
		if m.cfg.afterTimeout != nil {
			m.cfg.afterTimeout()
		}
		return
	}
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.mu.Unlock()

	task()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped || m.timedOut {
		return
	}
	m.timer = time.AfterFunc(m.cfg.wait, m.fire)
}

func (m *timeoutMonitor) fire() {
	m.mu.Lock()
	if m.stopped || m.timedOut {
		m.mu.Unlock()
		return
	}
	m.timedOut = true
	m.timer = nil
	m.mu.Unlock()

	m.cfg.cleanup()
}

// Stop disarms the watchdog without running the cleanup.
func (m *timeoutMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}
