// Package debounce implements the coalescing discipline shared by the typing
// ingestion path and the room fan-out path: a quiet period after the most
// recent input, an immediate release once enough inputs stack up, and an
// absolute cap on the time between releases so a steady trickle can never
// starve delivery.
//
// A dedicated worker goroutine owns all pending state, in the manner of the
// registry cell actors: callers only ever touch a channel. The processor runs
// on the worker, so releases never overlap; inputs arriving while a batch is
// being processed stay queued and open the next cycle with the most recent
// processor reference.
package debounce

import (
	"sync"
	"time"
)

// Config carries the three bounds. Zero fields fall back to the package
// defaults, which match the room fan-out profile.
type Config struct {
	// QuietPeriod is how long the input stream must stay silent before the
	// pending batch is released.
	QuietPeriod time.Duration
	// MaxStack releases the batch immediately once this many inputs are pending.
	MaxStack int
	// MaxWait caps the interval between releases, measured from the previous
	// release's completion.
	MaxWait time.Duration
}

const (
	defaultQuietPeriod = time.Second
	defaultMaxStack    = 20
	defaultMaxWait     = 3 * time.Second
)

func (c Config) withDefaults() Config {
	if c.QuietPeriod <= 0 {
		c.QuietPeriod = defaultQuietPeriod
	}
	if c.MaxStack <= 0 {
		c.MaxStack = defaultMaxStack
	}
	if c.MaxWait <= 0 {
		c.MaxWait = defaultMaxWait
	}
	return c
}

type call[T any] struct {
	value T
	proc  func([]T)
}

// Debouncer coalesces values of type T into batched processor invocations.
type Debouncer[T any] struct {
	in       chan call[T]
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// New starts the worker goroutine. The debouncer must be released with
// Shutdown once its owner goes away.
func New[T any](cfg Config) *Debouncer[T] {
	d := &Debouncer[T]{
		in:   make(chan call[T], 256),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go d.loop(cfg.withDefaults())
	return d
}

// Call appends value to the pending batch. proc supersedes any previously
// supplied processor: whichever reference accompanied the newest input is the
// one invoked on release. Safe for concurrent use; values handed in after
// Shutdown are never processed.
func (d *Debouncer[T]) Call(value T, proc func([]T)) {
	select {
	case d.in <- call[T]{value: value, proc: proc}:
	case <-d.done:
	}
}

// Shutdown drains whatever is pending through one final release and stops the
// worker. It blocks until the worker has exited and is safe to call more than
// once.
func (d *Debouncer[T]) Shutdown() {
	d.stopOnce.Do(func() { close(d.stop) })
	<-d.done
}

func (d *Debouncer[T]) loop(cfg Config) {
	defer close(d.done)

	var (
		pending   []T
		proc      func([]T)
		lastInput time.Time
	)
	lastRelease := time.Now()

	release := func() {
		if len(pending) == 0 || proc == nil {
			return
		}
		batch := pending
		pending = nil
		proc(batch)
		lastRelease = time.Now()
	}

	absorb := func(c call[T]) {
		pending = append(pending, c.value)
		proc = c.proc
		lastInput = time.Now()
		if len(pending) >= cfg.MaxStack || time.Since(lastRelease) >= cfg.MaxWait {
			release()
		}
	}

	drain := func() {
		for {
			select {
			case c := <-d.in:
				pending = append(pending, c.value)
				proc = c.proc
			default:
				return
			}
		}
	}

	for {
		if len(pending) == 0 {
			select {
			case c := <-d.in:
				absorb(c)
			case <-d.stop:
				drain()
				release()
				return
			}
			continue
		}

		// Release at whichever bound lands first: quiet period after the
		// newest input, or the hard cap since the previous release.
		deadline := lastInput.Add(cfg.QuietPeriod)
		if hardCap := lastRelease.Add(cfg.MaxWait); hardCap.Before(deadline) {
			deadline = hardCap
		}
		timer := time.NewTimer(time.Until(deadline))
		select {
		case c := <-d.in:
			timer.Stop()
			absorb(c)
		case <-timer.C:
			release()
		case <-d.stop:
			timer.Stop()
			drain()
			release()
			return
		}
	}
}

// Trigger is the argument-free face of the debouncer used for room fan-out:
// callers only signal that something changed, and the action rebuilds state
// from scratch on release.
type Trigger struct {
	d      *Debouncer[struct{}]
	action func()
}

func NewTrigger(action func(), cfg Config) *Trigger {
	t := &Trigger{action: action}
	t.d = New[struct{}](cfg)
	return t
}

func (t *Trigger) Trigger() {
	t.d.Call(struct{}{}, func([]struct{}) { t.action() })
}

func (t *Trigger) Shutdown() {
	t.d.Shutdown()
}
