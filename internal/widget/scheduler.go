package widget

import (
	"sync"
	"time"
)

// Timer is a scheduled call that can be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealScheduler schedules with time.AfterFunc.
type RealScheduler struct{}

func (RealScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// debouncer runs the most recently triggered function once no trigger has
// arrived for delay.
type debouncer struct {
	mu    sync.Mutex
	sched Scheduler
	delay time.Duration
	timer Timer
	gen   uint64
}

func newDebouncer(sched Scheduler, delay time.Duration) *debouncer {
	return &debouncer{sched: sched, delay: delay}
}

// trigger schedules f, replacing any pending call. f receives the
// generation it was scheduled under so it can re-check current once it has
// taken its own locks.
func (d *debouncer) trigger(f func(gen uint64)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.sched.AfterFunc(d.delay, func() {
		// A timer that fired while being replaced must not run.
		d.mu.Lock()
		current := d.gen == gen
		if current {
			d.timer = nil
		}
		d.mu.Unlock()
		if current {
			f(gen)
		}
	})
}

// current reports whether gen is still the latest trigger and has not been
// stopped.
func (d *debouncer) current(gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gen == gen
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *debouncer) pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
