package watch

import (
	"sync"
	"time"
)

// Debouncer collects rapid events and fires the latest callback only after
// a quiet period.
type Debouncer struct {
	mu       sync.Mutex
	interval time.Duration
	timer    *time.Timer
	callback func()
	stopped  bool
}

// NewDebouncer creates a new debouncer.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// SetInterval changes the quiet period for later triggers.
func (d *Debouncer) SetInterval(interval time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.interval = interval
}

// Trigger schedules callback after the quiet period, replacing any pending
// callback.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.callback = callback
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	cb := d.callback
	d.callback = nil
	stopped := d.stopped
	d.mu.Unlock()

	if cb != nil && !stopped {
		cb()
	}
}

// Stop cancels any pending callback. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.callback = nil
}
