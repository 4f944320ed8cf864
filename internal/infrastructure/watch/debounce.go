// Package watch republishes external edits to the mission-type configs
// directory as domain events.
package watch

import (
	"sync"
	"time"
)

// changeDebouncer coalesces a burst of filesystem events into a single
// notification. Each Record overwrites the pending path and operation, so
// the notification carries only the most recent change of the burst.
type changeDebouncer struct {
	window time.Duration
	notify func(path, op string)

	mu    sync.Mutex
	timer *time.Timer
	path  string
	op    string
}

func newChangeDebouncer(window time.Duration, notify func(path, op string)) *changeDebouncer {
	return &changeDebouncer{window: window, notify: notify}
}

// Record notes a change and restarts the quiet-period timer. The
// notification fires once the window elapses with no further records.
func (d *changeDebouncer) Record(path, op string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.path, d.op = path, op
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

func (d *changeDebouncer) fire() {
	d.mu.Lock()
	path, op := d.path, d.op
	d.mu.Unlock()

	d.notify(path, op)
}

// Stop cancels any pending notification.
func (d *changeDebouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
}
