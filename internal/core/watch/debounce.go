package watch

import (
	"strings"
	"sync"
	"time"
)

// Debouncer coalesces rapid event bursts per path: each Push (re)arms that
// path's timer, and the action fires only after the path has been quiet for
// the full delay. Timers are independent across paths.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	timers  map[string]*time.Timer
	onFire  func(path string)
	stopped bool
}

func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = time.Second
	}
	return &Debouncer{
		delay:  delay,
		timers: map[string]*time.Timer{},
	}
}

func (d *Debouncer) OnFire(fn func(path string)) {
	if d == nil {
		return
	}
	d.mu.Lock()
	d.onFire = fn
	d.mu.Unlock()
}

// Push schedules (or reschedules) the path's action after the quiescence
// window. A repeated Push for the same path cancels the pending timer, so
// bursts collapse to a single firing.
func (d *Debouncer) Push(path string) {
	if d == nil {
		return
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	if t, ok := d.timers[path]; ok {
		_ = t.Stop()
	}
	d.timers[path] = time.AfterFunc(d.delay, func() { d.fire(path) })
}

func (d *Debouncer) fire(path string) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	delete(d.timers, path)
	fn := d.onFire
	d.mu.Unlock()

	if fn != nil {
		fn(path)
	}
}

// Pending reports the number of armed timers.
func (d *Debouncer) Pending() int {
	if d == nil {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}

// CancelAll stops every pending timer and refuses further pushes.
func (d *Debouncer) CancelAll() {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	for path, t := range d.timers {
		_ = t.Stop()
		delete(d.timers, path)
	}
}
