package watch

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// debouncer collapses a burst of notifications for one key into a single
// call that runs once the settle window has elapsed.
type debouncer struct {
	clock  clock.Clock
	window time.Duration

	mu      sync.Mutex
	pending map[string]*clock.Timer
	stopped bool
}

func newDebouncer(clk clock.Clock, window time.Duration) *debouncer {
	return &debouncer{
		clock:   clk,
		window:  window,
		pending: make(map[string]*clock.Timer),
	}
}

// schedule arranges for fn to run after the settle window. It returns false
// without scheduling when a call for key is already pending or the
// debouncer has been stopped.
func (d *debouncer) schedule(key string, fn func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return false
	}
	if _, ok := d.pending[key]; ok {
		return false
	}
	d.pending[key] = d.clock.AfterFunc(d.window, func() {
		d.mu.Lock()
		delete(d.pending, key)
		stopped := d.stopped
		d.mu.Unlock()
		if !stopped {
			fn()
		}
	})
	return true
}

// stop cancels pending calls and rejects new ones.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for key, t := range d.pending {
		t.Stop()
		delete(d.pending, key)
	}
}

func (d *debouncer) len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
