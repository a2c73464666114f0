package watch

import (
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/neonizer/KCD2-Modlist-Cleaner/internal/metrics"
)

// Defaults used by New.
const (
	DefaultSettle        = time.Second
	DefaultPollInterval  = 200 * time.Millisecond
	DefaultStableTimeout = 5 * time.Second
	DefaultWorkers       = 2
	DefaultQueueSize     = 64
)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithExtension sets the save file extension. Defaults to ".whs".
func WithExtension(ext string) Option {
	return func(c *Coordinator) {
		c.sweepOpts.Extension = ext
	}
}

// WithWatchWrites reacts to write notifications as well as creates.
// Games that rewrite an existing save slot need this.
func WithWatchWrites(watch bool) Option {
	return func(c *Coordinator) {
		c.watchWrites = watch
	}
}

// WithSwitch injects the pause switch shared with the caller.
func WithSwitch(s *Switch) Option {
	return func(c *Coordinator) {
		c.paused = s
	}
}

// WithClock sets the clock used for debouncing and stability polling.
func WithClock(clk clock.Clock) Option {
	return func(c *Coordinator) {
		c.clock = clk
	}
}

// WithSettle sets how long a burst of notifications for one path is
// collapsed before a patch is attempted.
func WithSettle(d time.Duration) Option {
	return func(c *Coordinator) {
		c.settle = d
	}
}

// WithStability sets how often and for how long the coordinator polls for
// exclusive access before giving up on a save.
func WithStability(interval, timeout time.Duration) Option {
	return func(c *Coordinator) {
		c.pollInterval = interval
		c.stableTimeout = timeout
	}
}

// WithWorkers sets the number of concurrent patch workers.
func WithWorkers(n int) Option {
	return func(c *Coordinator) {
		c.workers = n
	}
}

// WithQueueSize bounds the number of paths waiting for a worker.
// Notifications beyond the bound are dropped.
func WithQueueSize(n int) Option {
	return func(c *Coordinator) {
		c.queueSize = n
	}
}

// WithSlotGlob restricts sweeps to saves inside matching subdirectories.
func WithSlotGlob(glob string) Option {
	return func(c *Coordinator) {
		c.sweepOpts.SlotGlob = glob
	}
}

// WithSweepOnEvent sweeps the whole tree on every notification instead of
// patching only the notified save.
func WithSweepOnEvent(sweep bool) Option {
	return func(c *Coordinator) {
		c.sweepOnEvent = sweep
	}
}

// WithLogger sets the logger. If nil, a discard logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithMetrics records event handling into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// withProbe replaces the exclusive-access probe in tests.
func withProbe(p probeFunc) Option {
	return func(c *Coordinator) {
		c.probe = p
	}
}
