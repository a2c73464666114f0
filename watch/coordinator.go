package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	cleaner "github.com/neonizer/KCD2-Modlist-Cleaner"
	"github.com/neonizer/KCD2-Modlist-Cleaner/internal/fileops"
	"github.com/neonizer/KCD2-Modlist-Cleaner/internal/metrics"
)

// Coordinator turns filesystem notifications under a root directory into
// patch attempts.
type Coordinator struct {
	patcher Patcher
	root    string

	watchWrites   bool
	sweepOnEvent  bool
	sweepOpts     SweepOptions
	paused        *Switch
	clock         clock.Clock
	probe         probeFunc
	settle        time.Duration
	pollInterval  time.Duration
	stableTimeout time.Duration
	workers       int
	queueSize     int
	logger        *slog.Logger
	metrics       *metrics.Metrics

	debounce *debouncer
	queue    chan string
	sweeps   singleflight.Group

	mu       sync.Mutex
	inflight map[string]struct{} // queued or running
}

// New creates a coordinator that patches saves below root with p.
func New(p Patcher, root string, opts ...Option) (*Coordinator, error) {
	if p == nil {
		return nil, errors.New("watch: patcher is nil")
	}
	if root == "" {
		return nil, errors.New("watch: root is empty")
	}
	c := &Coordinator{
		patcher:       p,
		root:          filepath.Clean(root),
		sweepOpts:     SweepOptions{Extension: DefaultExtension},
		clock:         clock.New(),
		probe:         fileops.TryExclusive,
		settle:        DefaultSettle,
		pollInterval:  DefaultPollInterval,
		stableTimeout: DefaultStableTimeout,
		workers:       DefaultWorkers,
		queueSize:     DefaultQueueSize,
		inflight:      make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.paused == nil {
		c.paused = NewSwitch(false)
	}
	if c.sweepOpts.Extension == "" {
		c.sweepOpts.Extension = DefaultExtension
	}
	if c.settle <= 0 || c.pollInterval <= 0 || c.stableTimeout <= 0 {
		return nil, errors.New("watch: settle, poll interval and stable timeout must be positive")
	}
	if c.workers < 1 {
		return nil, errors.New("watch: workers must be >= 1")
	}
	if c.queueSize < 1 {
		return nil, errors.New("watch: queue size must be >= 1")
	}
	c.sweepOpts.Logger = c.log()
	c.debounce = newDebouncer(c.clock, c.settle)
	c.queue = make(chan string, c.queueSize)
	return c, nil
}

// log returns the logger, falling back to a discard logger if nil.
func (c *Coordinator) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// Root returns the watched directory.
func (c *Coordinator) Root() string {
	return c.root
}

// Switch returns the pause switch.
func (c *Coordinator) Switch() *Switch {
	return c.paused
}

// Run watches the root until ctx is cancelled. Patches already running are
// allowed to finish; Run returns nil after a cancellation and an error if
// the watcher itself fails. Run must not be called more than once.
func (c *Coordinator) Run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	if err := c.addTree(w, c.root); err != nil {
		return fmt.Errorf("watch %s: %w", c.root, err)
	}
	c.log().Info("watching saves",
		"root", c.root,
		"extension", c.sweepOpts.Extension,
		"watch_writes", c.watchWrites,
		"workers", c.workers,
	)

	g, gctx := errgroup.WithContext(ctx)
	for range c.workers {
		g.Go(func() error {
			c.work(gctx)
			return nil
		})
	}
	g.Go(func() error {
		return c.loop(gctx, w)
	})
	err = g.Wait()
	c.debounce.stop()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// Sweep patches every existing save below the root. Concurrent calls share
// one sweep. Saves the watcher is currently handling are skipped.
func (c *Coordinator) Sweep(ctx context.Context) (SweepReport, error) {
	v, err, _ := c.sweeps.Do("sweep", func() (any, error) {
		return Sweep(ctx, claimingPatcher{c}, c.root, c.sweepOpts)
	})
	report, _ := v.(SweepReport) //nolint:errcheck // type is fixed by the closure above
	return report, err
}

// loop reads notifications until ctx is done or the watcher closes.
func (c *Coordinator) loop(ctx context.Context, w *fsnotify.Watcher) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return errors.New("watch: event stream closed")
			}
			c.handle(w, ev)
		case err, ok := <-w.Errors:
			if !ok {
				return errors.New("watch: error stream closed")
			}
			// Overflows and similar are not fatal; later events still arrive.
			c.log().Warn("watcher error", "error", err)
		}
	}
}

func (c *Coordinator) handle(w *fsnotify.Watcher, ev fsnotify.Event) {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			c.addDir(w, ev.Name)
			return
		}
	}
	if !c.relevant(ev) {
		return
	}
	if c.paused.Paused() {
		c.metrics.ObserveEvent(metrics.EventPaused)
		return
	}
	c.schedule(ev.Name)
}

// relevant reports whether ev is a create (or write, when enabled) of a save.
func (c *Coordinator) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !(c.watchWrites && ev.Has(fsnotify.Write)) {
		return false
	}
	return isSave(ev.Name, c.sweepOpts.Extension)
}

// addDir starts watching a directory that appeared after Run started and
// schedules saves that were written into it before the watch was added.
func (c *Coordinator) addDir(w *fsnotify.Watcher, dir string) {
	if err := c.addTree(w, dir); err != nil {
		c.log().Warn("cannot watch new directory", "path", dir, "error", err)
		return
	}
	if c.paused.Paused() {
		return
	}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // unreadable entries are skipped
		}
		if !d.IsDir() && isSave(path, c.sweepOpts.Extension) {
			c.schedule(path)
		}
		return nil
	})
	if err != nil {
		c.log().Warn("cannot scan new directory", "path", dir, "error", err)
	}
}

func (c *Coordinator) addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return w.Add(path)
	})
}

// schedule debounces notifications for path into one enqueue.
func (c *Coordinator) schedule(path string) {
	path = filepath.Clean(path)
	if !c.debounce.schedule(path, func() { c.enqueue(path) }) {
		c.metrics.ObserveEvent(metrics.EventDebounced)
	}
}

// enqueue hands path to the workers unless it is already queued or running.
func (c *Coordinator) enqueue(path string) {
	if !c.claim(path) {
		c.metrics.ObserveEvent(metrics.EventInFlight)
		c.log().Debug("patch already in flight, dropping notification", "path", path)
		return
	}
	select {
	case c.queue <- path:
		c.metrics.ObserveEvent(metrics.EventScheduled)
	default:
		c.release(path)
		c.metrics.ObserveEvent(metrics.EventQueueFull)
		c.log().Warn("patch queue full, dropping notification", "path", path)
	}
}

func (c *Coordinator) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-c.queue:
			c.process(ctx, path)
		}
	}
}

// process waits for the writer to let go of path, then patches it. The
// patch itself is not interrupted by cancellation.
func (c *Coordinator) process(ctx context.Context, path string) {
	err := waitStable(ctx, c.clock, c.probe, path, c.pollInterval, c.stableTimeout)
	switch {
	case err == nil:
	case errors.Is(err, cleaner.ErrFileBusy):
		c.release(path)
		c.metrics.ObserveEvent(metrics.EventBusy)
		c.log().Warn("save still in use, skipping", "path", path, "timeout", c.stableTimeout)
		return
	case errors.Is(err, fs.ErrNotExist):
		c.release(path)
		c.log().Debug("save disappeared before it settled", "path", path)
		return
	case ctx.Err() != nil:
		c.release(path)
		return
	default:
		c.release(path)
		c.log().Error("cannot open save", "path", path, "error", err)
		return
	}

	if c.sweepOnEvent {
		c.release(path)
		if _, err := c.Sweep(context.WithoutCancel(ctx)); err != nil {
			c.log().Error("sweep failed", "trigger", path, "error", err)
		}
		return
	}

	defer c.release(path)
	outcome, err := c.patcher.Patch(context.WithoutCancel(ctx), path)
	if err != nil {
		c.log().Debug("patch attempt failed", "path", path, "error", err)
		return
	}
	c.log().Debug("patch attempt finished", "path", path, "outcome", outcome.String())
}

// claim marks path as in flight. It returns false if it already was.
func (c *Coordinator) claim(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.inflight[path]; ok {
		return false
	}
	c.inflight[path] = struct{}{}
	return true
}

func (c *Coordinator) release(path string) {
	c.mu.Lock()
	delete(c.inflight, path)
	c.mu.Unlock()
}

// claimingPatcher makes sweeps respect the per-path exclusion of the watcher.
type claimingPatcher struct {
	c *Coordinator
}

func (p claimingPatcher) Patch(ctx context.Context, path string) (cleaner.Outcome, error) {
	path = filepath.Clean(path)
	if !p.c.claim(path) {
		return cleaner.NothingToDo, errInFlight
	}
	defer p.c.release(path)
	return p.c.patcher.Patch(ctx, path)
}
