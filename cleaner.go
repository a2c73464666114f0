package cleaner

import (
	"context"
	_ "crypto/sha256" // registers the digest algorithm
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/neonizer/KCD2-Modlist-Cleaner/internal/backup"
	"github.com/neonizer/KCD2-Modlist-Cleaner/internal/fileops"
	"github.com/neonizer/KCD2-Modlist-Cleaner/internal/metrics"
	"github.com/neonizer/KCD2-Modlist-Cleaner/internal/patch"
	"github.com/neonizer/KCD2-Modlist-Cleaner/internal/record"
)

// Cleaner erases mod lists from save files.
//
// A Cleaner holds no per-file state and is safe for concurrent use; callers
// are responsible for not patching the same path from two goroutines at
// once (see the watch package).
type Cleaner struct {
	layout  Layout
	logger  *slog.Logger
	backups *backup.Store
	metrics *metrics.Metrics
	maxSize uint64
	inPlace bool
	dryRun  bool
}

// New creates a Cleaner with the given options.
func New(opts ...Option) (*Cleaner, error) {
	c := &Cleaner{layout: LayoutAuto}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// log returns the logger, falling back to a discard logger if nil.
func (c *Cleaner) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// Layout returns the configured layout.
func (c *Cleaner) Layout() Layout {
	return c.layout
}

// Result describes a cleaned blob.
type Result struct {
	Outcome Outcome
	Layout  Layout // layout the blob was parsed as
	Data    []byte // patched bytes; the input when Outcome is NothingToDo
}

// Clean erases the mod list from blob without touching the filesystem.
// The input slice is never modified.
func (c *Cleaner) Clean(blob []byte) (Result, error) {
	rec, err := record.Detect(blob, c.layout)
	if err != nil {
		return Result{Outcome: NothingToDo, Data: blob}, err
	}
	res := Result{Outcome: NothingToDo, Layout: rec.Layout, Data: blob}
	if !rec.Found {
		return res, nil
	}
	out, err := patch.Apply(rec, blob)
	if err != nil {
		return res, err
	}
	if patch.Changed(blob, out) {
		res.Outcome = Cleaned
		res.Data = out
	}
	return res, nil
}

// Patch erases the mod list of the save at path and writes it back.
//
// Saves without a mod list, or with an already empty one, are not
// rewritten and report NothingToDo. On error the file is left untouched.
// Every call emits exactly one log record.
func (c *Cleaner) Patch(ctx context.Context, path string) (Outcome, error) {
	return c.PatchTo(ctx, path, path)
}

// PatchTo reads the save at src and writes the cleaned save to dst.
// When src and dst differ and nothing needs cleaning, dst is not created.
func (c *Cleaner) PatchTo(ctx context.Context, src, dst string) (outcome Outcome, err error) {
	start := time.Now()
	attrs := make([]slog.Attr, 0, 6)
	attrs = append(attrs, slog.String("path", src))
	if filepath.Clean(dst) != filepath.Clean(src) {
		attrs = append(attrs, slog.String("output", dst))
	}
	defer func() {
		c.report(ctx, outcome, err, time.Since(start), attrs)
	}()

	if err := ctx.Err(); err != nil {
		return NothingToDo, err
	}

	data, info, err := fileops.ReadFile(src, c.maxSize)
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			return NothingToDo, fmt.Errorf("read %s: %w", src, err)
		}
		return NothingToDo, fmt.Errorf("%w: read %s: %w", ErrIO, src, err)
	}

	res, err := c.Clean(data)
	if err != nil {
		return NothingToDo, fmt.Errorf("%s: %w", src, err)
	}
	attrs = append(attrs, slog.String("layout", res.Layout.String()))
	if res.Outcome == NothingToDo {
		return NothingToDo, nil
	}
	if c.dryRun {
		attrs = append(attrs, slog.Bool("dry_run", true))
		return Cleaned, nil
	}

	if c.backups != nil {
		d, err := c.backups.Put(data)
		if err != nil {
			return NothingToDo, fmt.Errorf("%w: backup %s: %w", ErrIO, src, err)
		}
		attrs = append(attrs, slog.String("backup", d.String()))
	} else {
		attrs = append(attrs, slog.String("digest", digest.FromBytes(data).String()))
	}

	if c.inPlace && filepath.Clean(dst) == filepath.Clean(src) {
		err = fileops.WriteFileInPlace(dst, res.Data)
	} else {
		err = fileops.WriteFileAtomic(dst, res.Data, info.Mode().Perm())
	}
	if err != nil {
		return NothingToDo, fmt.Errorf("%w: write %s: %w", ErrIO, dst, err)
	}
	return Cleaned, nil
}

// report emits the log record and metric for one patch attempt.
func (c *Cleaner) report(ctx context.Context, outcome Outcome, err error, elapsed time.Duration, attrs []slog.Attr) {
	attrs = append(attrs, slog.Duration("elapsed", elapsed))
	if err != nil {
		class := ErrorClass(err)
		c.metrics.ObservePatch(class, elapsed)
		attrs = append(attrs, slog.String("class", class), slog.Any("error", err))
		c.log().LogAttrs(ctx, slog.LevelError, "patch failed", attrs...)
		return
	}
	c.metrics.ObservePatch(outcome.String(), elapsed)
	attrs = append(attrs, slog.String("outcome", outcome.String()))
	c.log().LogAttrs(ctx, slog.LevelInfo, "patch", attrs...)
}
