package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"

	cleaner "github.com/neonizer/KCD2-Modlist-Cleaner"
	"github.com/neonizer/KCD2-Modlist-Cleaner/internal/fileops"
)

// DefaultExtension is the extension of Warhorse save files.
const DefaultExtension = ".whs"

// errInFlight is returned by a claiming patcher when the watcher already
// owns the path. Sweep counts such files as skipped.
var errInFlight = errors.New("watch: patch already in flight")

// Patcher patches a single save. *cleaner.Cleaner implements it.
type Patcher interface {
	Patch(ctx context.Context, path string) (cleaner.Outcome, error)
}

// SweepOptions selects which saves a sweep visits.
type SweepOptions struct {
	// Extension of save files, matched case-insensitively.
	// Defaults to DefaultExtension.
	Extension string

	// SlotGlob, when set, restricts the sweep to saves directly inside the
	// root's subdirectories whose names match the glob (e.g. "playline*").
	// Otherwise the whole tree is walked.
	SlotGlob string

	// Logger receives the sweep summary and enumeration problems.
	Logger *slog.Logger
}

// SweepReport counts what a sweep did.
type SweepReport struct {
	Cleaned     int
	NothingToDo int
	Skipped     int      // owned by the watcher at the time
	Failed      []string // paths whose patch returned an error
}

// Total returns the number of saves visited.
func (r SweepReport) Total() int {
	return r.Cleaned + r.NothingToDo + r.Skipped + len(r.Failed)
}

// Sweep patches every save below root, one at a time.
//
// A failing save does not stop the sweep: per-file errors are combined into
// the returned error and their paths listed in the report. Enumeration
// errors and context cancellation end the sweep early.
func Sweep(ctx context.Context, p Patcher, root string, opts SweepOptions) (SweepReport, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ext := opts.Extension
	if ext == "" {
		ext = DefaultExtension
	}

	var report SweepReport
	paths, err := listSaves(root, ext, opts.SlotGlob, logger)
	if err != nil {
		return report, fmt.Errorf("sweep %s: %w", root, err)
	}

	var errs error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return report, multierr.Append(errs, err)
		}
		outcome, err := p.Patch(ctx, path)
		switch {
		case errors.Is(err, errInFlight):
			report.Skipped++
		case err != nil:
			report.Failed = append(report.Failed, path)
			errs = multierr.Append(errs, err)
		case outcome == cleaner.Cleaned:
			report.Cleaned++
		default:
			report.NothingToDo++
		}
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "sweep finished",
		slog.String("root", root),
		slog.Int("cleaned", report.Cleaned),
		slog.Int("nothing_to_do", report.NothingToDo),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", len(report.Failed)),
	)
	return report, errs
}

// listSaves returns the saves a sweep visits, in lexical order.
func listSaves(root, ext, slotGlob string, logger *slog.Logger) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", root)
	}

	if slotGlob != "" {
		return listSlotSaves(root, ext, slotGlob, logger)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.Warn("skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() && isSave(path, ext) {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

func listSlotSaves(root, ext, slotGlob string, logger *slog.Logger) ([]string, error) {
	if _, err := filepath.Match(slotGlob, ""); err != nil {
		return nil, fmt.Errorf("slot glob %q: %w", slotGlob, err)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, slot := range entries {
		if !slot.IsDir() {
			continue
		}
		// Save directories are matched case-insensitively, as on Windows.
		if ok, _ := filepath.Match(strings.ToLower(slotGlob), strings.ToLower(slot.Name())); !ok { //nolint:errcheck // pattern validated above
			continue
		}
		dir := filepath.Join(root, slot.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			logger.Warn("skipping unreadable slot", "path", dir, "error", err)
			continue
		}
		for _, f := range files {
			path := filepath.Join(dir, f.Name())
			if !f.IsDir() && isSave(path, ext) {
				paths = append(paths, path)
			}
		}
	}
	return paths, nil
}

// isSave reports whether path names a save file rather than a directory
// entry or one of our temp files.
func isSave(path, ext string) bool {
	return strings.EqualFold(filepath.Ext(path), ext) && !fileops.IsTemp(path)
}
