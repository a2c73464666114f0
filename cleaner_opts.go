package cleaner

import (
	"errors"
	"log/slog"

	"github.com/neonizer/KCD2-Modlist-Cleaner/internal/backup"
	"github.com/neonizer/KCD2-Modlist-Cleaner/internal/metrics"
)

// Option configures a Cleaner.
type Option func(*Cleaner) error

// WithLayout sets the save layout. Defaults to LayoutAuto, which probes for
// a length-prefixed header and falls back to a padded scan.
func WithLayout(layout Layout) Option {
	return func(c *Cleaner) error {
		c.layout = layout
		return nil
	}
}

// WithLogger sets a logger for patch attempts.
// If nil, a discard logger is used (default behavior).
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cleaner) error {
		c.logger = logger
		return nil
	}
}

// WithBackupDir keeps a compressed copy of every save before it is
// rewritten. Backups are stored under the sha256 digest of the original.
func WithBackupDir(dir string) Option {
	return func(c *Cleaner) error {
		if dir == "" {
			return errors.New("backup dir is empty")
		}
		store, err := backup.New(dir)
		if err != nil {
			return err
		}
		c.backups = store
		return nil
	}
}

// WithInPlace truncates and rewrites saves in place instead of writing a
// temp file and renaming it over the original. In-place writes keep the
// file identity but are not crash-safe.
func WithInPlace(inPlace bool) Option {
	return func(c *Cleaner) error {
		c.inPlace = inPlace
		return nil
	}
}

// WithDryRun detects and reports mod lists without writing anything.
func WithDryRun(dryRun bool) Option {
	return func(c *Cleaner) error {
		c.dryRun = dryRun
		return nil
	}
}

// WithMaxSize limits how large a save may be. Zero uses the default (512MB).
func WithMaxSize(n uint64) Option {
	return func(c *Cleaner) error {
		c.maxSize = n
		return nil
	}
}

// WithMetrics records patch attempts into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cleaner) error {
		c.metrics = m
		return nil
	}
}
