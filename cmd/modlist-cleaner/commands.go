package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/opencontainers/go-digest"
	"github.com/prometheus/client_golang/prometheus"

	cleaner "github.com/neonizer/KCD2-Modlist-Cleaner"
	"github.com/neonizer/KCD2-Modlist-Cleaner/internal/backup"
	"github.com/neonizer/KCD2-Modlist-Cleaner/internal/config"
	"github.com/neonizer/KCD2-Modlist-Cleaner/internal/fileops"
	"github.com/neonizer/KCD2-Modlist-Cleaner/internal/metrics"
	"github.com/neonizer/KCD2-Modlist-Cleaner/watch"
)

//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func newCleaner(cfg config.Config, logger *slog.Logger, m *metrics.Metrics) (*cleaner.Cleaner, error) {
	layout, err := cfg.ResolveLayout()
	if err != nil {
		return nil, err
	}
	opts := []cleaner.Option{
		cleaner.WithLayout(layout),
		cleaner.WithLogger(logger),
		cleaner.WithMaxSize(cfg.MaxSize),
		cleaner.WithInPlace(cfg.InPlace),
		cleaner.WithDryRun(cfg.DryRun),
		cleaner.WithMetrics(m),
	}
	if cfg.BackupDir != "" {
		opts = append(opts, cleaner.WithBackupDir(cfg.BackupDir))
	}
	return cleaner.New(opts...)
}

//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func runWatch(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	profile, err := cfg.ResolveProfile()
	if err != nil {
		return err
	}
	root, err := cfg.ResolveRoot()
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		if m, err = metrics.New(reg); err != nil {
			return err
		}
		stopMetrics, err := serveMetrics(ctx, cfg.MetricsAddr, reg, logger)
		if err != nil {
			return err
		}
		defer stopMetrics()
	}

	cl, err := newCleaner(cfg, logger, m)
	if err != nil {
		return err
	}
	sw := watch.NewSwitch(cfg.Paused)
	defer notifyPause(sw, logger)()

	coord, err := watch.New(cl, root,
		watch.WithExtension(cfg.Extension),
		watch.WithWatchWrites(profile.WatchWrites),
		watch.WithSlotGlob(profile.SlotGlob),
		watch.WithSwitch(sw),
		watch.WithSettle(cfg.Settle),
		watch.WithStability(cfg.PollInterval, cfg.StableTimeout),
		watch.WithWorkers(cfg.Workers),
		watch.WithQueueSize(cfg.QueueSize),
		watch.WithSweepOnEvent(cfg.SweepOnEvent),
		watch.WithLogger(logger),
		watch.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	logger.Info("starting", "profile", profile.Name, "root", root, "layout", cl.Layout().String(),
		"paused", sw.Paused(), "dry_run", cfg.DryRun)
	if cfg.CleanOnStart {
		// Per-file failures are already logged; keep watching.
		if _, err := coord.Sweep(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("initial sweep incomplete", "error", err)
		}
	}
	return coord.Run(ctx)
}

//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func runClean(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string, stdout io.Writer) error {
	if len(args) > 1 {
		return fmt.Errorf("%w: clean takes at most one directory", errUsage)
	}
	profile, err := cfg.ResolveProfile()
	if err != nil {
		return err
	}
	root := ""
	if len(args) == 1 {
		root = args[0]
	} else if root, err = cfg.ResolveRoot(); err != nil {
		return err
	}
	cl, err := newCleaner(cfg, logger, nil)
	if err != nil {
		return err
	}

	report, err := watch.Sweep(ctx, cl, root, watch.SweepOptions{
		Extension: cfg.Extension,
		SlotGlob:  profile.SlotGlob,
		Logger:    logger,
	})
	fmt.Fprintf(stdout, "cleaned=%d nothing_to_do=%d failed=%d\n",
		report.Cleaned, report.NothingToDo, len(report.Failed))
	return err
}

//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func runPatch(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("patch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	output := fs.String("o", "", "write the cleaned save here instead of replacing the input")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: patch takes exactly one save file", errUsage)
	}
	src := fs.Arg(0)
	dst := src
	if *output != "" {
		dst = *output
	}

	cl, err := newCleaner(cfg, logger, nil)
	if err != nil {
		return err
	}
	outcome, err := cl.PatchTo(ctx, src, dst)
	if err != nil {
		return err
	}
	switch outcome {
	case cleaner.Cleaned:
		fmt.Fprintf(stdout, "cleaned %s\n", dst)
	default:
		fmt.Fprintf(stdout, "no mod list in %s\n", src)
	}
	return nil
}

//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func runRestore(cfg config.Config, logger *slog.Logger, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("restore", flag.ContinueOnError)
	fs.SetOutput(stderr)
	output := fs.String("o", "", "path to write the restored save to (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || *output == "" {
		return fmt.Errorf("%w: restore takes -o output and one digest", errUsage)
	}
	if cfg.BackupDir == "" {
		return errors.New("restore needs -backup-dir")
	}
	d, err := digest.Parse(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	store, err := backup.New(cfg.BackupDir)
	if err != nil {
		return err
	}
	data, err := store.Get(d)
	if err != nil {
		return fmt.Errorf("restore %s: %w", d, err)
	}
	if err := fileops.WriteFileAtomic(*output, data, 0o600); err != nil {
		return fmt.Errorf("restore %s: %w", d, err)
	}
	logger.Info("restored", "digest", d.String(), "output", *output)
	fmt.Fprintf(stdout, "restored %s\n", *output)
	return nil
}
