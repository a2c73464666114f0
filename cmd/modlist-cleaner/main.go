// Command modlist-cleaner erases the mod list that Kingdom Come saves record,
// so saves made with mods installed load without the mod-check prompt.
//
// Usage:
//
//	modlist-cleaner [flags] [watch]
//	modlist-cleaner [flags] clean [root]
//	modlist-cleaner [flags] patch [-o output] save.whs
//	modlist-cleaner [flags] restore -o output sha256:<hex>
//
// Settings are read from MODLIST_CLEANER_* environment variables first;
// flags override them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/neonizer/KCD2-Modlist-Cleaner/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "modlist-cleaner:", err)
		}
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if errors.Is(err, flag.ErrHelp) || errors.Is(err, errUsage) {
		return 2
	}
	return 1
}

var errUsage = errors.New("usage error")

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	rest, err := parseFlags(&cfg, args, stderr)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}
	defer closeLog() //nolint:errcheck // nothing useful to do on exit

	cmd := "watch"
	if len(rest) > 0 {
		cmd, rest = rest[0], rest[1:]
	}
	switch cmd {
	case "watch":
		if len(rest) > 0 {
			return fmt.Errorf("%w: watch takes no arguments", errUsage)
		}
		return runWatch(ctx, cfg, logger)
	case "clean":
		return runClean(ctx, cfg, logger, rest, stdout)
	case "patch":
		return runPatch(ctx, cfg, logger, rest, stdout, stderr)
	case "restore":
		return runRestore(cfg, logger, rest, stdout, stderr)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func parseFlags(cfg *config.Config, args []string, stderr io.Writer) ([]string, error) {
	fs := flag.NewFlagSet("modlist-cleaner", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Profile, "profile", cfg.Profile, "game profile: kcd1 or kcd2")
	fs.StringVar(&cfg.Root, "root", cfg.Root, "save directory (default: the profile's save directory)")
	fs.StringVar(&cfg.Layout, "layout", cfg.Layout, "save layout: auto, padded, length-prefixed (default: the profile's layout)")
	fs.StringVar(&cfg.Extension, "ext", cfg.Extension, "save file extension")
	fs.DurationVar(&cfg.Settle, "settle", cfg.Settle, "quiet period after a notification before patching")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "interval between exclusive-open attempts")
	fs.DurationVar(&cfg.StableTimeout, "stable-timeout", cfg.StableTimeout, "give up on a save still in use after this long")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent patch workers")
	fs.IntVar(&cfg.QueueSize, "queue-size", cfg.QueueSize, "pending notifications before new ones are dropped")
	fs.Uint64Var(&cfg.MaxSize, "max-size", cfg.MaxSize, "largest save to read, in bytes")
	fs.StringVar(&cfg.BackupDir, "backup-dir", cfg.BackupDir, "store compressed originals here before rewriting")
	fs.BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "report what would be cleaned without writing")
	fs.BoolVar(&cfg.InPlace, "in-place", cfg.InPlace, "truncate and rewrite saves instead of replacing them")
	fs.BoolVar(&cfg.CleanOnStart, "clean-on-start", cfg.CleanOnStart, "sweep existing saves before watching")
	fs.BoolVar(&cfg.SweepOnEvent, "sweep-on-event", cfg.SweepOnEvent, "sweep every save on each notification")
	fs.BoolVar(&cfg.Paused, "paused", cfg.Paused, "start with notifications ignored (toggle with SIGUSR1)")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "append log records to this file as well as stderr")
	fs.TextVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus metrics on this address (e.g. 127.0.0.1:9464)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return fs.Args(), nil
}
