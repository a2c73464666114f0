package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/neonizer/KCD2-Modlist-Cleaner/internal/config"
)

// newLogger writes text records to stderr and, when configured, appends
// them to the log file as well.
//
//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func newLogger(cfg config.Config, stderr io.Writer) (*slog.Logger, func() error, error) {
	w := stderr
	closeFn := func() error { return nil }
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) //nolint:gosec // user-chosen log path
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(stderr, f)
		closeFn = f.Close
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.LogLevel})
	return slog.New(handler), closeFn, nil
}
