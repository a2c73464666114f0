//go:build unix

package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/neonizer/KCD2-Modlist-Cleaner/watch"
)

// notifyPause toggles sw on every SIGUSR1 until the returned function is
// called.
func notifyPause(sw *watch.Switch, logger *slog.Logger) func() {
	sigs := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigs, syscall.SIGUSR1)
	go func() {
		for {
			select {
			case <-sigs:
				logger.Info("pause toggled", "paused", sw.Toggle())
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(sigs)
		close(done)
	}
}
