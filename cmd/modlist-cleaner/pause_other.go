//go:build !unix

package main

import (
	"log/slog"

	"github.com/neonizer/KCD2-Modlist-Cleaner/watch"
)

// notifyPause is a no-op where SIGUSR1 does not exist; start with -paused
// instead.
func notifyPause(*watch.Switch, *slog.Logger) func() {
	return func() {}
}
