package watch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	cleaner "github.com/neonizer/KCD2-Modlist-Cleaner"
	"github.com/neonizer/KCD2-Modlist-Cleaner/internal/fileops"
)

// probeFunc reports fileops.ErrBusy while another process holds path.
type probeFunc func(path string) error

// waitStable polls probe every interval until the file can be opened
// exclusively. It gives up with cleaner.ErrFileBusy once timeout has
// elapsed, and returns any other probe error (a vanished file, say) as is.
func waitStable(ctx context.Context, clk clock.Clock, probe probeFunc, path string, interval, timeout time.Duration) error {
	deadline := clk.Now().Add(timeout)
	for {
		err := probe(path)
		if !errors.Is(err, fileops.ErrBusy) {
			return err
		}
		if !clk.Now().Before(deadline) {
			return fmt.Errorf("%s: %w after %s", path, cleaner.ErrFileBusy, timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clk.After(interval):
		}
	}
}
