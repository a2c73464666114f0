package watch

import (
	"context"
	"errors"
	"io/fs"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"

	cleaner "github.com/neonizer/KCD2-Modlist-Cleaner"
	"github.com/neonizer/KCD2-Modlist-Cleaner/internal/fileops"
)

// busyFor returns a probe that reports the file busy n times.
func busyFor(n int32) (probeFunc, *atomic.Int32) {
	var calls atomic.Int32
	return func(string) error {
		if calls.Add(1) <= n {
			return fileops.ErrBusy
		}
		return nil
	}, &calls
}

func TestWaitStableImmediate(t *testing.T) {
	t.Parallel()

	probe, calls := busyFor(0)
	err := waitStable(context.Background(), clock.New(), probe, "save.whs", time.Millisecond, time.Second)
	assert.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWaitStableAfterRetries(t *testing.T) {
	t.Parallel()

	probe, calls := busyFor(3)
	err := waitStable(context.Background(), clock.New(), probe, "save.whs", time.Millisecond, 5*time.Second)
	assert.NoError(t, err)
	assert.Equal(t, int32(4), calls.Load())
}

func TestWaitStableTimeout(t *testing.T) {
	t.Parallel()

	probe, _ := busyFor(1 << 30)
	start := time.Now()
	err := waitStable(context.Background(), clock.New(), probe, "save.whs", 5*time.Millisecond, 50*time.Millisecond)
	assert.ErrorIs(t, err, cleaner.ErrFileBusy)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestWaitStableProbeError(t *testing.T) {
	t.Parallel()

	probe := func(string) error { return fs.ErrNotExist }
	err := waitStable(context.Background(), clock.New(), probe, "save.whs", time.Millisecond, time.Second)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.False(t, errors.Is(err, cleaner.ErrFileBusy))
}

func TestWaitStableCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	probe := func(string) error {
		cancel()
		return fileops.ErrBusy
	}
	err := waitStable(ctx, clock.New(), probe, "save.whs", time.Hour, 2*time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}
