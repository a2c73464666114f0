package watch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	cleaner "github.com/neonizer/KCD2-Modlist-Cleaner"
)

// recordingPatcher records patch calls and fails for configured paths.
type recordingPatcher struct {
	mu       sync.Mutex
	calls    []string
	running  map[string]int
	overlaps int
	fail     map[string]error
	delay    time.Duration
}

func newRecordingPatcher() *recordingPatcher {
	return &recordingPatcher{
		running: make(map[string]int),
		fail:    make(map[string]error),
	}
}

func (p *recordingPatcher) Patch(_ context.Context, path string) (cleaner.Outcome, error) {
	p.mu.Lock()
	p.calls = append(p.calls, path)
	p.running[path]++
	if p.running[path] > 1 {
		p.overlaps++
	}
	err := p.fail[path]
	delay := p.delay
	p.mu.Unlock()

	time.Sleep(delay)

	p.mu.Lock()
	p.running[path]--
	p.mu.Unlock()
	if err != nil {
		return cleaner.NothingToDo, err
	}
	return cleaner.Cleaned, nil
}

func (p *recordingPatcher) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *recordingPatcher) Overlaps() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.overlaps
}

var errBroken = errors.New("broken save")

func newTestCoordinator(t *testing.T, p Patcher, root string, opts ...Option) *Coordinator {
	t.Helper()
	base := []Option{
		WithSettle(20 * time.Millisecond),
		WithStability(5*time.Millisecond, 200*time.Millisecond),
	}
	c, err := New(p, root, append(base, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	return c
}
