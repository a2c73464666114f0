package watch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSwitch(t *testing.T) {
	t.Parallel()

	var s Switch
	assert.False(t, s.Paused())

	s.SetPaused(true)
	assert.True(t, s.Paused())

	assert.False(t, s.Toggle())
	assert.True(t, s.Toggle())
	assert.True(t, NewSwitch(true).Paused())
}

func TestSwitchConcurrent(t *testing.T) {
	t.Parallel()

	s := NewSwitch(false)
	var wg sync.WaitGroup
	for range 100 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Toggle()
		}()
		go func() {
			defer wg.Done()
			_ = s.Paused()
		}()
	}
	wg.Wait()
	// An even number of toggles restores the initial state.
	assert.False(t, s.Paused())
}
