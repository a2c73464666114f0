package watch

import "sync"

// Switch is the process-wide pause toggle. While paused, the coordinator
// ignores filesystem notifications. The zero value is an unpaused switch.
type Switch struct {
	mu     sync.Mutex
	paused bool
}

// NewSwitch returns a switch in the given state.
func NewSwitch(paused bool) *Switch {
	return &Switch{paused: paused}
}

// Paused reports whether notifications are being ignored.
func (s *Switch) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// SetPaused sets the pause state.
func (s *Switch) SetPaused(paused bool) {
	s.mu.Lock()
	s.paused = paused
	s.mu.Unlock()
}

// Toggle flips the pause state and returns the new state.
func (s *Switch) Toggle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = !s.paused
	return s.paused
}
