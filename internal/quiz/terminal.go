package quiz

import "sync"

// TerminalFocus is the Fullscreen of a terminal that reports focus. Having
// the window focused stands in for being fullscreen: the attempt runs while
// focused and pauses on blur. Request cannot grab focus, so the prompt asks
// the user to confirm with a key press, which the screen reports through
// Set(true).
type TerminalFocus struct {
	mu        sync.Mutex
	supported bool
	active    bool
}

// NewTerminalFocus returns a TerminalFocus. Pass false when the terminal
// does not report focus; attempts then run unproctored.
func NewTerminalFocus(supported bool) *TerminalFocus {
	return &TerminalFocus{supported: supported}
}

func (t *TerminalFocus) Supported() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.supported
}

func (t *TerminalFocus) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Request is a no-op; focus is confirmed by the user.
func (t *TerminalFocus) Request() error { return nil }

func (t *TerminalFocus) Exit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = false
}

// Set records a focus report. It returns true when the state changed.
func (t *TerminalFocus) Set(active bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == active {
		return false
	}
	t.active = active
	return true
}
