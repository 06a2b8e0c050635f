// Package screen defines what the app needs from a screen and the
// messages screens use to talk back to it.
package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/conceptclarity/clarity/internal/shell"
	"github.com/conceptclarity/clarity/internal/ui/layout"
)

// Screen is one page of the app. View draws the body only; the app adds
// the header and footer around it.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)
	View(width, height int) string
	// Title is shown in the header.
	Title() string
}

// KeyHintProvider replaces the default footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// EscapeHandler is implemented by screens that handle esc themselves,
// for example to confirm leaving. While HandlesEscape reports true the
// app forwards esc instead of popping the screen.
type EscapeHandler interface {
	HandlesEscape() bool
}

// SessionChangedMsg reports a sign in, sign out or preference change. The
// app stores State, applies the theme and, when Route is set, opens it on
// a fresh stack.
type SessionChangedMsg struct {
	State shell.State
	Route shell.Route
}

// AuthExpiredMsg is sent by a screen whose request was rejected as
// unauthenticated. The app signs out and routes to login.
type AuthExpiredMsg struct{}

// ExpireSession is the command a screen returns after an auth error.
func ExpireSession() tea.Msg {
	return AuthExpiredMsg{}
}
