// Package router keeps the stack of open screens. Each entry remembers
// the route it was opened for, so navigating to a route already on the
// stack returns to it instead of opening a second copy.
package router

import (
	tea "charm.land/bubbletea/v2"

	"github.com/conceptclarity/clarity/internal/screen"
	"github.com/conceptclarity/clarity/internal/shell"
)

// PushScreenMsg opens a screen that has no route of its own, such as a
// search result opened from history.
type PushScreenMsg struct {
	Screen screen.Screen
}

type PopScreenMsg struct{}

// ReplaceScreenMsg swaps the active screen, keeping its route.
type ReplaceScreenMsg struct {
	Screen screen.Screen
}

// NavigateMsg asks the app to open a route. The app gates the route on the
// current session before building the screen, so a redirect to login is
// decided in one place.
type NavigateMsg struct {
	Route shell.Route
	// Replace swaps the active screen instead of pushing.
	Replace bool
}

func Navigate(route shell.Route) tea.Cmd {
	return func() tea.Msg { return NavigateMsg{Route: route} }
}

func Pop() tea.Msg { return PopScreenMsg{} }

type entry struct {
	route  shell.Route
	screen screen.Screen
}

// Router is a stack of screens; only the top one receives input.
type Router struct {
	stack []entry
}

// New starts a stack with initial, which has no route.
func New(initial screen.Screen) *Router {
	return &Router{stack: []entry{{screen: initial}}}
}

func (r *Router) top() *entry {
	if len(r.stack) == 0 {
		return nil
	}
	return &r.stack[len(r.stack)-1]
}

// Push opens s for route on top of the stack.
func (r *Router) Push(route shell.Route, s screen.Screen) tea.Cmd {
	r.stack = append(r.stack, entry{route: route, screen: s})
	return s.Init()
}

// Pop closes the top screen. The last screen is never popped.
func (r *Router) Pop() tea.Cmd {
	if len(r.stack) > 1 {
		r.stack = r.stack[:len(r.stack)-1]
	}
	return nil
}

// PopTo closes every screen above the topmost one opened for route and
// reports whether there was one. The active screen counts, so asking for
// the current route is a no-op that returns true.
func (r *Router) PopTo(route shell.Route) bool {
	if route == "" {
		return false
	}
	for i := len(r.stack) - 1; i >= 0; i-- {
		if r.stack[i].route == route {
			r.stack = r.stack[:i+1]
			return true
		}
	}
	return false
}

// Replace swaps the top screen for s opened for route.
func (r *Router) Replace(route shell.Route, s screen.Screen) tea.Cmd {
	if t := r.top(); t != nil {
		*t = entry{route: route, screen: s}
	} else {
		r.stack = append(r.stack, entry{route: route, screen: s})
	}
	return s.Init()
}

// Reset drops every screen and starts over from s.
func (r *Router) Reset(route shell.Route, s screen.Screen) tea.Cmd {
	r.stack = []entry{{route: route, screen: s}}
	return s.Init()
}

func (r *Router) Active() screen.Screen {
	if t := r.top(); t != nil {
		return t.screen
	}
	return nil
}

// Route is the route of the active screen, empty for ad hoc screens.
func (r *Router) Route() shell.Route {
	if t := r.top(); t != nil {
		return t.route
	}
	return ""
}

func (r *Router) Depth() int {
	return len(r.stack)
}

// Update applies stack messages and forwards everything else to the
// active screen.
func (r *Router) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case PushScreenMsg:
		return r.Push("", msg.Screen)
	case PopScreenMsg:
		return r.Pop()
	case ReplaceScreenMsg:
		return r.Replace(r.Route(), msg.Screen)
	}

	t := r.top()
	if t == nil {
		return nil
	}
	var cmd tea.Cmd
	t.screen, cmd = t.screen.Update(msg)
	return cmd
}

// Broadcast delivers msg to every screen on the stack, bottom first.
// Screens below the top use it to refresh state after a session change.
func (r *Router) Broadcast(msg tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(r.stack))
	for i := range r.stack {
		var cmd tea.Cmd
		r.stack[i].screen, cmd = r.stack[i].screen.Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (r *Router) View(width, height int) string {
	if s := r.Active(); s != nil {
		return s.View(width, height)
	}
	return ""
}
