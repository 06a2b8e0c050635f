// Package app is the root Bubble Tea model. It owns the screen stack and
// the session state, and turns navigation requests into screens.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/conceptclarity/clarity/internal/gateway"
	"github.com/conceptclarity/clarity/internal/router"
	"github.com/conceptclarity/clarity/internal/screen"
	"github.com/conceptclarity/clarity/internal/screens/account"
	"github.com/conceptclarity/clarity/internal/screens/admin"
	"github.com/conceptclarity/clarity/internal/screens/history"
	"github.com/conceptclarity/clarity/internal/screens/home"
	"github.com/conceptclarity/clarity/internal/screens/leaderboard"
	"github.com/conceptclarity/clarity/internal/screens/placeholder"
	"github.com/conceptclarity/clarity/internal/screens/quiz"
	"github.com/conceptclarity/clarity/internal/screens/review"
	"github.com/conceptclarity/clarity/internal/screens/search"
	"github.com/conceptclarity/clarity/internal/screens/welcome"
	"github.com/conceptclarity/clarity/internal/shell"
	"github.com/conceptclarity/clarity/internal/ui/layout"
	"github.com/conceptclarity/clarity/internal/ui/theme"
)

// AppModel is the root Bubble Tea model.
type AppModel struct {
	env     *screen.Env
	router  *router.Router
	screens map[shell.Route]func() screen.Screen
	width   int
	height  int
}

// newAppModel creates an AppModel that starts on the welcome screen.
func newAppModel(env *screen.Env) AppModel {
	m := AppModel{
		env:    env,
		router: router.New(welcome.New(env)),
	}
	m.screens = map[shell.Route]func() screen.Screen{
		shell.RouteHome:        func() screen.Screen { return home.New(env) },
		shell.RouteSearch:      func() screen.Screen { return search.New(env, "") },
		shell.RouteLogin:       func() screen.Screen { return account.NewLogin(env) },
		shell.RouteSignup:      func() screen.Screen { return account.NewSignup(env) },
		shell.RouteQuiz:        func() screen.Screen { return quiz.New(env) },
		shell.RouteHistory:     func() screen.Screen { return history.New(env) },
		shell.RouteProfile:     func() screen.Screen { return account.NewProfile(env) },
		shell.RouteReview:      func() screen.Screen { return review.New(env) },
		shell.RouteLeaderboard: func() screen.Screen { return leaderboard.New(env) },
		shell.RouteAdmin:       func() screen.Screen { return admin.New(env) },
		shell.RouteAdminLogin:  func() screen.Screen { return account.NewAdminLogin(env) },
	}
	theme.Apply(theme.ByName(string(env.State.Theme)))
	return m
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

// build gates route on the current session and creates its screen. It
// returns the route actually opened.
func (m AppModel) build(route shell.Route) (shell.Route, screen.Screen) {
	target, redirected := shell.Gate(route, m.env.State.Access())
	if redirected && m.env.Logger != nil {
		m.env.Logger.Debug("route redirected",
			slog.String("from", string(route)),
			slog.String("to", string(target)))
	}
	if f, ok := m.screens[target]; ok {
		return target, f()
	}
	return target, placeholder.New("Unavailable", fmt.Sprintf("There is no %q page.", target))
}

// navigate opens msg.Route. A plain navigation to a route that is already
// open returns to that screen instead of stacking a copy.
func (m AppModel) navigate(msg router.NavigateMsg) tea.Cmd {
	if !msg.Replace {
		target, _ := shell.Gate(msg.Route, m.env.State.Access())
		if m.router.PopTo(target) {
			return nil
		}
	}
	route, next := m.build(msg.Route)
	if msg.Replace {
		return m.router.Replace(route, next)
	}
	return m.router.Push(route, next)
}

// restart resets the stack to home and opens route on top of it.
func (m AppModel) restart(route shell.Route) tea.Cmd {
	cmds := []tea.Cmd{m.router.Reset(m.build(shell.RouteHome))}
	if route != shell.RouteHome {
		cmds = append(cmds, m.router.Push(m.build(route)))
	}
	return tea.Batch(cmds...)
}

func (m AppModel) applySession(msg screen.SessionChangedMsg) tea.Cmd {
	prev := *m.env.State
	*m.env.State = msg.State
	theme.Apply(theme.ByName(string(msg.State.Theme)))

	if prev.Authenticated != msg.State.Authenticated || prev.Username != msg.State.Username {
		// Results from the previous user must not leak into the next.
		m.env.Search.Reset()
		m.env.Quiz.ExitAttempt()
	}

	if msg.Route != "" {
		return m.restart(msg.Route)
	}
	return m.router.Broadcast(msg)
}

func (m AppModel) expire() tea.Cmd {
	ctx := m.env.Context()
	m.env.Shell.HandleAuthError(ctx, &gateway.AuthError{Detail: "session expired"})
	st := *m.env.State
	st.Authenticated = false
	st.Username = ""
	return m.applySession(screen.SessionChangedMsg{State: st, Route: shell.RouteLogin})
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case router.NavigateMsg:
		return m, m.navigate(msg)

	case screen.SessionChangedMsg:
		return m, m.applySession(msg)

	case screen.AuthExpiredMsg:
		return m, m.expire()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.env.Quiz.ExitAttempt()
			return m, tea.Quit
		case "esc":
			if h, ok := m.router.Active().(screen.EscapeHandler); ok && h.HandlesEscape() {
				break
			}
			if m.router.Depth() > 1 {
				return m, router.Pop
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

// status is the header's right side.
func (m AppModel) status() string {
	st := m.env.State
	user := ""
	if st.Authenticated {
		user = st.Username
	}
	free := 0
	if user == "" && m.env.Search != nil {
		free = max(0, m.env.Search.RemainingAnonymous(m.env.Context()))
	}
	return layout.Status(user, m.env.Language(), free)
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	v.ReportFocus = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	// The splash owns the whole screen.
	if _, ok := active.(*welcome.WelcomeScreen); ok {
		v.SetContent(m.router.View(m.width, m.height))
		return v
	}

	header := layout.RenderHeader(title, m.status(), m.width)

	var footerHints []layout.KeyHint
	if p, ok := active.(screen.KeyHintProvider); ok {
		footerHints = p.KeyHints()
	} else if m.router.Depth() > 1 {
		footerHints = []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	} else {
		footerHints = []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Enter", Description: "Select"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// Run starts the Bubble Tea program and blocks until it exits or ctx is
// cancelled.
func Run(ctx context.Context, env *screen.Env) error {
	if env.Ctx == nil {
		env.Ctx = ctx
	}
	p := tea.NewProgram(newAppModel(env), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
