// Package home is the main menu.
package home

import (
	"slices"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/conceptclarity/clarity/internal/router"
	"github.com/conceptclarity/clarity/internal/screen"
	"github.com/conceptclarity/clarity/internal/shell"
	"github.com/conceptclarity/clarity/internal/tokenstore"
	"github.com/conceptclarity/clarity/internal/ui/components"
)

// HomeScreen is the main menu of the application.
type HomeScreen struct {
	env    *screen.Env
	menu   components.Menu
	status string
	errMsg string
}

var _ screen.Screen = (*HomeScreen)(nil)

// errMsg reports a failed menu action.
type errMsg struct{ Err error }

// New creates a HomeScreen for the current session.
func New(env *screen.Env) *HomeScreen {
	h := &HomeScreen{env: env}
	h.menu = components.NewMenu(h.items())
	return h
}

func (h *HomeScreen) items() []components.MenuItem {
	st := *h.env.State
	nav := func(r shell.Route) func() tea.Cmd {
		return func() tea.Cmd { return router.Navigate(r) }
	}

	items := []components.MenuItem{
		{Label: "SEARCH", Hint: "Look up a term at your level", Action: nav(shell.RouteSearch)},
		{Label: "QUIZ", Hint: "Timed questions on your recent searches", Action: nav(shell.RouteQuiz)},
		{Label: "LEADERBOARD", Hint: "Top scores by difficulty", Action: nav(shell.RouteLeaderboard)},
		{Label: "HISTORY", Hint: "Past searches and feedback", Action: nav(shell.RouteHistory)},
		{Label: "REVIEW", Hint: "Rate the app", Action: nav(shell.RouteReview)},
	}
	if st.Authenticated {
		items = append(items,
			components.MenuItem{Label: "PROFILE", Hint: "Account details", Action: nav(shell.RouteProfile)},
			components.MenuItem{Label: "SIGN OUT", Action: h.logout},
		)
	} else {
		items = append(items,
			components.MenuItem{Label: "SIGN IN", Hint: "Unlock levels, quizzes and history", Action: nav(shell.RouteLogin)},
			components.MenuItem{Label: "SIGN UP", Action: nav(shell.RouteSignup)},
		)
	}
	items = append(items,
		components.MenuItem{Label: "ADMIN", Hint: "Usage statistics", Action: nav(shell.RouteAdmin)},
		components.MenuItem{Label: "THEME: " + strings.ToUpper(string(theme(st))), Action: h.toggleTheme},
		components.MenuItem{Label: "LANGUAGE: " + strings.ToUpper(language(st).Name()), Action: h.nextLanguage},
		components.MenuItem{Label: "QUIT", Action: func() tea.Cmd { return tea.Quit }},
	)
	return items
}

func theme(st shell.State) tokenstore.Theme {
	if st.Theme == "" {
		return tokenstore.Dark
	}
	return st.Theme
}

func language(st shell.State) tokenstore.Language {
	if st.Language == "" {
		return tokenstore.English
	}
	return st.Language
}

func (h *HomeScreen) logout() tea.Cmd {
	env := h.env
	st := *env.State
	return func() tea.Msg {
		if err := env.Shell.Logout(env.Context()); err != nil {
			return errMsg{Err: err}
		}
		st.Authenticated = false
		st.Username = ""
		return screen.SessionChangedMsg{State: st, Route: shell.RouteHome}
	}
}

func (h *HomeScreen) toggleTheme() tea.Cmd {
	env := h.env
	st := *env.State
	return func() tea.Msg {
		next, err := env.Shell.ToggleTheme(env.Context())
		if err != nil {
			return errMsg{Err: err}
		}
		st.Theme = next
		return screen.SessionChangedMsg{State: st}
	}
}

// nextLanguage cycles through the supported languages.
func (h *HomeScreen) nextLanguage() tea.Cmd {
	env := h.env
	st := *env.State
	i := slices.Index(tokenstore.Languages, language(st))
	next := tokenstore.Languages[(i+1)%len(tokenstore.Languages)]
	return func() tea.Msg {
		lang, err := env.Shell.SetLanguage(env.Context(), string(next), st.Authenticated)
		if err != nil {
			return errMsg{Err: err}
		}
		st.Language = lang
		return screen.SessionChangedMsg{State: st}
	}
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case errMsg:
		h.errMsg = msg.Err.Error()
		return h, nil
	case screen.SessionChangedMsg:
		// Rebuild labels in place, keeping the cursor.
		sel := h.menu.Selected
		h.menu = components.NewMenu(h.items())
		if sel < len(h.menu.Items) {
			h.menu.Selected = sel
		}
		h.errMsg = ""
		return h, nil
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	compact := height < 30 || width < 100
	cw := components.ContentWidth(width)

	sections := []string{
		renderTitle(cw, compact),
		renderTagline(cw),
		renderStatusBar(*h.env.State, cw),
		renderMenu(h.menu, cw),
	}
	if h.errMsg != "" {
		sections = append(sections, renderError(h.errMsg, cw))
	}

	return components.Frame(strings.Join(sections, "\n\n"), width, height)
}

func (h *HomeScreen) Title() string {
	return "Home"
}
