package account

import (
	tea "charm.land/bubbletea/v2"

	"github.com/conceptclarity/clarity/internal/gateway"
	"github.com/conceptclarity/clarity/internal/router"
	"github.com/conceptclarity/clarity/internal/screen"
	"github.com/conceptclarity/clarity/internal/shell"
	"github.com/conceptclarity/clarity/internal/ui/components"
	"github.com/conceptclarity/clarity/internal/ui/layout"
	"github.com/conceptclarity/clarity/internal/ui/theme"
)

type loggedInMsg struct {
	State shell.State
	Err   error
}

// LoginScreen signs a user or an administrator in.
type LoginScreen struct {
	env     *screen.Env
	admin   bool
	form    form
	sending bool
}

var _ screen.Screen = (*LoginScreen)(nil)
var _ screen.KeyHintProvider = (*LoginScreen)(nil)

// NewLogin creates the user sign-in form.
func NewLogin(env *screen.Env) *LoginScreen {
	s := &LoginScreen{env: env}
	s.form.add("identifier", components.NewTextInput("Email or username", "ada@example.com", 254))
	s.form.add("password", components.NewPasswordInput("Password", 128))
	return s
}

// NewAdminLogin creates the administrator sign-in form.
func NewAdminLogin(env *screen.Env) *LoginScreen {
	s := &LoginScreen{env: env, admin: true}
	s.form.add("identifier", components.NewTextInput("Admin username", "", 50))
	s.form.add("password", components.NewPasswordInput("Password", 128))
	return s
}

func (s *LoginScreen) Init() tea.Cmd {
	return s.form.start()
}

func (s *LoginScreen) Title() string {
	if s.admin {
		return "Admin Sign In"
	}
	return "Sign In"
}

func (s *LoginScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Sign in"},
	}
	if !s.admin {
		hints = append(hints, layout.KeyHint{Key: "Ctrl+N", Description: "Create account"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
}

func (s *LoginScreen) credentials() gateway.Credentials {
	return gateway.Credentials{
		Identifier: s.form.value("identifier"),
		Password:   s.form.rawValue("password"),
	}
}

func (s *LoginScreen) submit() tea.Cmd {
	creds := s.credentials()
	if err := gateway.Validate(creds); err != nil {
		s.form.showError(err, "")
		return nil
	}
	s.form.clearErrors()
	s.sending = true

	sh, ctx, admin, current := s.env.Shell, s.env.Context(), s.admin, *s.env.State
	return func() tea.Msg {
		if admin {
			if err := sh.AdminLogin(ctx, creds); err != nil {
				return loggedInMsg{Err: err}
			}
			current.Admin = true
			return loggedInMsg{State: current}
		}
		st, err := sh.Login(ctx, creds)
		return loggedInMsg{State: st, Err: err}
	}
}

func (s *LoginScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loggedInMsg:
		s.sending = false
		if msg.Err != nil {
			s.form.showError(msg.Err, "Incorrect credentials. Please try again.")
			return s, nil
		}
		route := shell.RouteHome
		if s.admin {
			route = shell.RouteAdmin
		}
		st := msg.State
		return s, func() tea.Msg { return screen.SessionChangedMsg{State: st, Route: route} }

	case tea.KeyMsg:
		if s.sending {
			return s, nil
		}
		switch msg.String() {
		case "esc":
			return s, router.Pop
		case "tab", "down":
			return s, s.form.move(1)
		case "shift+tab", "up":
			return s, s.form.move(-1)
		case "enter":
			if !s.form.last() {
				return s, s.form.move(1)
			}
			return s, s.submit()
		case "ctrl+n":
			if !s.admin {
				return s, func() tea.Msg {
					return router.NavigateMsg{Route: shell.RouteSignup, Replace: true}
				}
			}
			return s, nil
		}
	}
	return s, s.form.update(msg)
}

func (s *LoginScreen) View(width, height int) string {
	heading := "Welcome back"
	if s.admin {
		heading = "Administrator access"
	}
	body := theme.Title.Render(heading) + "\n\n" + s.form.view(nil)
	if s.sending {
		body += theme.Hint.Render("Signing in...")
	} else if !s.admin {
		body += theme.Hint.Render("New here? Ctrl+N creates an account.")
	}
	return components.CenteredCard(body, width, 60)
}
