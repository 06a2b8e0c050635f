package account

import (
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/conceptclarity/clarity/internal/gateway"
	"github.com/conceptclarity/clarity/internal/router"
	"github.com/conceptclarity/clarity/internal/screen"
	"github.com/conceptclarity/clarity/internal/shell"
	"github.com/conceptclarity/clarity/internal/ui/components"
	"github.com/conceptclarity/clarity/internal/ui/layout"
	"github.com/conceptclarity/clarity/internal/ui/theme"
)

// roleField is the form position of the role picker, which is not a text
// input.
const roleField = 2

// SignupScreen creates an account and signs it in.
type SignupScreen struct {
	env     *screen.Env
	form    form
	role    int
	onRole  bool
	roleErr string
	sending bool
}

var _ screen.Screen = (*SignupScreen)(nil)
var _ screen.KeyHintProvider = (*SignupScreen)(nil)

// NewSignup creates the sign-up form.
func NewSignup(env *screen.Env) *SignupScreen {
	s := &SignupScreen{env: env}
	s.form.add("email", components.NewTextInput("Email", "ada@example.com", 254))
	s.form.add("username", components.NewTextInput("Username", "3-20 letters, numbers or _", 20))
	s.form.add("password", components.NewPasswordInput("Password", 128))
	s.form.add("confirm_password", components.NewPasswordInput("Confirm password", 128))
	for i, r := range gateway.Roles {
		if r == "general_user" {
			s.role = i
		}
	}
	return s
}

func (s *SignupScreen) Init() tea.Cmd {
	return s.form.start()
}

func (s *SignupScreen) Title() string {
	return "Create Account"
}

func (s *SignupScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{{Key: "Tab", Description: "Next field"}}
	if s.onRole {
		hints = append(hints, layout.KeyHint{Key: "←→", Description: "Role"})
	}
	return append(hints,
		layout.KeyHint{Key: "Enter", Description: "Create"},
		layout.KeyHint{Key: "Ctrl+L", Description: "Sign in instead"},
		layout.KeyHint{Key: "Esc", Description: "Back"},
	)
}

// position is the focused row counting the role picker.
func (s *SignupScreen) position() int {
	switch {
	case s.onRole:
		return roleField
	case s.form.focus >= roleField:
		return s.form.focus + 1
	}
	return s.form.focus
}

// moveTo focuses row pos, which may be the role picker.
func (s *SignupScreen) moveTo(pos int) tea.Cmd {
	rows := len(s.form.inputs) + 1
	pos = (pos + rows) % rows
	s.form.inputs[s.form.focus].Blur()
	if pos == roleField {
		s.onRole = true
		return nil
	}
	s.onRole = false
	if pos > roleField {
		pos--
	}
	s.form.focus = pos
	return s.form.inputs[pos].Focus()
}

func (s *SignupScreen) signupForm() gateway.SignupForm {
	return gateway.SignupForm{
		Email:           s.form.value("email"),
		Username:        s.form.value("username"),
		Role:            gateway.Roles[s.role],
		Language:        s.env.Language(),
		Password:        s.form.rawValue("password"),
		ConfirmPassword: s.form.rawValue("confirm_password"),
	}
}

func (s *SignupScreen) showError(err error) {
	s.form.showError(err, "")
	s.roleErr = ""
	var verr *gateway.ValidationError
	if errors.As(err, &verr) {
		s.roleErr = verr.Fields["role"]
	}
}

func (s *SignupScreen) submit() tea.Cmd {
	f := s.signupForm()
	if err := gateway.Validate(f); err != nil {
		s.showError(err)
		return nil
	}
	s.form.clearErrors()
	s.roleErr = ""
	s.sending = true

	gw, sh, ctx := s.env.Gateway, s.env.Shell, s.env.Context()
	identifier := f.Username
	if identifier == "" {
		identifier = f.Email
	}
	return func() tea.Msg {
		if err := gw.Signup(ctx, f); err != nil {
			return loggedInMsg{Err: err}
		}
		st, err := sh.Login(ctx, gateway.Credentials{Identifier: identifier, Password: f.Password})
		return loggedInMsg{State: st, Err: err}
	}
}

func (s *SignupScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loggedInMsg:
		s.sending = false
		if msg.Err != nil {
			s.showError(msg.Err)
			return s, nil
		}
		st := msg.State
		return s, func() tea.Msg { return screen.SessionChangedMsg{State: st, Route: shell.RouteHome} }

	case tea.KeyMsg:
		if s.sending {
			return s, nil
		}
		switch key := msg.String(); key {
		case "esc":
			return s, router.Pop
		case "tab", "down":
			return s, s.moveTo(s.position() + 1)
		case "shift+tab", "up":
			return s, s.moveTo(s.position() - 1)
		case "enter":
			if s.position() < len(s.form.inputs) {
				return s, s.moveTo(s.position() + 1)
			}
			return s, s.submit()
		case "ctrl+l":
			return s, func() tea.Msg {
				return router.NavigateMsg{Route: shell.RouteLogin, Replace: true}
			}
		case "left", "right":
			if s.onRole {
				delta := 1
				if key == "left" {
					delta = -1
				}
				s.role = (s.role + delta + len(gateway.Roles)) % len(gateway.Roles)
				return s, nil
			}
		}
		if s.onRole {
			return s, nil
		}
	}
	return s, s.form.update(msg)
}

func roleLabel(role string) string {
	if role == "" {
		return ""
	}
	return strings.ReplaceAll(strings.ToUpper(role[:1])+role[1:], "_", " ")
}

func (s *SignupScreen) renderRole() string {
	label := lipgloss.NewStyle().Foreground(theme.TextDim)
	value := lipgloss.NewStyle().Foreground(theme.Text)
	if s.onRole {
		label = lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
		value = lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true)
	}
	out := label.Render("I am a") + "\n" +
		value.Render(fmt.Sprintf("◂ %s ▸", roleLabel(gateway.Roles[s.role])))
	if s.roleErr != "" {
		out += "\n" + lipgloss.NewStyle().Foreground(theme.Error).Render("  "+s.roleErr)
	}
	return out + "\n"
}

func (s *SignupScreen) View(width, height int) string {
	// The role picker sits after the username input.
	body := theme.Title.Render("Create your account") + "\n\n" +
		s.form.view(map[int]string{roleField - 1: "\n" + s.renderRole()})
	if s.sending {
		body += theme.Hint.Render("Creating your account...")
	} else {
		body += theme.Hint.Render("Use an email, a username, or both. Ctrl+L signs in instead.")
	}
	return components.CenteredCard(body, width, 64)
}
