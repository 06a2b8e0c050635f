package account

import (
	"errors"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/conceptclarity/clarity/internal/gateway"
	"github.com/conceptclarity/clarity/internal/router"
	"github.com/conceptclarity/clarity/internal/screen"
	"github.com/conceptclarity/clarity/internal/ui/components"
	"github.com/conceptclarity/clarity/internal/ui/layout"
	"github.com/conceptclarity/clarity/internal/ui/theme"
)

type profileLoadedMsg struct {
	Profile *gateway.Profile
	Err     error
}

type profileSavedMsg struct {
	Update gateway.ProfileUpdate
	Err    error
}

// ProfileScreen shows and edits the signed-in user's profile.
type ProfileScreen struct {
	env     *screen.Env
	profile *gateway.Profile
	form    form
	sending bool
	notice  string
}

var _ screen.Screen = (*ProfileScreen)(nil)
var _ screen.KeyHintProvider = (*ProfileScreen)(nil)

// NewProfile creates a ProfileScreen.
func NewProfile(env *screen.Env) *ProfileScreen {
	s := &ProfileScreen{env: env}
	s.form.add("username", components.NewTextInput("Username", "", 20))
	s.form.add("first_name", components.NewTextInput("First name", "", 50))
	s.form.add("last_name", components.NewTextInput("Last name", "", 50))
	return s
}

func (s *ProfileScreen) Init() tea.Cmd {
	sh, ctx := s.env.Shell, s.env.Context()
	return func() tea.Msg {
		p, err := sh.Profile(ctx)
		return profileLoadedMsg{Profile: p, Err: err}
	}
}

func (s *ProfileScreen) Title() string {
	return "Profile"
}

func (s *ProfileScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Save"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *ProfileScreen) save() tea.Cmd {
	update := gateway.ProfileUpdate{
		Username:  s.form.value("username"),
		FirstName: s.form.value("first_name"),
		LastName:  s.form.value("last_name"),
	}
	if err := gateway.Validate(update); err != nil {
		s.form.showError(err, "")
		return nil
	}
	s.form.clearErrors()
	s.notice = ""
	s.sending = true
	gw, ctx := s.env.Gateway, s.env.Context()
	return func() tea.Msg {
		return profileSavedMsg{Update: update, Err: gw.UpdateProfile(ctx, update)}
	}
}

func (s *ProfileScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case profileLoadedMsg:
		if errors.Is(msg.Err, gateway.ErrAuth) {
			return s, screen.ExpireSession
		}
		if msg.Err != nil {
			s.form.showError(msg.Err, "")
			return s, nil
		}
		s.profile = msg.Profile
		s.form.inputs[0].SetValue(msg.Profile.Username)
		s.form.inputs[1].SetValue(msg.Profile.FirstName)
		s.form.inputs[2].SetValue(msg.Profile.LastName)
		return s, s.form.start()

	case profileSavedMsg:
		s.sending = false
		if errors.Is(msg.Err, gateway.ErrAuth) {
			return s, screen.ExpireSession
		}
		if msg.Err != nil {
			s.form.showError(msg.Err, "")
			return s, nil
		}
		s.notice = "Profile saved."
		if s.env.State == nil || msg.Update.Username == "" || msg.Update.Username == s.env.State.Username {
			return s, nil
		}
		st := *s.env.State
		st.Username = msg.Update.Username
		return s, func() tea.Msg { return screen.SessionChangedMsg{State: st} }

	case tea.KeyMsg:
		if s.sending || s.profile == nil {
			if msg.String() == "esc" {
				return s, router.Pop
			}
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
			return s, s.save()
		}
	}
	if s.profile == nil {
		return s, nil
	}
	return s, s.form.update(msg)
}

func (s *ProfileScreen) View(width, height int) string {
	if s.profile == nil {
		msg := "Loading profile..."
		if s.form.errMsg != "" {
			msg = s.form.errMsg
		}
		return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).
			Foreground(theme.TextDim).Render("\n\n" + msg)
	}

	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	info := dim.Render(fmt.Sprintf("Role: %s", roleLabel(s.profile.Role)))
	if s.profile.Email != "" {
		info += dim.Render("   Email: " + s.profile.Email)
	}
	body := theme.Title.Render("Your profile") + "\n" + info + "\n\n" + s.form.view(nil)
	switch {
	case s.sending:
		body += theme.Hint.Render("Saving...")
	case s.notice != "":
		body += lipgloss.NewStyle().Foreground(theme.Success).Bold(true).Render(s.notice)
	}
	return components.CenteredCard(body, width, 60)
}
