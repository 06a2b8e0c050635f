// Package review lets a signed-in user rate the service.
package review

import (
	"errors"
	"net/http"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/conceptclarity/clarity/internal/gateway"
	"github.com/conceptclarity/clarity/internal/router"
	"github.com/conceptclarity/clarity/internal/screen"
	"github.com/conceptclarity/clarity/internal/ui/components"
	"github.com/conceptclarity/clarity/internal/ui/layout"
	"github.com/conceptclarity/clarity/internal/ui/theme"
)

const maxComment = 1000

type reviewLoadedMsg struct {
	Review *gateway.Review
	Err    error
}

type reviewSubmittedMsg struct {
	Err error
}

// ReviewScreen edits the user's single review.
type ReviewScreen struct {
	env       *screen.Env
	rating    int
	comment   components.TextInput
	existing  bool
	loaded    bool
	sending   bool
	ratingErr string
	notice    string
	errMsg    string
}

var _ screen.Screen = (*ReviewScreen)(nil)
var _ screen.KeyHintProvider = (*ReviewScreen)(nil)

// New creates a ReviewScreen with the stars focused.
func New(env *screen.Env) *ReviewScreen {
	s := &ReviewScreen{
		env:     env,
		comment: components.NewTextInput("Comment (optional)", "What did you like? What should improve?", maxComment),
	}
	s.comment.Blur()
	return s
}

func (s *ReviewScreen) Init() tea.Cmd {
	gw, ctx := s.env.Gateway, s.env.Context()
	return func() tea.Msg {
		rv, err := gw.MyReview(ctx)
		return reviewLoadedMsg{Review: rv, Err: err}
	}
}

func (s *ReviewScreen) Title() string {
	return "Review"
}

func (s *ReviewScreen) KeyHints() []layout.KeyHint {
	if s.comment.Focused() {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Submit"},
			{Key: "Tab", Description: "Rating"},
			{Key: "Esc", Description: "Back"},
		}
	}
	return []layout.KeyHint{
		{Key: "1-5", Description: "Rate"},
		{Key: "Tab", Description: "Comment"},
		{Key: "Enter", Description: "Submit"},
		{Key: "Esc", Description: "Back"},
	}
}

// notFound reports whether err is the backend saying there is no review.
func notFound(err error) bool {
	var te *gateway.TransportError
	return errors.As(err, &te) && te.Status == http.StatusNotFound
}

func (s *ReviewScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case reviewLoadedMsg:
		s.loaded = true
		switch {
		case msg.Err == nil && msg.Review != nil:
			s.existing = true
			s.rating = msg.Review.Rating
			s.comment.SetValue(msg.Review.Comment)
		case notFound(msg.Err):
		case errors.Is(msg.Err, gateway.ErrAuth):
			return s, screen.ExpireSession
		case msg.Err != nil:
			s.errMsg = msg.Err.Error()
		}
		return s, nil

	case reviewSubmittedMsg:
		s.sending = false
		return s, s.handleSubmitted(msg.Err)

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.comment.Focused() {
		var cmd tea.Cmd
		s.comment, cmd = s.comment.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *ReviewScreen) handleSubmitted(err error) tea.Cmd {
	var verr *gateway.ValidationError
	switch {
	case err == nil:
		s.existing = true
		s.notice = "Thanks for your review!"
	case errors.As(err, &verr):
		s.ratingErr = verr.Fields["rating"]
		s.comment.Err = verr.Fields["comment"]
		if s.ratingErr == "" && s.comment.Err == "" {
			s.errMsg = verr.Message("")
		}
	case errors.Is(err, gateway.ErrAuth):
		return screen.ExpireSession
	default:
		s.errMsg = err.Error()
	}
	return nil
}

func (s *ReviewScreen) submit() tea.Cmd {
	s.ratingErr, s.comment.Err, s.errMsg, s.notice = "", "", "", ""
	form := gateway.ReviewForm{Rating: s.rating, Comment: strings.TrimSpace(s.comment.Value())}
	if err := gateway.Validate(form); err != nil {
		s.handleSubmitted(err)
		return nil
	}
	s.sending = true
	gw, ctx := s.env.Gateway, s.env.Context()
	return func() tea.Msg {
		return reviewSubmittedMsg{Err: gw.SubmitReview(ctx, form)}
	}
}

func (s *ReviewScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if s.sending {
		return s, nil
	}
	key := msg.String()

	switch key {
	case "esc":
		return s, router.Pop
	case "tab", "shift+tab":
		if s.comment.Focused() {
			s.comment.Blur()
			return s, nil
		}
		return s, s.comment.Focus()
	case "enter":
		return s, s.submit()
	}

	if s.comment.Focused() {
		var cmd tea.Cmd
		s.comment, cmd = s.comment.Update(msg)
		return s, cmd
	}

	switch key {
	case "1", "2", "3", "4", "5":
		s.rating = int(key[0] - '0')
	case "left", "h":
		s.rating = max(1, s.rating-1)
	case "right", "l":
		s.rating = min(5, s.rating+1)
	}
	return s, nil
}

func (s *ReviewScreen) renderStars() string {
	var b strings.Builder
	for i := 1; i <= 5; i++ {
		if i <= s.rating {
			b.WriteString(lipgloss.NewStyle().Foreground(theme.Gold).Bold(true).Render("★ "))
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render("☆ "))
		}
	}
	return b.String()
}

func (s *ReviewScreen) View(width, height int) string {
	if !s.loaded {
		return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).
			Foreground(theme.TextDim).Render("\n\n  Loading your review...")
	}
	cw := components.ContentWidth(width)
	var b strings.Builder

	heading := "How are we doing?"
	if s.existing {
		heading = "Update your review"
	}
	b.WriteString(theme.Title.Render(heading))
	b.WriteString("\n\n")

	label := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
	if s.comment.Focused() {
		label = lipgloss.NewStyle().Foreground(theme.TextDim)
	}
	b.WriteString(label.Render("Rating"))
	b.WriteString("\n")
	b.WriteString(s.renderStars())
	if s.ratingErr != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Error).Render("  Rating " + s.ratingErr))
	}
	b.WriteString("\n\n")

	b.WriteString(s.comment.View())
	b.WriteString("\n\n")

	switch {
	case s.sending:
		b.WriteString(theme.Hint.Render("Sending..."))
	case s.notice != "":
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Success).Bold(true).Render(s.notice))
	case s.errMsg != "":
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Error).Width(cw).Render("Error: " + s.errMsg))
	}

	return lipgloss.NewStyle().Width(width).Padding(1, 3).Render(b.String())
}
