// Package summary shows the outcome of a finished quiz.
package summary

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/conceptclarity/clarity/internal/quiz"
	"github.com/conceptclarity/clarity/internal/router"
	"github.com/conceptclarity/clarity/internal/screen"
	"github.com/conceptclarity/clarity/internal/screens/search"
	"github.com/conceptclarity/clarity/internal/shell"
	"github.com/conceptclarity/clarity/internal/ui/components"
	"github.com/conceptclarity/clarity/internal/ui/layout"
	"github.com/conceptclarity/clarity/internal/ui/theme"
)

// maxMissedShortcuts is how many missed topics get a number key.
const maxMissedShortcuts = 9

// SummaryScreen displays the outcome of a quiz attempt.
type SummaryScreen struct {
	env     *screen.Env
	outcome *quiz.Outcome
	offset  int
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a new SummaryScreen.
func New(env *screen.Env, outcome *quiz.Outcome) *SummaryScreen {
	return &SummaryScreen{env: env, outcome: outcome}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Results"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "R", Description: "Retake"},
		{Key: "L", Description: "Leaderboard"},
		{Key: "↑↓", Description: "Scroll"},
	}
	if s.outcome != nil && len(s.outcome.MissedTopics) > 0 {
		hints = append(hints, layout.KeyHint{Key: "1-9", Description: "Study topic"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Home"})
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || s.outcome == nil {
		return s, nil
	}

	switch key := kmsg.String(); key {
	case "enter", "esc":
		return s, router.Pop
	case "r", "R":
		return s, func() tea.Msg {
			return router.NavigateMsg{Route: shell.RouteQuiz, Replace: true}
		}
	case "l", "L":
		return s, router.Navigate(shell.RouteLeaderboard)
	case "up", "k":
		if s.offset > 0 {
			s.offset--
		}
	case "down", "j":
		if s.offset < len(s.outcome.Review)-1 {
			s.offset++
		}
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			i := int(key[0] - '1')
			if i < len(s.outcome.MissedTopics) {
				next := search.New(s.env, s.outcome.MissedTopics[i])
				return s, func() tea.Msg { return router.PushScreenMsg{Screen: next} }
			}
		}
	}
	return s, nil
}

// formatDuration renders seconds as "3m 05s".
func formatDuration(seconds int) string {
	d := time.Duration(seconds) * time.Second
	return fmt.Sprintf("%dm %02ds", int(d.Minutes()), seconds%60)
}

// verdict is the one-line reaction to a percentage.
func verdict(pct float64) string {
	switch {
	case pct >= 90:
		return "Outstanding!"
	case pct >= 70:
		return "Great work!"
	case pct >= 50:
		return "Good effort."
	}
	return "Keep studying, you'll get there."
}

func (s *SummaryScreen) View(width, height int) string {
	out := s.outcome
	if out == nil {
		return ""
	}
	center := func(style lipgloss.Style, text string) string {
		return style.Width(width).Align(lipgloss.Center).Render(text)
	}

	var b strings.Builder

	b.WriteString(center(lipgloss.NewStyle().Foreground(theme.Primary).Bold(true), "Quiz complete!"))
	b.WriteString("\n\n")

	b.WriteString(center(lipgloss.NewStyle().Foreground(theme.Gold).Bold(true),
		fmt.Sprintf("%d / %d   (%.0f%%)", out.Score, out.Total, out.Percentage())))
	b.WriteString("\n")
	b.WriteString(center(lipgloss.NewStyle().Foreground(theme.Text), verdict(out.Percentage())))
	b.WriteString("\n\n")

	b.WriteString(center(lipgloss.NewStyle().Foreground(theme.TextDim),
		fmt.Sprintf("Difficulty: %s        Time: %s", out.Difficulty, formatDuration(out.TimeTaken))))
	b.WriteString("\n")
	saved := lipgloss.NewStyle().Foreground(theme.Success).Render("Result saved")
	if !out.Reported {
		saved = theme.Warning.Render("Result not saved; the server could not be reached")
	}
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, saved))
	b.WriteString("\n\n")

	if len(out.MissedTopics) > 0 {
		b.WriteString(s.renderMissed(width))
		b.WriteString("\n")
	}

	if len(out.Leaderboard) > 0 {
		highlight := ""
		if s.env != nil && s.env.State != nil {
			highlight = s.env.State.Username
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			components.Podium(out.Leaderboard, highlight)))
		b.WriteString("\n\n")
	}

	b.WriteString(s.renderReview(width, height))
	return b.String()
}

func (s *SummaryScreen) renderMissed(width int) string {
	var b strings.Builder
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		lipgloss.NewStyle().Foreground(theme.TextDim).Render("Topics to revisit")))
	b.WriteString("\n")
	var parts []string
	for i, topic := range s.outcome.MissedTopics {
		if i >= maxMissedShortcuts {
			break
		}
		key := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(fmt.Sprintf("%d", i+1))
		parts = append(parts, key+" "+lipgloss.NewStyle().Foreground(theme.Accent).Render(topic))
	}
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, strings.Join(parts, "   ")))
	b.WriteString("\n")
	return b.String()
}

// renderReview lists each question with the chosen and correct answers,
// starting at the scroll offset.
func (s *SummaryScreen) renderReview(width, height int) string {
	cw := components.ContentWidth(width)
	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", cw))

	var b strings.Builder
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		lipgloss.NewStyle().Foreground(theme.TextDim).Render("Review")))
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
	b.WriteString("\n")

	visible := max(1, (height-20)/4)
	end := min(len(s.outcome.Review), s.offset+visible)
	for i := s.offset; i < end; i++ {
		qr := s.outcome.Review[i]
		mark := theme.Correct.Render("✓")
		if !qr.Correct {
			mark = theme.Incorrect.Render("✗")
		}
		chosen := qr.Chosen
		if chosen == "" {
			chosen = "(no answer)"
		}
		block := fmt.Sprintf("%s %d. %s\n   You: %s   Answer: %s",
			mark, i+1, qr.Question.Prompt, chosen,
			lipgloss.NewStyle().Foreground(theme.Success).Render(qr.Question.Answer))
		if qr.Question.Explanation != "" {
			block += "\n   " + theme.Hint.Render(qr.Question.Explanation)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			lipgloss.NewStyle().Width(cw).Render(block)))
		b.WriteString("\n")
	}
	if end < len(s.outcome.Review) {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			theme.Hint.Render(fmt.Sprintf("%d more below", len(s.outcome.Review)-end))))
	}
	return b.String()
}
