package quiz

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/conceptclarity/clarity/internal/gateway"
	quizctl "github.com/conceptclarity/clarity/internal/quiz"
	"github.com/conceptclarity/clarity/internal/ui/components"
	"github.com/conceptclarity/clarity/internal/ui/theme"
)

func (s *QuizScreen) View(width, height int) string {
	var body string
	switch {
	case s.confirmQuit:
		body = s.renderQuitConfirm(width)
	case s.review != nil:
		body = s.renderReview(width)
	default:
		switch s.ctrl.Phase() {
		case quizctl.PhaseNotStarted:
			body = s.renderSetup(width)
		case quizctl.PhaseAwaitingFullscreen:
			body = s.renderPrompt(width)
		case quizctl.PhaseLoading:
			body = renderLoading(width)
		case quizctl.PhaseActive:
			body = s.renderQuestion(width)
		case quizctl.PhaseViolated:
			body = s.renderPaused(width)
		default:
			body = renderLoading(width)
		}
	}
	return lipgloss.NewStyle().Width(width).Padding(1, 3).Render(body)
}

func levelLabel(l gateway.Level) string {
	return strings.ToUpper(string(l)[:1]) + string(l)[1:]
}

func (s *QuizScreen) renderSetup(width int) string {
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	var b strings.Builder

	b.WriteString(theme.Title.Render("Test what you've learned"))
	b.WriteString("\n\n")

	b.WriteString(dim.Render("Difficulty"))
	b.WriteString("\n")
	labels := make([]string, len(gateway.Levels))
	for i, l := range gateway.Levels {
		labels[i] = fmt.Sprintf("%s · %d questions · %s", levelLabel(l),
			quizctl.QuestionCount(l), components.Clock(int(quizctl.TimeLimit(l).Seconds())))
	}
	for i, label := range labels {
		b.WriteString(components.MenuButton(label, i == s.levelIdx, min(components.ContentWidth(width), 48)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("Topic: "))
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render(s.topic()))
	if len(s.topics) > 1 {
		b.WriteString(dim.Render(fmt.Sprintf("  (%d/%d, Tab to change)", s.topicIdx+1, len(s.topics))))
	}

	if s.busy {
		b.WriteString("\n\n")
		b.WriteString(dim.Render("Starting..."))
	}
	if s.errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Error).Render(s.errMsg))
	}
	return b.String()
}

func (s *QuizScreen) renderPrompt(width int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("Ready?"))
	b.WriteString("\n\n")
	b.WriteString(theme.Body.Width(components.ContentWidth(width)).Render(
		"The quiz runs focused. Keep this terminal in front: if it loses focus the timer pauses until you come back."))
	b.WriteString("\n\n")
	b.WriteString(components.ButtonRow([]string{"Begin"}, 0))
	return b.String()
}

func renderLoading(width int) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("\n\n  Preparing your quiz...")
}

func (s *QuizScreen) renderQuestion(width int) string {
	a := s.ctrl.Attempt()
	if a == nil || len(a.Questions) == 0 {
		return renderLoading(width)
	}
	cw := components.ContentWidth(width)
	var b strings.Builder

	info := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).
		Render(fmt.Sprintf("Q %d/%d", s.current+1, len(a.Questions)))
	info += lipgloss.NewStyle().Foreground(theme.TextDim).
		Render(fmt.Sprintf("   %s   answered %d/%d", levelLabel(a.Difficulty), a.Answered(), len(a.Questions)))
	b.WriteString(info)
	b.WriteString("\n")
	b.WriteString(components.Countdown(a.TimeRemaining, a.Allotted(), min(cw, 40)))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", cw)))
	b.WriteString("\n\n")

	b.WriteString(s.choice.View())
	b.WriteString("\n")
	b.WriteString(renderDots(a, s.current))

	if s.errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Error).Render(s.errMsg))
	}
	return b.String()
}

// renderDots shows one marker per question: filled when answered.
func renderDots(a *quizctl.Attempt, current int) string {
	parts := make([]string, len(a.Questions))
	for i := range a.Questions {
		mark := "○"
		style := lipgloss.NewStyle().Foreground(theme.TextDim)
		if _, ok := a.Answers[i]; ok {
			mark = "●"
			style = lipgloss.NewStyle().Foreground(theme.Secondary)
		}
		if i == current {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		parts[i] = style.Render(mark)
	}
	return strings.Join(parts, " ")
}

func (s *QuizScreen) renderPaused(width int) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Error).Bold(true).Render("Quiz paused"))
	b.WriteString("\n\n")
	b.WriteString(theme.Body.Width(components.ContentWidth(width)).Render(
		"The terminal lost focus. Come back to this window to continue; the timer is stopped."))
	if a := s.ctrl.Attempt(); a != nil {
		b.WriteString("\n\n")
		b.WriteString(theme.Hint.Render("Time left " + components.Clock(a.TimeRemaining)))
	}
	return b.String()
}

func (s *QuizScreen) renderReview(width int) string {
	var b strings.Builder
	b.WriteString(theme.Warning.Render(fmt.Sprintf("%d question(s) unanswered", len(s.review.Unanswered))))
	b.WriteString("\n\n")

	targets := s.reviewTargets()
	row := func(label string, idx []int, offset int) {
		b.WriteString(theme.Hint.Render(label))
		b.WriteString("\n")
		if len(idx) == 0 {
			b.WriteString(theme.Hint.Render("  none"))
		}
		for i, q := range idx {
			style := theme.Unselected
			if offset+i == s.reviewCursor {
				style = theme.Selected
			}
			b.WriteString(style.Render(fmt.Sprintf(" %d ", q+1)))
		}
		b.WriteString("\n\n")
	}
	row("Unanswered", s.review.Unanswered, 0)
	row("Answered", s.review.Answered, len(s.review.Unanswered))

	if len(targets) > 0 {
		b.WriteString(theme.Hint.Render("Enter jumps to the highlighted question. Y submits as it is."))
	}
	return b.String()
}

func (s *QuizScreen) renderQuitConfirm(width int) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Render("Leave this quiz?"))
	b.WriteString("\n\n")
	b.WriteString(theme.Body.Width(components.ContentWidth(width)).Render(
		"Your answers will be discarded and nothing is saved."))
	b.WriteString("\n\n")
	b.WriteString(theme.Hint.Render("Y to leave · N to keep going"))
	return b.String()
}
