package search

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/conceptclarity/clarity/internal/gateway"
	lookup "github.com/conceptclarity/clarity/internal/search"
	"github.com/conceptclarity/clarity/internal/ui/components"
	"github.com/conceptclarity/clarity/internal/ui/theme"
)

func (s *SearchScreen) render(width, height int) string {
	cw := components.ContentWidth(width)
	var b strings.Builder

	b.WriteString(s.input.View())
	b.WriteString("\n")
	b.WriteString(s.renderLevelLine())
	b.WriteString("\n\n")

	switch {
	case s.loading:
		b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render("Thinking about it..."))
	case s.errMsg != "":
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Error).Render("Error: " + s.errMsg))
	case s.result != nil:
		b.WriteString(renderResult(s.result, s.mediaPending, cw))
	default:
		b.WriteString(renderSuggestions())
	}

	if s.notice != "" {
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Accent).Render(s.notice))
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(1, 3).
		Render(b.String())
}

func (s *SearchScreen) renderLevelLine() string {
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	line := dim.Render("Level: ") +
		lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render(levelLabel(s.level))
	if s.remaining >= 0 {
		line += dim.Render("   " + remainingLabel(s.remaining))
	}
	return line
}

func renderSuggestions() string {
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	var b strings.Builder
	b.WriteString(dim.Render("Popular concepts:"))
	for _, term := range lookup.PopularTerms {
		b.WriteString("\n  • ")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Render(term))
	}
	return b.String()
}

func renderResult(r *lookup.Result, mediaPending bool, cw int) string {
	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(r.Term))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Width(cw).Render(r.Definition))

	if len(r.Examples) > 0 {
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render("Examples"))
		for _, ex := range r.Examples {
			b.WriteString("\n")
			b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Width(cw).Render("  • " + ex))
		}
	}

	if len(r.RelatedWords) > 0 {
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render("Related"))
		b.WriteString("\n  ")
		parts := make([]string, 0, len(r.RelatedWords))
		for i, w := range r.RelatedWords {
			if i >= 9 {
				break
			}
			parts = append(parts, fmt.Sprintf("[%d] %s", i+1, w))
		}
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Render(strings.Join(parts, "  ")))
	}

	b.WriteString("\n\n")
	b.WriteString(renderMedia(r.Media, mediaPending))

	if r.HistoryID != nil {
		b.WriteString("\n")
		b.WriteString(renderFeedback(r.Feedback))
	}
	return b.String()
}

func renderMedia(m *gateway.Media, pending bool) string {
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	switch {
	case m != nil && m.VideoID != "":
		return dim.Render("Video: ") + "https://www.youtube.com/watch?v=" + m.VideoID
	case m != nil && m.ImageURL != "":
		return dim.Render("Image: ") + m.ImageURL
	case pending:
		return dim.Render("Looking for an illustration...")
	}
	return dim.Render("No illustration found.")
}

func renderFeedback(value int) string {
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	current := "not rated"
	switch value {
	case 1:
		current = lipgloss.NewStyle().Foreground(theme.Success).Render("helpful")
	case -1:
		current = lipgloss.NewStyle().Foreground(theme.Error).Render("not helpful")
	}
	return dim.Render("Was this helpful? ") + current
}
