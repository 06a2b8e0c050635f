package components

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/conceptclarity/clarity/internal/gateway"
	"github.com/conceptclarity/clarity/internal/ui/theme"
)

// medalColor returns the podium color for a 1-based rank.
func medalColor(rank int) color.Color {
	switch rank {
	case 1:
		return theme.Gold
	case 2:
		return theme.Silver
	case 3:
		return theme.Bronze
	}
	return theme.Text
}

// Podium renders the top three entries side by side, second place on the
// left and third on the right.
func Podium(entries []gateway.LeaderboardEntry, highlight string) string {
	if len(entries) == 0 {
		return lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true).
			Render("No scores yet. Be the first!")
	}

	heights := map[int]int{1: 3, 2: 2, 3: 1}
	var cols []string
	for _, e := range podiumOrder(entries) {
		name := e.Username
		if name == highlight {
			name = "▸ " + name
		}
		block := lipgloss.NewStyle().
			Width(14).
			Height(heights[e.Rank]).
			Align(lipgloss.Center).
			Background(medalColor(e.Rank)).
			Foreground(theme.BgDark).
			Bold(true).
			Render(fmt.Sprintf("#%d", e.Rank))
		label := lipgloss.NewStyle().
			Width(14).
			Align(lipgloss.Center).
			Foreground(medalColor(e.Rank)).
			Render(name + "\n" + fmt.Sprintf("%d/%d", e.Score, e.TotalQuestions))
		cols = append(cols, lipgloss.JoinVertical(lipgloss.Center, label, block))
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, cols...)
}

// podiumOrder returns the top three as second, first, third.
func podiumOrder(entries []gateway.LeaderboardEntry) []gateway.LeaderboardEntry {
	var out []gateway.LeaderboardEntry
	for _, i := range []int{1, 0, 2} {
		if i < len(entries) {
			out = append(out, entries[i])
		}
	}
	return out
}

// RankTable renders entries as rank, name and score rows.
func RankTable(entries []gateway.LeaderboardEntry, highlight string) string {
	var b strings.Builder
	for _, e := range entries {
		style := lipgloss.NewStyle().Foreground(medalColor(e.Rank))
		if e.Username == highlight {
			style = style.Bold(true).Underline(true)
		}
		b.WriteString(style.Render(fmt.Sprintf("%3d.  %-20s %3d/%d", e.Rank, e.Username, e.Score, e.TotalQuestions)))
		b.WriteString("\n")
	}
	return b.String()
}
