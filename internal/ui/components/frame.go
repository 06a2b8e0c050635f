package components

import (
	"charm.land/lipgloss/v2"

	"github.com/conceptclarity/clarity/internal/ui/theme"
)

const (
	maxContentWidth = 72
	minContentWidth = 20
	// frameInset is the frame border plus the inner padding.
	frameInset = 6
)

// ContentWidth is the width every boxed section of a screen is drawn at,
// so cards and menus line up.
func ContentWidth(frameWidth int) int {
	return max(minContentWidth, min(frameWidth-frameInset, maxContentWidth))
}

// Frame centers content inside a double border filling width x height.
func Frame(content string, width, height int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Primary).
		Width(width - 2).
		Height(height - 2).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

// Card draws content in a padded rounded box cw columns wide.
func Card(content string, cw int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Width(cw - 2).
		Padding(1, 2).
		Render(content)
}

// CenteredCard is a Card at most maxCW wide, centered in width. Forms use
// it to stay narrow on wide terminals.
func CenteredCard(content string, width, maxCW int) string {
	cw := min(ContentWidth(width), maxCW)
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, Card(content, cw))
}

// MenuButton draws one menu row, highlighted when selected.
func MenuButton(label string, selected bool, width int) string {
	style := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	if !selected {
		return style.Foreground(theme.Text).Render(label)
	}
	return style.
		Bold(true).
		Foreground(theme.BgDark).
		Background(theme.Gold).
		Render("▸ " + label)
}
