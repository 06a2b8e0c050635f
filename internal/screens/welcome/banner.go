package welcome

import (
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/conceptclarity/clarity/internal/ui/theme"
)

var bannerLines = []string{
	"┌─┐┌─┐┌┐┌┌─┐┌─┐┌─┐┌┬┐  ┌─┐┬  ┌─┐┬─┐┬┌┬┐┬ ┬",
	"│  │ ││││├┤ ├┤ ├─┘ │   │  │  ├─┤├┬┘│ │ └┬┘",
	"└─┘└─┘┘└┘└─┘└─┘┴   ┴   └─┘┴─┘┴ ┴┴└─┴ ┴  ┴ ",
}

// bannerMinWidth is the narrowest terminal that fits the drawn wordmark.
const bannerMinWidth = 48

// RenderBanner draws the wordmark, one theme color per row, or the plain
// name on narrow terminals.
func RenderBanner(width int) string {
	if width < bannerMinWidth {
		return lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render("ConceptClarity")
	}
	colors := []color.Color{theme.Primary, theme.Secondary, theme.Accent}
	rows := make([]string, len(bannerLines))
	for i, line := range bannerLines {
		rows[i] = lipgloss.NewStyle().Foreground(colors[i%len(colors)]).Bold(true).Render(line)
	}
	return "\n" + strings.Join(rows, "\n")
}
