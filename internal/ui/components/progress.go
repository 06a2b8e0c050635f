package components

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/conceptclarity/clarity/internal/ui/theme"
)

// ProgressBar displays a horizontal progress bar.
type ProgressBar struct {
	Label   string
	Percent float64
	Width   int
	// Fill overrides the filled color. Nil uses the secondary color.
	Fill color.Color
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var result string

	if p.Label != "" {
		result += lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label) + "  "
	}

	barWidth := p.Width - lipgloss.Width(result)
	if barWidth < 4 {
		barWidth = 4
	}

	filled := int(float64(barWidth) * p.Percent)
	filled = max(0, min(filled, barWidth))

	fill := p.Fill
	if fill == nil {
		fill = theme.Secondary
	}

	result += lipgloss.NewStyle().Background(fill).Render(strings.Repeat(" ", filled))
	result += lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", barWidth-filled))
	return result
}

// Clock formats seconds as m:ss.
func Clock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// Countdown renders the remaining time as a clock and a draining bar. The
// bar turns orange under a fifth of the allotted time and red under a
// tenth.
func Countdown(remaining, allotted, width int) string {
	pct := 0.0
	if allotted > 0 {
		pct = float64(remaining) / float64(allotted)
	}
	fill := theme.Secondary
	switch {
	case pct <= 0.1:
		fill = theme.Error
	case pct <= 0.2:
		fill = theme.Accent
	}
	label := lipgloss.NewStyle().Foreground(fill).Bold(true).Render("⏱ " + Clock(remaining))
	bar := ProgressBar{Percent: pct, Width: width - lipgloss.Width(label) - 2, Fill: fill}
	return label + "  " + bar.View()
}
