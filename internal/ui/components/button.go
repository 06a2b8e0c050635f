package components

import (
	"strings"

	"github.com/conceptclarity/clarity/internal/ui/theme"
)

// Button is a styled choice such as a confirm/cancel pair.
type Button struct {
	Label  string
	Active bool
}

// View renders the button.
func (b Button) View() string {
	if b.Active {
		return theme.ButtonActive.Render("▸ " + b.Label)
	}
	return theme.ButtonInactive.Render(b.Label)
}

// ButtonRow renders buttons side by side with the one at selected active.
func ButtonRow(labels []string, selected int) string {
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = Button{Label: l, Active: i == selected}.View()
	}
	return strings.Join(parts, "  ")
}
