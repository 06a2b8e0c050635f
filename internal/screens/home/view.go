package home

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/conceptclarity/clarity/internal/shell"
	"github.com/conceptclarity/clarity/internal/ui/components"
	"github.com/conceptclarity/clarity/internal/ui/theme"
)

const titleFull = ` ██████╗██╗      █████╗ ██████╗ ██╗████████╗██╗   ██╗
██╔════╝██║     ██╔══██╗██╔══██╗██║╚══██╔══╝╚██╗ ██╔╝
██║     ██║     ███████║██████╔╝██║   ██║    ╚████╔╝
██║     ██║     ██╔══██║██╔══██╗██║   ██║     ╚██╔╝
╚██████╗███████╗██║  ██║██║  ██║██║   ██║      ██║
 ╚═════╝╚══════╝╚═╝  ╚═╝╚═╝  ╚═╝╚═╝   ╚═╝      ╚═╝`

const titleCompact = "C O N C E P T · C L A R I T Y"

// renderTitle returns the block title or the compact fallback.
func renderTitle(cw int, compact bool) string {
	art := titleFull
	if compact {
		art = titleCompact
	}
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Foreground(theme.Gold).
		Bold(true).
		Render(art)
}

func renderTagline(cw int) string {
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Italic(true).
		Render("Any concept, explained at your level.")
}

// renderStatusBar shows who is signed in and the preferences.
func renderStatusBar(st shell.State, cw int) string {
	userStyle := lipgloss.NewStyle().Foreground(theme.Gold).Bold(true)
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)

	who := userStyle.Render("GUEST")
	if st.Authenticated {
		who = userStyle.Render("★ " + strings.ToUpper(st.Username))
	}
	parts := []string{who, dim.Render(language(st).Name())}
	if st.Admin {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.Accent).Render("ADMIN"))
	}
	if st.Offline {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.Error).Render("OFFLINE"))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Secondary).
		Width(cw).
		Align(lipgloss.Center).
		Render(strings.Join(parts, dim.Render("  ·  ")))
}

func renderMenu(m components.Menu, cw int) string {
	rows := make([]string, len(m.Items))
	for i, item := range m.Items {
		rows[i] = components.MenuButton(item.Label, i == m.Selected, cw-4)
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Width(cw).
		Render(strings.Join(rows, "\n"))
	if item, ok := m.Current(); ok && item.Hint != "" {
		box += "\n" + lipgloss.NewStyle().
			Width(cw).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render(item.Hint)
	}
	return box
}

func renderError(msg string, cw int) string {
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Foreground(theme.Error).
		Render(msg)
}
