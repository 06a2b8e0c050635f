// Package placeholder is the screen shown for a route the app cannot open.
package placeholder

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/conceptclarity/clarity/internal/router"
	"github.com/conceptclarity/clarity/internal/screen"
	"github.com/conceptclarity/clarity/internal/shell"
	"github.com/conceptclarity/clarity/internal/ui/layout"
	"github.com/conceptclarity/clarity/internal/ui/theme"
)

// PlaceholderScreen explains why a page is missing and offers a way out.
type PlaceholderScreen struct {
	title   string
	message string
}

var _ screen.Screen = (*PlaceholderScreen)(nil)

func New(title, message string) *PlaceholderScreen {
	return &PlaceholderScreen{title: title, message: message}
}

func (p *PlaceholderScreen) Init() tea.Cmd { return nil }

func (p *PlaceholderScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	switch k.String() {
	case "enter":
		return p, router.Pop
	case "h":
		return p, func() tea.Msg {
			return router.NavigateMsg{Route: shell.RouteHome, Replace: true}
		}
	}
	return p, nil
}

func (p *PlaceholderScreen) View(width, height int) string {
	body := theme.Title.Render(p.title) + "\n\n" +
		theme.Body.Render(p.message) + "\n\n" +
		theme.Hint.Render("enter goes back · h opens the menu")
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, body)
}

func (p *PlaceholderScreen) Title() string { return p.title }

func (p *PlaceholderScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "enter", Description: "back"},
		{Key: "h", Description: "home"},
	}
}
