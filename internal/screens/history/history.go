// Package history lists the signed-in user's past searches.
package history

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/conceptclarity/clarity/internal/gateway"
	"github.com/conceptclarity/clarity/internal/router"
	"github.com/conceptclarity/clarity/internal/screen"
	"github.com/conceptclarity/clarity/internal/screens/search"
	"github.com/conceptclarity/clarity/internal/ui/components"
	"github.com/conceptclarity/clarity/internal/ui/layout"
	"github.com/conceptclarity/clarity/internal/ui/theme"
)

type historyLoadedMsg struct {
	Items []gateway.HistoryItem
	Err   error
}

// historyChangedMsg reports a delete or clear. A zero ID means cleared.
type historyChangedMsg struct {
	ID  int64
	Err error
}

// HistoryScreen displays past searches, newest first.
type HistoryScreen struct {
	env          *screen.Env
	items        []gateway.HistoryItem
	selected     int
	expanded     map[int64]bool
	loaded       bool
	confirmClear bool
	errMsg       string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)
var _ screen.EscapeHandler = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(env *screen.Env) *HistoryScreen {
	return &HistoryScreen{
		env:      env,
		expanded: make(map[int64]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	return s.load()
}

func (s *HistoryScreen) load() tea.Cmd {
	gw, ctx := s.env.Gateway, s.env.Context()
	return func() tea.Msg {
		items, err := gw.History(ctx)
		return historyLoadedMsg{Items: items, Err: err}
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) HandlesEscape() bool {
	return s.confirmClear
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	if s.confirmClear {
		return []layout.KeyHint{
			{Key: "Y", Description: "Clear all"},
			{Key: "N", Description: "Cancel"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Search again"},
		{Key: "Space", Description: "Details"},
		{Key: "D", Description: "Delete"},
		{Key: "C", Description: "Clear"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		s.loaded = true
		if msg.Err != nil {
			return s, s.handleErr(msg.Err)
		}
		s.errMsg = ""
		s.items = msg.Items
		s.selected = min(s.selected, max(0, len(s.items)-1))
		return s, nil

	case historyChangedMsg:
		if msg.Err != nil {
			return s, s.handleErr(msg.Err)
		}
		s.remove(msg.ID)
		return s, nil

	case tea.KeyMsg:
		return s.handleKey(msg.String())
	}
	return s, nil
}

// handleErr records err and returns a command when the session expired.
func (s *HistoryScreen) handleErr(err error) tea.Cmd {
	if errors.Is(err, gateway.ErrAuth) {
		return screen.ExpireSession
	}
	s.errMsg = err.Error()
	return nil
}

func (s *HistoryScreen) remove(id int64) {
	if id == 0 {
		s.items = nil
		s.selected = 0
		return
	}
	for i, it := range s.items {
		if it.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	s.selected = min(s.selected, max(0, len(s.items)-1))
}

func (s *HistoryScreen) handleKey(key string) (screen.Screen, tea.Cmd) {
	if s.confirmClear {
		switch key {
		case "y", "Y":
			s.confirmClear = false
			gw, ctx := s.env.Gateway, s.env.Context()
			return s, func() tea.Msg {
				return historyChangedMsg{Err: gw.ClearHistory(ctx)}
			}
		case "n", "N", "esc":
			s.confirmClear = false
		}
		return s, nil
	}

	switch key {
	case "esc":
		return s, router.Pop
	case "up", "k":
		if s.selected > 0 {
			s.selected--
		}
	case "down", "j":
		if s.selected < len(s.items)-1 {
			s.selected++
		}
	case "r":
		return s, s.load()
	}

	if len(s.items) == 0 {
		return s, nil
	}
	item := s.items[s.selected]

	switch key {
	case "space":
		s.expanded[item.ID] = !s.expanded[item.ID]
	case "enter":
		next := search.New(s.env, item.Query)
		return s, func() tea.Msg { return router.PushScreenMsg{Screen: next} }
	case "d", "delete":
		gw, ctx, id := s.env.Gateway, s.env.Context(), item.ID
		return s, func() tea.Msg {
			return historyChangedMsg{ID: id, Err: gw.DeleteHistory(ctx, id)}
		}
	case "c":
		s.confirmClear = true
	}
	return s, nil
}

func feedbackMark(fb *int) string {
	if fb == nil {
		return " "
	}
	switch *fb {
	case 1:
		return lipgloss.NewStyle().Foreground(theme.Success).Render("+")
	case -1:
		return lipgloss.NewStyle().Foreground(theme.Error).Render("-")
	}
	return lipgloss.NewStyle().Foreground(theme.TextDim).Render("·")
}

func relativeDate(t, now time.Time) string {
	switch d := now.Sub(t); {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	return t.Local().Format("Jan 02, 2006")
}

func (s *HistoryScreen) View(width, height int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	if !s.loaded {
		return center.Foreground(theme.TextDim).Render("\n\n  Loading history...")
	}
	if s.errMsg != "" && len(s.items) == 0 {
		return center.Foreground(theme.Error).Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if len(s.items) == 0 {
		return center.Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No searches yet. Look something up!")
	}

	cw := components.ContentWidth(width)
	now := time.Now()
	var b strings.Builder
	b.WriteString("\n")

	for i, it := range s.items {
		prefix := "  "
		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			prefix = "▸ "
			style = style.Foreground(theme.Primary).Bold(true)
		}
		when := lipgloss.NewStyle().Foreground(theme.TextDim).Render(relativeDate(it.CreatedAt, now))
		line := fmt.Sprintf("%s%s %s %s", prefix, feedbackMark(it.Feedback), style.Render(fmt.Sprintf("%-28s", it.Query)), when)
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			lipgloss.NewStyle().Width(cw).Render(line)))
		b.WriteString("\n")

		if s.expanded[it.ID] && it.Result != "" {
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
				lipgloss.NewStyle().Width(cw).PaddingLeft(4).Foreground(theme.TextDim).Render(it.Result)))
			b.WriteString("\n")
		}
	}

	if s.confirmClear {
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			theme.Warning.Render(fmt.Sprintf("Delete all %d searches? Y / N", len(s.items)))))
	} else if s.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			lipgloss.NewStyle().Foreground(theme.Error).Render(s.errMsg)))
	}
	return b.String()
}
