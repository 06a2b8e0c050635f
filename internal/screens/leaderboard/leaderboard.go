// Package leaderboard ranks the best quiz scores per difficulty.
package leaderboard

import (
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/conceptclarity/clarity/internal/gateway"
	"github.com/conceptclarity/clarity/internal/router"
	"github.com/conceptclarity/clarity/internal/screen"
	"github.com/conceptclarity/clarity/internal/ui/components"
	"github.com/conceptclarity/clarity/internal/ui/layout"
	"github.com/conceptclarity/clarity/internal/ui/theme"
)

type boardLoadedMsg struct {
	Level   gateway.Level
	Entries []gateway.LeaderboardEntry
	Err     error
}

// LeaderboardScreen shows one tab per difficulty.
type LeaderboardScreen struct {
	env      *screen.Env
	levelIdx int
	entries  []gateway.LeaderboardEntry
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*LeaderboardScreen)(nil)
var _ screen.KeyHintProvider = (*LeaderboardScreen)(nil)

// New creates a LeaderboardScreen opened on the session's default level.
func New(env *screen.Env) *LeaderboardScreen {
	s := &LeaderboardScreen{env: env}
	for i, l := range gateway.Levels {
		if l == env.DefaultLevel {
			s.levelIdx = i
		}
	}
	return s
}

func (s *LeaderboardScreen) Init() tea.Cmd {
	return s.load()
}

func (s *LeaderboardScreen) Title() string {
	return "Leaderboard"
}

func (s *LeaderboardScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "←→", Description: "Difficulty"},
		{Key: "R", Description: "Refresh"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *LeaderboardScreen) level() gateway.Level {
	return gateway.Levels[s.levelIdx]
}

func (s *LeaderboardScreen) load() tea.Cmd {
	s.loaded = false
	s.errMsg = ""
	gw, ctx, level := s.env.Gateway, s.env.Context(), s.level()
	return func() tea.Msg {
		entries, err := gw.FetchLeaderboard(ctx, level)
		return boardLoadedMsg{Level: level, Entries: entries, Err: err}
	}
}

func (s *LeaderboardScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case boardLoadedMsg:
		if msg.Level != s.level() {
			return s, nil
		}
		s.loaded = true
		switch {
		case errors.Is(msg.Err, gateway.ErrAuth):
			return s, screen.ExpireSession
		case msg.Err != nil:
			s.errMsg = msg.Err.Error()
		default:
			s.entries = msg.Entries
		}
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, router.Pop
		case "left", "h":
			s.levelIdx = (s.levelIdx + len(gateway.Levels) - 1) % len(gateway.Levels)
			return s, s.load()
		case "right", "l", "tab":
			s.levelIdx = (s.levelIdx + 1) % len(gateway.Levels)
			return s, s.load()
		case "r":
			return s, s.load()
		}
	}
	return s, nil
}

func (s *LeaderboardScreen) renderTabs() string {
	var parts []string
	for i, l := range gateway.Levels {
		label := fmt.Sprintf(" %s ", strings.ToUpper(string(l)))
		if i == s.levelIdx {
			parts = append(parts, theme.Selected.Render(label))
		} else {
			parts = append(parts, theme.Unselected.Render(label))
		}
	}
	return strings.Join(parts, "  ")
}

func (s *LeaderboardScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.renderTabs()))
	b.WriteString("\n\n")

	dim := lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Foreground(theme.TextDim)
	switch {
	case s.errMsg != "":
		b.WriteString(lipgloss.NewStyle().Width(width).Align(lipgloss.Center).
			Foreground(theme.Error).Render("Error: " + s.errMsg))
	case !s.loaded:
		b.WriteString(dim.Render("Loading rankings..."))
	case len(s.entries) == 0:
		b.WriteString(dim.Italic(true).Render("No scores yet at this level. Be the first!"))
	default:
		highlight := ""
		if s.env.State != nil {
			highlight = s.env.State.Username
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			components.Podium(s.entries, highlight)))
		b.WriteString("\n\n")
		if len(s.entries) > 3 {
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
				components.RankTable(s.entries[3:], highlight)))
		}
	}
	return b.String()
}
