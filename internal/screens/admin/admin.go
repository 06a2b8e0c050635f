// Package admin shows usage statistics and accounts to administrators.
package admin

import (
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/conceptclarity/clarity/internal/gateway"
	"github.com/conceptclarity/clarity/internal/router"
	"github.com/conceptclarity/clarity/internal/screen"
	"github.com/conceptclarity/clarity/internal/shell"
	"github.com/conceptclarity/clarity/internal/ui/components"
	"github.com/conceptclarity/clarity/internal/ui/layout"
	"github.com/conceptclarity/clarity/internal/ui/theme"
)

type dashboardLoadedMsg struct {
	Stats *gateway.AdminStats
	Users []gateway.AdminUser
	Err   error
}

type tab int

const (
	tabStats tab = iota
	tabUsers
)

// AdminScreen is the read-only analytics dashboard.
type AdminScreen struct {
	env      *screen.Env
	tab      tab
	stats    *gateway.AdminStats
	users    []gateway.AdminUser
	selected int
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*AdminScreen)(nil)
var _ screen.KeyHintProvider = (*AdminScreen)(nil)

// New creates an AdminScreen.
func New(env *screen.Env) *AdminScreen {
	return &AdminScreen{env: env}
}

func (s *AdminScreen) Init() tea.Cmd {
	return s.load()
}

func (s *AdminScreen) load() tea.Cmd {
	s.loaded = false
	gw, ctx := s.env.Gateway, s.env.Context()
	return func() tea.Msg {
		stats, err := gw.AdminStats(ctx, gateway.AdminStatsFilter{})
		if err != nil {
			return dashboardLoadedMsg{Err: err}
		}
		users, err := gw.AdminUsers(ctx)
		return dashboardLoadedMsg{Stats: stats, Users: users, Err: err}
	}
}

func (s *AdminScreen) Title() string {
	return "Admin"
}

func (s *AdminScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Stats/Users"},
		{Key: "R", Description: "Refresh"},
		{Key: "O", Description: "Sign out admin"},
		{Key: "Esc", Description: "Back"},
	}
}

// signOut clears the admin token and returns to home.
func (s *AdminScreen) signOut(next shell.Route) tea.Cmd {
	sh, ctx := s.env.Shell, s.env.Context()
	st := *s.env.State
	return func() tea.Msg {
		if err := sh.AdminLogout(ctx); err != nil {
			return dashboardLoadedMsg{Err: err}
		}
		st.Admin = false
		return screen.SessionChangedMsg{State: st, Route: next}
	}
}

func (s *AdminScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardLoadedMsg:
		s.loaded = true
		if errors.Is(msg.Err, gateway.ErrAuth) {
			return s, s.signOut(shell.RouteAdminLogin)
		}
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.errMsg = ""
		s.stats = msg.Stats
		s.users = msg.Users
		s.selected = min(s.selected, max(0, len(s.users)-1))
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, router.Pop
		case "tab", "left", "right":
			s.tab = 1 - s.tab
		case "r":
			return s, s.load()
		case "o":
			return s, s.signOut(shell.RouteHome)
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.users)-1 {
				s.selected++
			}
		}
	}
	return s, nil
}

func (s *AdminScreen) View(width, height int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	if !s.loaded {
		return center.Foreground(theme.TextDim).Render("\n\n  Loading dashboard...")
	}
	if s.errMsg != "" {
		return center.Foreground(theme.Error).Render("\n\nError: " + s.errMsg)
	}

	tabs := []string{" STATS ", " USERS "}
	for i := range tabs {
		if tab(i) == s.tab {
			tabs[i] = theme.Selected.Render(tabs[i])
		} else {
			tabs[i] = theme.Unselected.Render(tabs[i])
		}
	}

	cw := components.ContentWidth(width)
	body := s.renderStats(cw)
	if s.tab == tabUsers {
		body = s.renderUsers(cw)
	}
	return "\n" + lipgloss.PlaceHorizontal(width, lipgloss.Center, strings.Join(tabs, "  ")) +
		"\n\n" + lipgloss.PlaceHorizontal(width, lipgloss.Center, components.Card(body, cw))
}

func (s *AdminScreen) renderStats(cw int) string {
	st := s.stats
	if st == nil {
		return ""
	}
	value := lipgloss.NewStyle().Foreground(theme.Gold).Bold(true)
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %s    %s %s    %s %s\n\n",
		dim.Render("Members"), value.Render(fmt.Sprint(st.TotalMembers)),
		dim.Render("Reviews"), value.Render(fmt.Sprint(st.TotalReviews)),
		dim.Render("Avg rating"), value.Render(fmt.Sprintf("%.1f", st.AverageRating))))

	b.WriteString(dim.Render("Most searched"))
	b.WriteString("\n")
	if len(st.MostSearchedWords) == 0 {
		b.WriteString(dim.Italic(true).Render("  no searches yet"))
		return b.String()
	}
	top := st.MostSearchedWords[0].Count
	barWidth := max(10, cw-34)
	for _, w := range st.MostSearchedWords {
		pct := 0.0
		if top > 0 {
			pct = float64(w.Count) / float64(top)
		}
		bar := components.ProgressBar{Percent: pct, Width: barWidth}
		b.WriteString(fmt.Sprintf("%-18s %4d  %s\n", truncate(w.Word, 18), w.Count, bar.View()))
	}
	return b.String()
}

func (s *AdminScreen) renderUsers(cw int) string {
	if len(s.users) == 0 {
		return lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true).Render("No accounts yet.")
	}
	var b strings.Builder
	for i, u := range s.users {
		style := lipgloss.NewStyle().Foreground(theme.Text)
		prefix := "  "
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
			prefix = "▸ "
		}
		b.WriteString(style.Render(fmt.Sprintf("%s%-20s %-24s %s", prefix, truncate(u.Username, 20), u.Role, reviewSummary(u.Reviews))))
		b.WriteString("\n")
		if i == s.selected {
			for _, rv := range u.Reviews {
				line := fmt.Sprintf("    %s  %s", strings.Repeat("★", rv.Rating), rv.Comment)
				b.WriteString(lipgloss.NewStyle().Width(cw - 4).Foreground(theme.TextDim).Render(line))
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

func reviewSummary(rs []gateway.AdminUserReview) string {
	if len(rs) == 0 {
		return "no review"
	}
	return fmt.Sprintf("%d★", rs[len(rs)-1].Rating)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
