// Package welcome is the splash shown while the stored session is checked.
package welcome

import (
	"log/slog"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/conceptclarity/clarity/internal/screen"
	"github.com/conceptclarity/clarity/internal/shell"
	"github.com/conceptclarity/clarity/internal/ui/theme"
)

const (
	tickInterval = 100 * time.Millisecond
	phase1End    = 500 * time.Millisecond
	phase2End    = 1500 * time.Millisecond
	totalDur     = 4500 * time.Millisecond
)

const mascotArt = `    .-"""-.
   /  ~ ~  \
  |  (o o)  |
   \  \_/  /
    '-._.-'
     |===|
     |===|
     '---'`

// glow frames cycle around the bulb
var glowFrames = []string{"✦", "✧"}

type tickMsg time.Time

// resolvedMsg carries the session checked at startup.
type resolvedMsg struct {
	State shell.State
	Err   error
}

// WelcomeScreen animates a splash while Resolve runs, then hands the
// session to the app.
type WelcomeScreen struct {
	env          *screen.Env
	elapsed      time.Duration
	tickCount    int
	resolved     *shell.State
	skip         bool
	transitioned bool
}

var _ screen.Screen = (*WelcomeScreen)(nil)

// New creates a WelcomeScreen.
func New(env *screen.Env) *WelcomeScreen {
	return &WelcomeScreen{env: env}
}

func (w *WelcomeScreen) Title() string {
	return ""
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (w *WelcomeScreen) Init() tea.Cmd {
	sh, ctx := w.env.Shell, w.env.Context()
	return tea.Batch(tick(), func() tea.Msg {
		st, err := sh.Resolve(ctx)
		return resolvedMsg{State: st, Err: err}
	})
}

func (w *WelcomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if w.elapsed < totalDur {
			w.elapsed += tickInterval
		}
		w.tickCount++
		if w.transitioned {
			return w, nil
		}
		return w, tick()

	case resolvedMsg:
		st := msg.State
		if msg.Err != nil {
			if w.env.Logger != nil {
				w.env.Logger.Warn("could not read the saved session", slog.String("error", msg.Err.Error()))
			}
			st = *w.env.State
		}
		w.resolved = &st
		if w.skip {
			return w, w.transition()
		}
		return w, nil

	case tea.KeyPressMsg:
		// A key before the check finishes moves on as soon as it does.
		if w.resolved == nil {
			w.skip = true
			return w, nil
		}
		return w, w.transition()
	}

	return w, nil
}

func (w *WelcomeScreen) transition() tea.Cmd {
	if w.transitioned || w.resolved == nil {
		return nil
	}
	w.transitioned = true
	st := *w.resolved
	return func() tea.Msg {
		return screen.SessionChangedMsg{State: st, Route: shell.RouteHome}
	}
}

func (w *WelcomeScreen) View(width, height int) string {
	var sections []string

	rendered := lipgloss.NewStyle().Foreground(theme.Gold).Render(mascotArt)

	if w.elapsed >= phase1End {
		glow := glowFrames[w.tickCount%len(glowFrames)]
		s1 := lipgloss.NewStyle().Foreground(theme.Accent).Render(glow)
		s2 := lipgloss.NewStyle().Foreground(theme.Secondary).Render(glow)

		lines := strings.Split(rendered, "\n")
		if len(lines) > 1 {
			lines[0] = s1 + "  " + lines[0] + "  " + s2
		}
		if len(lines) > 3 {
			lines[3] = s2 + "  " + lines[3] + "  " + s1
		}
		rendered = strings.Join(lines, "\n")
	}
	sections = append(sections, rendered)

	if w.elapsed >= phase2End {
		sections = append(sections, "", RenderBanner(width), "")
		sections = append(sections, lipgloss.NewStyle().
			Foreground(theme.Text).
			Bold(true).
			Render("Any concept, explained at your level."))
		sections = append(sections, "")

		hint := "press any key to continue"
		if w.resolved == nil {
			hint = "checking your session..."
		}
		sections = append(sections, lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Italic(true).
			Render(hint))
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.Join(sections, "\n"))
}
