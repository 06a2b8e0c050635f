package components

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/conceptclarity/clarity/internal/ui/theme"
)

// OptionLabels are the letters shown before each option.
var OptionLabels = []string{"A", "B", "C", "D", "E", "F"}

// MultiChoice renders one question with a cursor and the chosen option.
// Choosing is left to the owner; Update only moves the cursor.
type MultiChoice struct {
	Question string
	Options  []string
	Cursor   int
	Chosen   string

	// Reveal shows Answer in green and a wrong Chosen in red.
	Reveal bool
	Answer string
}

// NewMultiChoice creates a new multiple-choice component.
func NewMultiChoice(question string, options []string, chosen string) MultiChoice {
	return MultiChoice{
		Question: question,
		Options:  options,
		Chosen:   chosen,
	}
}

// Init returns nil.
func (m MultiChoice) Init() tea.Cmd {
	return nil
}

// Update handles cursor movement.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch kmsg.String() {
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.Options)-1 {
			m.Cursor++
		}
	}

	return m, nil
}

// Highlighted returns the option under the cursor.
func (m MultiChoice) Highlighted() string {
	if m.Cursor < 0 || m.Cursor >= len(m.Options) {
		return ""
	}
	return m.Options[m.Cursor]
}

// OptionAt maps a letter or digit key to an option, or "" when there is none.
func (m MultiChoice) OptionAt(key string) string {
	for i := range m.Options {
		if i >= len(OptionLabels) {
			break
		}
		if key == OptionLabels[i] || key == string(rune('a'+i)) || key == fmt.Sprint(i+1) {
			return m.Options[i]
		}
	}
	return ""
}

// View renders the multiple-choice component.
func (m MultiChoice) View() string {
	questionStyle := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	s := questionStyle.Render(m.Question) + "\n\n"

	for i, opt := range m.Options {
		label := fmt.Sprint(i + 1)
		if i < len(OptionLabels) {
			label = OptionLabels[i]
		}
		prefix := "  "
		if i == m.Cursor && !m.Reveal {
			prefix = "▸ "
		}
		mark := " "
		if opt == m.Chosen {
			mark = "●"
		}

		line := fmt.Sprintf("%s%s %s)  %s", prefix, mark, label, opt)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		switch {
		case m.Reveal && opt == m.Answer:
			style = lipgloss.NewStyle().Foreground(theme.Success).Bold(true)
		case m.Reveal && opt == m.Chosen:
			style = lipgloss.NewStyle().Foreground(theme.Error).Bold(true)
		case m.Reveal:
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		case opt == m.Chosen:
			style = lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true)
		case i == m.Cursor:
			style = lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
		}
		s += style.Render(line) + "\n"
	}

	return s
}
