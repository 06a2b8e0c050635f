// Package account holds the sign-in, sign-up and profile forms.
package account

import (
	"errors"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/conceptclarity/clarity/internal/gateway"
	"github.com/conceptclarity/clarity/internal/ui/components"
	"github.com/conceptclarity/clarity/internal/ui/theme"
)

// form is a column of inputs with one focused at a time. Each input is
// keyed by the json field name the gateway reports errors under.
type form struct {
	keys   []string
	inputs []components.TextInput
	focus  int
	errMsg string
}

func (f *form) add(key string, in components.TextInput) {
	in.Blur()
	f.keys = append(f.keys, key)
	f.inputs = append(f.inputs, in)
}

// start focuses the first input.
func (f *form) start() tea.Cmd {
	f.focus = 0
	return f.inputs[0].Focus()
}

func (f *form) value(key string) string {
	for i, k := range f.keys {
		if k == key {
			return strings.TrimSpace(f.inputs[i].Value())
		}
	}
	return ""
}

// rawValue returns the input untrimmed, for passwords.
func (f *form) rawValue(key string) string {
	for i, k := range f.keys {
		if k == key {
			return f.inputs[i].Value()
		}
	}
	return ""
}

func (f *form) last() bool {
	return f.focus == len(f.inputs)-1
}

// move shifts focus by delta, wrapping around.
func (f *form) move(delta int) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + len(f.inputs)) % len(f.inputs)
	return f.inputs[f.focus].Focus()
}

// update forwards msg to the focused input.
func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *form) clearErrors() {
	f.errMsg = ""
	for i := range f.inputs {
		f.inputs[i].Err = ""
	}
}

// showError places a validation error under its fields, or any other
// error under the form.
func (f *form) showError(err error, authMsg string) {
	f.clearErrors()
	var verr *gateway.ValidationError
	switch {
	case errors.As(err, &verr):
		placed := false
		for i, k := range f.keys {
			if m, ok := verr.Fields[k]; ok {
				f.inputs[i].Err = m
				placed = true
			}
		}
		if !placed {
			f.errMsg = verr.Message("")
		}
	case errors.Is(err, gateway.ErrAuth) && authMsg != "":
		f.errMsg = authMsg
	case errors.Is(err, gateway.ErrTransport):
		f.errMsg = "The server could not be reached. " + err.Error()
	default:
		f.errMsg = err.Error()
	}
}

func (f *form) view(extra map[int]string) string {
	var b strings.Builder
	for i, in := range f.inputs {
		b.WriteString(in.View())
		b.WriteString("\n")
		if s, ok := extra[i]; ok {
			b.WriteString(s)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if f.errMsg != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Error).Render(f.errMsg))
		b.WriteString("\n")
	}
	return b.String()
}
