// Package search is the concept lookup screen.
package search

import (
	"errors"
	"fmt"
	"slices"

	tea "charm.land/bubbletea/v2"

	"github.com/conceptclarity/clarity/internal/gateway"
	"github.com/conceptclarity/clarity/internal/router"
	"github.com/conceptclarity/clarity/internal/screen"
	lookup "github.com/conceptclarity/clarity/internal/search"
	"github.com/conceptclarity/clarity/internal/shell"
	"github.com/conceptclarity/clarity/internal/ui/components"
	"github.com/conceptclarity/clarity/internal/ui/layout"
)

// SearchScreen looks up a term and shows its explanation.
type SearchScreen struct {
	env     *screen.Env
	input   components.TextInput
	level   gateway.Level
	pending string

	result       *lookup.Result
	loading      bool
	mediaPending bool
	remaining    int
	suggest      int
	notice       string
	errMsg       string
}

var _ screen.Screen = (*SearchScreen)(nil)
var _ screen.KeyHintProvider = (*SearchScreen)(nil)

// New creates a SearchScreen. A non-empty term is searched right away.
func New(env *screen.Env, term string) *SearchScreen {
	s := &SearchScreen{
		env:     env,
		input:   components.NewTextInput("Concept", "Type a concept, e.g. Photosynthesis", 120),
		level:   gateway.LevelEasy,
		pending: term,
		suggest: -1,
	}
	if env.SignedIn() && env.DefaultLevel != "" {
		s.level = env.DefaultLevel
	}
	s.input.SetValue(term)
	s.remaining = env.Search.RemainingAnonymous(env.Context())
	return s
}

func (s *SearchScreen) Init() tea.Cmd {
	if s.pending != "" {
		term := s.pending
		s.pending = ""
		return tea.Batch(s.input.Init(), s.runSearch(term))
	}
	return s.input.Init()
}

func (s *SearchScreen) Title() string {
	return "Search"
}

func (s *SearchScreen) KeyHints() []layout.KeyHint {
	if s.input.Focused() {
		hints := []layout.KeyHint{{Key: "Enter", Description: "Search"}}
		if s.input.Value() == "" {
			hints = append(hints, layout.KeyHint{Key: "↓", Description: "Suggest"})
		}
		if s.env.SignedIn() {
			hints = append(hints, layout.KeyHint{Key: "Tab", Description: "Level"})
		}
		return append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
	}
	hints := []layout.KeyHint{{Key: "/", Description: "New search"}}
	if s.result != nil && s.result.HistoryID != nil {
		hints = append(hints, layout.KeyHint{Key: "+/-/0", Description: "Feedback"})
	}
	if s.result != nil && len(s.result.RelatedWords) > 0 {
		hints = append(hints, layout.KeyHint{Key: "1-9", Description: "Related"})
	}
	return append(hints,
		layout.KeyHint{Key: "V", Description: "Voice"},
		layout.KeyHint{Key: "Esc", Description: "Back"},
	)
}

func (s *SearchScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		return s.handleResult(msg)
	case mediaMsg:
		return s.handleMedia(msg)
	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.input.Focused() {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *SearchScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()
	if s.loading {
		return s, nil
	}

	if s.input.Focused() {
		switch key {
		case "enter":
			return s, s.runSearch(s.input.Value())
		case "tab":
			s.cycleLevel()
			return s, nil
		case "down":
			s.nextSuggestion()
			return s, nil
		}
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		s.input.Err = ""
		return s, cmd
	}

	switch key {
	case "/", "enter":
		s.input.SetValue("")
		return s, s.input.Focus()
	case "tab":
		s.cycleLevel()
	case "+":
		s.feedback(1)
	case "-":
		s.feedback(-1)
	case "0":
		s.feedback(0)
	case "v", "V":
		return s, s.runVoice()
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' && s.result != nil {
			i := int(key[0] - '1')
			if i < len(s.result.RelatedWords) {
				term := s.result.RelatedWords[i]
				s.input.SetValue(term)
				return s, s.runSearch(term)
			}
		}
	}
	return s, nil
}

// cycleLevel moves to the next level. Guests stay on easy.
func (s *SearchScreen) cycleLevel() {
	if !s.env.SignedIn() {
		s.notice = "Sign in to choose medium or hard explanations."
		return
	}
	i := slices.Index(gateway.Levels, s.level)
	s.level = gateway.Levels[(i+1)%len(gateway.Levels)]
}

func (s *SearchScreen) nextSuggestion() {
	s.suggest = (s.suggest + 1) % len(lookup.PopularTerms)
	s.input.SetValue(lookup.PopularTerms[s.suggest])
}

func (s *SearchScreen) runSearch(term string) tea.Cmd {
	s.loading = true
	s.errMsg = ""
	s.notice = ""
	s.input.Err = ""
	env, level := s.env, s.level
	return func() tea.Msg {
		res, err := env.Search.Search(env.Context(), term, level, env.Language())
		return resultMsg{Result: res, Err: err}
	}
}

func (s *SearchScreen) runVoice() tea.Cmd {
	s.loading = true
	s.errMsg = ""
	env, level := s.env, s.level
	return func() tea.Msg {
		res, err := env.Search.Recognize(env.Context(), level, env.Language())
		return resultMsg{Result: res, Err: err}
	}
}

func (s *SearchScreen) handleResult(msg resultMsg) (screen.Screen, tea.Cmd) {
	s.loading = false
	s.remaining = s.env.Search.RemainingAnonymous(s.env.Context())

	var quota *gateway.QuotaExceeded
	var invalid *gateway.ValidationError
	switch {
	case msg.Err == nil:
	case errors.Is(msg.Err, lookup.ErrStale):
		return s, nil
	case errors.As(msg.Err, &quota):
		return s, router.Navigate(shell.Route(quota.Redirect))
	case errors.As(msg.Err, &invalid):
		s.input.Err = invalid.Message("query")
		return s, nil
	case errors.Is(msg.Err, gateway.ErrAuth):
		return s, screen.ExpireSession
	default:
		if text, ok := lookup.VoiceMessage(msg.Err); ok {
			s.errMsg = text
		} else {
			s.errMsg = msg.Err.Error()
		}
		return s, nil
	}

	s.result = msg.Result
	s.input.Blur()
	if s.result.Media != nil {
		return s, nil
	}
	s.mediaPending = true
	fetch := s.env.Search.FetchMedia(s.result)
	seq, ctx := s.result.Seq, s.env.Context()
	return s, func() tea.Msg {
		m, err := fetch(ctx)
		return mediaMsg{Seq: seq, Media: m, Err: err}
	}
}

func (s *SearchScreen) handleMedia(msg mediaMsg) (screen.Screen, tea.Cmd) {
	if s.result == nil || msg.Seq != s.result.Seq {
		return s, nil
	}
	s.mediaPending = false
	if msg.Err != nil {
		return s, nil
	}
	if s.env.Search.ApplyMedia(msg.Seq, msg.Media) {
		s.result = s.env.Search.Current()
	}
	return s, nil
}

// feedback rates the current result. The change shows at once; the
// backend write happens in the background.
func (s *SearchScreen) feedback(value int) {
	if s.result == nil || s.result.HistoryID == nil {
		return
	}
	if err := s.env.Search.SubmitFeedback(s.env.Context(), *s.result.HistoryID, value); err != nil {
		s.errMsg = err.Error()
		return
	}
	if cur := s.env.Search.Current(); cur != nil && cur.Seq == s.result.Seq {
		s.result = cur
	}
	switch value {
	case 1:
		s.notice = "Thanks! Marked as helpful."
	case -1:
		s.notice = "Thanks! We'll try to explain it better."
	default:
		s.notice = "Feedback cleared."
	}
}

func (s *SearchScreen) View(width, height int) string {
	return s.render(width, height)
}

func levelLabel(l gateway.Level) string {
	switch l {
	case gateway.LevelMedium:
		return "Medium"
	case gateway.LevelHard:
		return "Hard"
	}
	return "Easy"
}

func remainingLabel(n int) string {
	if n == 1 {
		return "1 free search left"
	}
	return fmt.Sprintf("%d free searches left", n)
}
