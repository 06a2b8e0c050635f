// Package quiz is the timed quiz screen.
package quiz

import (
	"errors"
	"fmt"
	"slices"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/conceptclarity/clarity/internal/gateway"
	quizctl "github.com/conceptclarity/clarity/internal/quiz"
	"github.com/conceptclarity/clarity/internal/router"
	"github.com/conceptclarity/clarity/internal/screen"
	"github.com/conceptclarity/clarity/internal/screens/summary"
	"github.com/conceptclarity/clarity/internal/ui/components"
	"github.com/conceptclarity/clarity/internal/ui/layout"
)

// QuizScreen picks a difficulty and topic, then runs the attempt.
type QuizScreen struct {
	env  *screen.Env
	ctrl *quizctl.Controller

	levelIdx int
	topics   []string
	topicIdx int

	current int
	choice  components.MultiChoice

	review       *quizctl.SubmitReview
	reviewCursor int
	confirmQuit  bool

	ticking bool
	busy    bool
	errMsg  string
}

var _ screen.Screen = (*QuizScreen)(nil)
var _ screen.KeyHintProvider = (*QuizScreen)(nil)
var _ screen.EscapeHandler = (*QuizScreen)(nil)

// New creates a QuizScreen over the shared quiz controller.
func New(env *screen.Env) *QuizScreen {
	return &QuizScreen{
		env:    env,
		ctrl:   env.Quiz,
		topics: env.Quiz.Topics(),
	}
}

func (s *QuizScreen) Init() tea.Cmd {
	return nil
}

func (s *QuizScreen) Title() string {
	return "Quiz"
}

func (s *QuizScreen) level() gateway.Level {
	return gateway.Levels[s.levelIdx]
}

func (s *QuizScreen) topic() string {
	if s.topicIdx >= len(s.topics) {
		return quizctl.AllTopics
	}
	return s.topics[s.topicIdx]
}

// inAttempt reports whether an attempt is underway and leaving needs
// confirmation.
func (s *QuizScreen) inAttempt() bool {
	switch s.ctrl.Phase() {
	case quizctl.PhaseActive, quizctl.PhaseViolated, quizctl.PhaseLoading:
		return true
	}
	return false
}

func (s *QuizScreen) HandlesEscape() bool {
	return s.review != nil || s.confirmQuit || s.ctrl.Phase() != quizctl.PhaseNotStarted
}

func (s *QuizScreen) KeyHints() []layout.KeyHint {
	switch {
	case s.confirmQuit:
		return []layout.KeyHint{
			{Key: "Y", Description: "Leave quiz"},
			{Key: "N", Description: "Keep going"},
		}
	case s.review != nil:
		return []layout.KeyHint{
			{Key: "←→", Description: "Pick question"},
			{Key: "Enter", Description: "Go to question"},
			{Key: "Y", Description: "Submit anyway"},
			{Key: "Esc", Description: "Keep answering"},
		}
	}

	switch s.ctrl.Phase() {
	case quizctl.PhaseNotStarted:
		return []layout.KeyHint{
			{Key: "←→", Description: "Difficulty"},
			{Key: "Tab", Description: "Topic"},
			{Key: "Enter", Description: "Start"},
			{Key: "Esc", Description: "Back"},
		}
	case quizctl.PhaseAwaitingFullscreen:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Begin"},
			{Key: "Esc", Description: "Cancel"},
		}
	case quizctl.PhaseActive:
		return []layout.KeyHint{
			{Key: "A-D", Description: "Answer"},
			{Key: "←→", Description: "Question"},
			{Key: "S", Description: "Submit"},
			{Key: "Esc", Description: "Quit"},
		}
	}
	return []layout.KeyHint{{Key: "Esc", Description: "Quit"}}
}

func (s *QuizScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case startedMsg:
		return s.handleStarted(msg)
	case timerTickMsg:
		return s.handleTick()
	case submittedMsg:
		return s.handleSubmitted(msg)
	case tea.FocusMsg:
		return s.handleFocus(true)
	case tea.BlurMsg:
		return s.handleFocus(false)
	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return timerTickMsg(t)
	})
}

func (s *QuizScreen) start() tea.Cmd {
	s.busy = true
	s.errMsg = ""
	ctrl, ctx := s.ctrl, s.env.Context()
	level, topic := s.level(), s.topic()
	return func() tea.Msg {
		return startedMsg{Err: ctrl.StartAttempt(ctx, level, topic)}
	}
}

// confirmFullscreen reports the user's confirmation, which runs the
// deferred fetch.
func (s *QuizScreen) confirmFullscreen() tea.Cmd {
	s.busy = true
	env, ctrl := s.env, s.ctrl
	return func() tea.Msg {
		if env.Focus != nil {
			env.Focus.Set(true)
		}
		return startedMsg{Err: ctrl.FullscreenChanged(env.Context(), true)}
	}
}

func (s *QuizScreen) handleStarted(msg startedMsg) (screen.Screen, tea.Cmd) {
	s.busy = false
	switch {
	case msg.Err == nil:
	case errors.Is(msg.Err, quizctl.ErrStale):
		return s, nil
	case errors.Is(msg.Err, gateway.ErrAuth):
		return s, screen.ExpireSession
	default:
		s.errMsg = friendlyError(msg.Err)
		return s, nil
	}

	switch s.ctrl.Phase() {
	case quizctl.PhaseActive, quizctl.PhaseViolated:
	default:
		return s, nil
	}
	s.current = 0
	s.loadQuestion()
	if s.ticking {
		return s, nil
	}
	s.ticking = true
	return s, tickCmd()
}

func (s *QuizScreen) handleTick() (screen.Screen, tea.Cmd) {
	if s.ctrl.Tick() {
		s.ticking = false
		s.review = nil
		return s, s.finalize()
	}
	switch s.ctrl.Phase() {
	case quizctl.PhaseActive, quizctl.PhaseViolated:
		return s, tickCmd()
	}
	s.ticking = false
	return s, nil
}

func (s *QuizScreen) handleFocus(active bool) (screen.Screen, tea.Cmd) {
	if s.env.Focus == nil || !s.env.Focus.Set(active) {
		return s, nil
	}
	switch phase := s.ctrl.Phase(); {
	case !active && phase == quizctl.PhaseActive, active && phase == quizctl.PhaseViolated:
		// Pausing and resuming make no network calls.
		_ = s.ctrl.FullscreenChanged(s.env.Context(), active)
	}
	return s, nil
}

func (s *QuizScreen) requestSubmit() tea.Cmd {
	s.busy = true
	ctrl, ctx := s.ctrl, s.env.Context()
	return func() tea.Msg {
		review, out, err := ctrl.RequestSubmit(ctx)
		return submittedMsg{Review: review, Outcome: out, Err: err}
	}
}

func (s *QuizScreen) forceSubmit() tea.Cmd {
	s.busy = true
	ctrl, ctx := s.ctrl, s.env.Context()
	return func() tea.Msg {
		out, err := ctrl.ForceSubmit(ctx)
		return submittedMsg{Outcome: out, Err: err}
	}
}

func (s *QuizScreen) finalize() tea.Cmd {
	s.busy = true
	ctrl, ctx := s.ctrl, s.env.Context()
	return func() tea.Msg {
		out, err := ctrl.FinalizeSubmission(ctx)
		return submittedMsg{Outcome: out, Err: err}
	}
}

func (s *QuizScreen) handleSubmitted(msg submittedMsg) (screen.Screen, tea.Cmd) {
	s.busy = false
	if msg.Err != nil {
		s.errMsg = friendlyError(msg.Err)
		return s, nil
	}
	if msg.Review != nil && msg.Review.Required {
		s.review = msg.Review
		s.reviewCursor = 0
		return s, nil
	}
	s.review = nil
	if msg.Outcome == nil {
		return s, nil
	}
	results := summary.New(s.env, msg.Outcome)
	return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: results} }
}

func (s *QuizScreen) loadQuestion() {
	a := s.ctrl.Attempt()
	if a == nil || len(a.Questions) == 0 {
		return
	}
	s.current = max(0, min(s.current, len(a.Questions)-1))
	q := a.Questions[s.current]
	cursor := s.choice.Cursor
	s.choice = components.NewMultiChoice(q.Prompt, q.Options, a.Answers[s.current])
	if cursor < len(q.Options) {
		s.choice.Cursor = cursor
	}
}

func (s *QuizScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()
	if s.busy {
		return s, nil
	}

	if s.confirmQuit {
		switch key {
		case "y", "Y":
			s.confirmQuit = false
			s.ctrl.ExitAttempt()
			return s, router.Pop
		case "n", "N", "esc":
			s.confirmQuit = false
		}
		return s, nil
	}

	if s.review != nil {
		return s.handleReviewKey(key)
	}

	switch s.ctrl.Phase() {
	case quizctl.PhaseNotStarted:
		return s.handleSetupKey(key)
	case quizctl.PhaseAwaitingFullscreen:
		switch key {
		case "enter":
			return s, s.confirmFullscreen()
		case "esc":
			s.ctrl.ExitAttempt()
		}
		return s, nil
	case quizctl.PhaseActive:
		return s.handleAnswerKey(msg)
	case quizctl.PhaseViolated, quizctl.PhaseLoading:
		if key == "esc" {
			s.confirmQuit = true
		}
		return s, nil
	case quizctl.PhaseSubmitted:
		if key == "esc" {
			return s, router.Pop
		}
	}
	return s, nil
}

func (s *QuizScreen) handleSetupKey(key string) (screen.Screen, tea.Cmd) {
	switch key {
	case "left", "h":
		s.levelIdx = (s.levelIdx + len(gateway.Levels) - 1) % len(gateway.Levels)
	case "right", "l":
		s.levelIdx = (s.levelIdx + 1) % len(gateway.Levels)
	case "1", "2", "3":
		s.levelIdx = int(key[0] - '1')
	case "tab":
		s.topicIdx = (s.topicIdx + 1) % len(s.topics)
	case "shift+tab":
		s.topicIdx = (s.topicIdx + len(s.topics) - 1) % len(s.topics)
	case "enter":
		return s, s.start()
	case "esc":
		return s, router.Pop
	}
	return s, nil
}

func (s *QuizScreen) handleAnswerKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()
	a := s.ctrl.Attempt()
	if a == nil {
		return s, nil
	}

	switch key {
	case "esc":
		s.confirmQuit = true
		return s, nil
	case "right", "n", "l":
		if s.current < len(a.Questions)-1 {
			s.current++
			s.choice.Cursor = 0
			s.loadQuestion()
		}
		return s, nil
	case "left", "p", "h":
		if s.current > 0 {
			s.current--
			s.choice.Cursor = 0
			s.loadQuestion()
		}
		return s, nil
	case "s", "S":
		return s, s.requestSubmit()
	case "enter", "space":
		s.ctrl.SelectAnswer(s.current, s.choice.Highlighted())
		s.loadQuestion()
		return s, nil
	}

	if opt := s.choice.OptionAt(key); opt != "" {
		s.ctrl.SelectAnswer(s.current, opt)
		s.loadQuestion()
		return s, nil
	}

	s.choice, _ = s.choice.Update(msg)
	return s, nil
}

// reviewTargets lists the question indices the review modal can jump to,
// unanswered first.
func (s *QuizScreen) reviewTargets() []int {
	return slices.Concat(s.review.Unanswered, s.review.Answered)
}

func (s *QuizScreen) handleReviewKey(key string) (screen.Screen, tea.Cmd) {
	targets := s.reviewTargets()
	switch key {
	case "left", "up", "h", "k":
		if s.reviewCursor > 0 {
			s.reviewCursor--
		}
	case "right", "down", "l", "j":
		if s.reviewCursor < len(targets)-1 {
			s.reviewCursor++
		}
	case "enter":
		if s.reviewCursor < len(targets) {
			s.current = targets[s.reviewCursor]
			s.choice.Cursor = 0
			s.loadQuestion()
		}
		s.review = nil
	case "y", "Y":
		s.review = nil
		return s, s.forceSubmit()
	case "esc", "n", "N":
		s.review = nil
	}
	return s, nil
}

func friendlyError(err error) string {
	var gen *gateway.GenerationError
	switch {
	case errors.As(err, &gen):
		return "We couldn't build a quiz right now. Please try again."
	case errors.Is(err, gateway.ErrTransport):
		return "The server could not be reached. Please try again."
	case errors.Is(err, quizctl.ErrInProgress):
		return "A quiz is already in progress."
	}
	return fmt.Sprintf("Something went wrong: %v", err)
}
