package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/conceptclarity/clarity/internal/gateway"
)

// Controller owns at most one attempt. All methods are safe for concurrent
// use; network calls are made without holding the lock, and their results
// are discarded if the attempt changed in the meantime.
type Controller struct {
	gw         gateway.Gateway
	tokens     gateway.TokenSource
	fullscreen Fullscreen
	clock      Clock
	logger     *slog.Logger
	language   func() string

	mu       sync.Mutex
	phase    Phase
	gen      uint64
	attempt  *Attempt
	pending  *pendingStart
	outcome  *Outcome
	reported bool
	topics   []string
	lastErr  error
}

type pendingStart struct {
	difficulty gateway.Level
	topic      string
}

// Option configures a Controller.
type Option func(*Controller)

// WithFullscreen sets the proctoring capability.
func WithFullscreen(f Fullscreen) Option {
	return func(c *Controller) { c.fullscreen = f }
}

// WithClock sets the clock used for timestamps.
func WithClock(clk Clock) Option {
	return func(c *Controller) { c.clock = clk }
}

// WithLogger sets the logger for swallowed failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithLanguage sets where the content language is read from at start.
func WithLanguage(fn func() string) Option {
	return func(c *Controller) { c.language = fn }
}

// NewController returns a controller in PhaseNotStarted.
func NewController(gw gateway.Gateway, tokens gateway.TokenSource, opts ...Option) *Controller {
	c := &Controller{
		gw:         gw,
		tokens:     tokens,
		fullscreen: Unsupported{},
		clock:      systemClock{},
		logger:     slog.Default(),
		language:   func() string { return "en" },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Attempt returns a copy of the running attempt, or nil.
func (c *Controller) Attempt() *Attempt {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attempt == nil {
		return nil
	}
	cp := *c.attempt
	cp.Answers = make(map[int]string, len(c.attempt.Answers))
	for k, v := range c.attempt.Answers {
		cp.Answers[k] = v
	}
	return &cp
}

// Outcome returns the scored outcome once submitted, or nil.
func (c *Controller) Outcome() *Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

// LastError returns the error of the last failed start, cleared by the
// next start.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Topics returns the topic filter choices for the next attempt. The first
// entry is always AllTopics.
func (c *Controller) Topics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{AllTopics}, c.topics...)
}

// StartAttempt begins an attempt at difficulty. topic may be "" or
// AllTopics for no filter. If fullscreen is supported but not active the
// start is deferred until FullscreenChanged(true); otherwise questions are
// fetched before returning.
func (c *Controller) StartAttempt(ctx context.Context, difficulty gateway.Level, topic string) error {
	if _, err := gateway.ParseLevel(string(difficulty)); err != nil {
		return gateway.NewValidationError("difficulty", err.Error())
	}
	token, err := c.tokens.UserToken(ctx)
	if err != nil {
		return &gateway.TransportError{Op: "read token", Err: err}
	}
	if token == "" {
		return &gateway.AuthError{Detail: "sign in to take a quiz"}
	}

	c.mu.Lock()
	switch c.phase {
	case PhaseNotStarted, PhaseSubmitted:
	default:
		c.mu.Unlock()
		return ErrInProgress
	}
	c.resetLocked()
	c.lastErr = nil
	c.pending = &pendingStart{difficulty: difficulty, topic: topic}

	if c.fullscreen.Supported() && !c.fullscreen.Active() {
		c.phase = PhaseAwaitingFullscreen
		c.mu.Unlock()
		if err := c.fullscreen.Request(); err != nil {
			c.logger.Warn("fullscreen request failed", slog.String("error", err.Error()))
		}
		return nil
	}
	c.mu.Unlock()

	return c.runPending(ctx)
}

// FullscreenChanged is how the environment reports fullscreen changes.
// Confirming fullscreen while a start is deferred runs the fetch.
func (c *Controller) FullscreenChanged(ctx context.Context, active bool) error {
	c.mu.Lock()
	switch {
	case c.phase == PhaseAwaitingFullscreen && active:
		c.mu.Unlock()
		return c.runPending(ctx)
	case c.phase == PhaseActive && !active:
		c.phase = PhaseViolated
		c.attempt.FullscreenActive = false
		c.logger.Info("fullscreen lost, timer paused", slog.Int("remaining", c.attempt.TimeRemaining))
	case c.phase == PhaseViolated && active:
		c.phase = PhaseActive
		c.attempt.FullscreenActive = true
	}
	c.mu.Unlock()
	return nil
}

func (c *Controller) runPending(ctx context.Context) error {
	c.mu.Lock()
	if c.pending == nil {
		c.mu.Unlock()
		return ErrNoAttempt
	}
	req := *c.pending
	c.phase = PhaseLoading
	gen := c.gen
	lang := c.language()
	c.mu.Unlock()

	topic := req.topic
	if topic == AllTopics {
		topic = ""
	}
	set, err := c.gw.GenerateQuiz(ctx, req.difficulty, lang, topic)
	if err == nil && len(set.Questions) == 0 {
		err = &gateway.GenerationError{Reason: "no questions returned"}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return ErrStale
	}
	c.pending = nil
	if err != nil {
		c.phase = PhaseNotStarted
		c.lastErr = err
		return err
	}

	questions := set.Questions
	if n := QuestionCount(req.difficulty); len(questions) > n {
		questions = questions[:n]
	}
	c.topics = slices.Clone(set.TopicsUsed)
	c.attempt = &Attempt{
		Difficulty:       req.difficulty,
		Topic:            topic,
		Questions:        questions,
		Answers:          make(map[int]string),
		FullscreenActive: true,
		StartedAt:        c.clock.Now(),
	}
	c.attempt.TimeRemaining = c.attempt.Allotted()
	c.phase = PhaseActive
	// Focus may have been lost while the questions loaded.
	if c.fullscreen.Supported() && !c.fullscreen.Active() {
		c.attempt.FullscreenActive = false
		c.phase = PhaseViolated
		c.logger.Info("fullscreen lost while loading, timer paused")
	}
	return nil
}

// SelectAnswer toggles option for question i. Choosing the option that is
// already selected clears it.
func (c *Controller) SelectAnswer(i int, option string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	a := c.attempt
	if a == nil || a.Submitted || i < 0 || i >= len(a.Questions) {
		return
	}
	if !slices.Contains(a.Questions[i].Options, option) {
		return
	}
	if a.Answers[i] == option {
		delete(a.Answers, i)
		return
	}
	a.Answers[i] = option
}

// Tick advances the countdown by one second. It only counts down in
// PhaseActive. It returns true when this tick ran the clock out and
// submitted the attempt; the caller then reports it with
// FinalizeSubmission.
func (c *Controller) Tick() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseActive || c.attempt.Submitted {
		return false
	}
	if c.attempt.TimeRemaining > 0 {
		c.attempt.TimeRemaining--
	}
	if c.attempt.TimeRemaining > 0 {
		return false
	}
	c.freezeLocked()
	return true
}

// RequestSubmit submits a complete attempt. For an incomplete one it
// returns a review with Required set and does nothing else.
func (c *Controller) RequestSubmit(ctx context.Context) (*SubmitReview, *Outcome, error) {
	c.mu.Lock()
	if c.attempt == nil {
		c.mu.Unlock()
		return nil, nil, ErrNoAttempt
	}
	if !c.attempt.Submitted {
		review := reviewOf(c.attempt)
		if review.Required {
			c.mu.Unlock()
			return review, nil, nil
		}
	}
	c.mu.Unlock()

	out, err := c.FinalizeSubmission(ctx)
	return nil, out, err
}

// ForceSubmit submits regardless of unanswered questions.
func (c *Controller) ForceSubmit(ctx context.Context) (*Outcome, error) {
	return c.FinalizeSubmission(ctx)
}

// FinalizeSubmission scores the attempt and reports it once. Reporting is
// best effort: failures are logged and the local outcome is returned
// regardless. Later calls return the same outcome without reporting again.
func (c *Controller) FinalizeSubmission(ctx context.Context) (*Outcome, error) {
	c.mu.Lock()
	if c.attempt == nil {
		c.mu.Unlock()
		return nil, ErrNoAttempt
	}
	if !c.attempt.Submitted {
		c.freezeLocked()
	}
	out := c.outcome
	if c.reported {
		c.mu.Unlock()
		return out, nil
	}
	c.reported = true
	gen := c.gen
	c.mu.Unlock()

	result := gateway.QuizResult{
		Score:          out.Score,
		TotalQuestions: out.Total,
		Difficulty:     out.Difficulty,
		TimeTaken:      out.TimeTaken,
	}
	if out.Topic != "" {
		topic := out.Topic
		result.Topic = &topic
	}

	if err := c.gw.SubmitQuizResult(ctx, result); err != nil {
		c.logger.Warn("quiz result not saved",
			slog.String("difficulty", string(out.Difficulty)),
			slog.Int("score", out.Score),
			slog.String("error", err.Error()))
		return out, nil
	}

	board, err := c.gw.FetchLeaderboard(ctx, out.Difficulty)
	if err != nil {
		c.logger.Warn("leaderboard refresh failed", slog.String("error", err.Error()))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen == c.gen && c.outcome == out {
		out.Reported = true
		if err == nil {
			out.Leaderboard = board
		}
	}
	return out, nil
}

// ExitAttempt abandons whatever is in progress and returns to
// PhaseNotStarted. Any fetch still in flight is discarded when it lands.
func (c *Controller) ExitAttempt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fullscreen.Supported() {
		c.fullscreen.Exit()
	}
	c.resetLocked()
}

func (c *Controller) resetLocked() {
	c.gen++
	c.phase = PhaseNotStarted
	c.attempt = nil
	c.pending = nil
	c.outcome = nil
	c.reported = false
}

// freezeLocked scores the attempt and marks it submitted.
func (c *Controller) freezeLocked() {
	a := c.attempt
	a.Submitted = true
	c.phase = PhaseSubmitted
	if c.fullscreen.Supported() {
		c.fullscreen.Exit()
	}

	out := &Outcome{
		Difficulty:   a.Difficulty,
		Topic:        a.Topic,
		Score:        Score(a.Questions, a.Answers),
		Total:        len(a.Questions),
		TimeTaken:    a.Allotted() - a.TimeRemaining,
		StartedAt:    a.StartedAt,
		FinishedAt:   c.clock.Now(),
		MissedTopics: MissedTopics(a.Questions, a.Answers),
	}
	for i, q := range a.Questions {
		chosen := a.Answers[i]
		out.Review = append(out.Review, QuestionReview{
			Question: q,
			Chosen:   chosen,
			Correct:  chosen != "" && chosen == q.Answer,
		})
	}
	c.outcome = out
	c.logger.Debug("attempt submitted", slog.String("score", fmt.Sprintf("%d/%d", out.Score, out.Total)))
}

func reviewOf(a *Attempt) *SubmitReview {
	r := &SubmitReview{}
	for i := range a.Questions {
		if _, ok := a.Answers[i]; ok {
			r.Answered = append(r.Answered, i)
		} else {
			r.Unanswered = append(r.Unanswered, i)
		}
	}
	r.Required = len(r.Unanswered) > 0
	return r
}
