// Package search runs concept lookups for the search view: the anonymous
// quota, stale response handling, async media and optimistic feedback.
package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/conceptclarity/clarity/internal/gateway"
)

// DefaultAnonymousLimit is how many searches an anonymous user gets per run.
const DefaultAnonymousLimit = 2

// LoginRoute is where QuotaExceeded redirects.
const LoginRoute = "login"

// ErrStale is returned for a response that arrived after a newer search
// was started.
var ErrStale = errors.New("search superseded by a newer one")

// PopularTerms are suggested on an empty search view.
var PopularTerms = []string{
	"Photosynthesis",
	"Quantum Physics",
	"DNA Replication",
	"Black Hole",
	"Climate Change",
	"Artificial Intelligence",
}

// Session is the part of the token store the controller needs.
type Session interface {
	UserToken(ctx context.Context) (string, error)
	AnonymousSearches() int
	IncrementAnonymousSearches() int
}

// Result is a displayed lookup.
type Result struct {
	Seq          uint64
	Query        string
	Term         string
	Definition   string
	Examples     []string
	RelatedWords []string
	HistoryID    *int64
	Level        gateway.Level
	Feedback     int
	Media        *gateway.Media
}

// MediaUpdate is delivered when a media lookup finishes.
type MediaUpdate struct {
	Seq   uint64
	Media *gateway.Media
	Err   error
}

// Controller owns the current search result.
type Controller struct {
	gw      gateway.Gateway
	session Session
	voice   Voice
	limit   int
	logger  *slog.Logger

	mu      sync.Mutex
	seq     uint64
	current *Result

	background sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithAnonymousLimit overrides DefaultAnonymousLimit.
func WithAnonymousLimit(n int) Option {
	return func(c *Controller) { c.limit = n }
}

// WithVoice sets the speech input capability.
func WithVoice(v Voice) Option {
	return func(c *Controller) { c.voice = v }
}

// WithLogger sets the logger for best-effort failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// NewController returns a Controller.
func NewController(gw gateway.Gateway, session Session, opts ...Option) *Controller {
	c := &Controller{
		gw:      gw,
		session: session,
		voice:   NoVoice{},
		limit:   DefaultAnonymousLimit,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Current returns a copy of the displayed result, or nil.
func (c *Controller) Current() *Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	cp := *c.current
	return &cp
}

// RemainingAnonymous returns how many free searches are left, or -1 when
// signed in.
func (c *Controller) RemainingAnonymous(ctx context.Context) int {
	if tok, _ := c.session.UserToken(ctx); tok != "" {
		return -1
	}
	return max(c.limit-c.session.AnonymousSearches(), 0)
}

// Search looks up term. Anonymous callers always get the easy level and
// are limited to the anonymous quota; once it is used up a
// *gateway.QuotaExceeded is returned without calling the backend.
func (c *Controller) Search(ctx context.Context, term string, level gateway.Level, language string) (*Result, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, gateway.NewValidationError("query", "enter a term to search")
	}

	token, err := c.session.UserToken(ctx)
	if err != nil {
		return nil, &gateway.TransportError{Op: "read token", Err: err}
	}
	anonymous := token == ""
	if anonymous {
		if c.session.AnonymousSearches() >= c.limit {
			return nil, &gateway.QuotaExceeded{Limit: c.limit, Redirect: LoginRoute}
		}
		level = gateway.LevelEasy
	}
	if level == "" {
		level = gateway.LevelEasy
	}

	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	resp, err := c.gw.Search(ctx, term, level, language)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Seq:          seq,
		Query:        term,
		Term:         resp.Term,
		Definition:   resp.Definition,
		Examples:     FilterExamples(resp.Examples),
		RelatedWords: resp.RelatedWords,
		HistoryID:    resp.HistoryID,
		Level:        level,
	}
	if res.Term == "" {
		res.Term = term
	}
	if resp.VideoID != "" || resp.ImageURL != "" {
		res.Media = &gateway.Media{VideoID: resp.VideoID, ImageURL: resp.ImageURL}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		return nil, ErrStale
	}
	// Only a delivered result uses up a free search.
	if anonymous {
		c.session.IncrementAnonymousSearches()
	}
	c.current = res
	cp := *res
	return &cp, nil
}

// FetchMedia returns a function that looks up media for res. It is meant
// to run off the UI loop; pass its result to ApplyMedia.
func (c *Controller) FetchMedia(res *Result) func(ctx context.Context) (*gateway.Media, error) {
	query := res.Query
	return func(ctx context.Context) (*gateway.Media, error) {
		m, err := c.gw.FetchMedia(ctx, query)
		if err != nil {
			c.logger.Debug("media lookup failed", slog.String("query", query), slog.String("error", err.Error()))
			return nil, err
		}
		return m, nil
	}
}

// MediaAsync looks up media for res in a goroutine, applies it, and
// delivers the update on the returned channel.
func (c *Controller) MediaAsync(ctx context.Context, res *Result) <-chan MediaUpdate {
	ch := make(chan MediaUpdate, 1)
	fetch := c.FetchMedia(res)
	seq := res.Seq
	c.background.Add(1)
	go func() {
		defer c.background.Done()
		defer close(ch)
		m, err := fetch(ctx)
		if err == nil {
			c.ApplyMedia(seq, m)
		}
		ch <- MediaUpdate{Seq: seq, Media: m, Err: err}
	}()
	return ch
}

// ApplyMedia attaches media to the current result. It reports false and
// does nothing when seq is not the current search.
func (c *Controller) ApplyMedia(seq uint64, m *gateway.Media) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil || c.current.Seq != seq || m == nil {
		return false
	}
	media := *m
	c.current.Media = &media
	return true
}

// SubmitFeedback records a rating of -1, 0 or 1 for a history entry. The
// local value changes at once; the backend write happens in the
// background and its failure is only logged.
func (c *Controller) SubmitFeedback(ctx context.Context, historyID int64, value int) error {
	if value < -1 || value > 1 {
		return gateway.NewValidationError("feedback", "must be -1, 0 or 1")
	}

	c.mu.Lock()
	if c.current != nil && c.current.HistoryID != nil && *c.current.HistoryID == historyID {
		c.current.Feedback = value
	}
	c.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	c.background.Add(1)
	go func() {
		defer c.background.Done()
		if err := c.gw.SubmitFeedback(ctx, historyID, value); err != nil {
			c.logger.Warn("feedback not saved",
				slog.Int64("history_id", historyID),
				slog.Int("value", value),
				slog.String("error", err.Error()))
		}
	}()
	return nil
}

// Wait blocks until background feedback and media work has finished.
func (c *Controller) Wait() {
	c.background.Wait()
}

// Reset clears the displayed result and invalidates in-flight searches.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.current = nil
}

// FilterExamples drops blank, very short and "n/a" examples.
func FilterExamples(examples []string) []string {
	out := make([]string, 0, len(examples))
	for _, ex := range examples {
		ex = strings.TrimSpace(ex)
		if utf8.RuneCountInString(ex) <= 3 || strings.EqualFold(ex, "n/a") {
			continue
		}
		out = append(out, ex)
	}
	return out
}
