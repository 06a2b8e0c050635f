package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("store: not found")

	// ErrConflict is returned when an insert violates a unique constraint.
	ErrConflict = errors.New("store: already exists")
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit int       // max results (0 = unlimited)
	From  time.Time // created_at >= From
	To    time.Time // created_at <= To
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLM request.
type LLMRequestEvent struct {
	ID        int
	Timestamp time.Time
	LLMRequestEventData
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// GetLLMEvent returns one event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEvent, error)
}

// User is an account of the local backend.
type User struct {
	ID           int
	Username     string
	Email        string
	PasswordHash string
	Role         string
	Language     string
	FirstName    string
	LastName     string
	IsAdmin      bool
	CreatedAt    time.Time
}

// HistoryEntry is one stored search.
type HistoryEntry struct {
	ID        int
	UserID    int
	Query     string
	Level     string
	Language  string
	Summary   string
	Feedback  int
	CreatedAt time.Time
}

// QuizResult is one stored quiz attempt.
type QuizResult struct {
	ID             int
	UserID         int
	Score          int
	TotalQuestions int
	Difficulty     string
	Topic          string // empty means all topics
	TimeTaken      int
	CreatedAt      time.Time
}

// LeaderboardRow is a user's best attempt for a difficulty.
type LeaderboardRow struct {
	UserID         int
	Username       string
	Score          int
	TotalQuestions int
	TimeTaken      int
}

// Review is one stored rating of the service.
type Review struct {
	ID        int
	UserID    int
	Username  string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

// WordCount is a search term with its frequency.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// StatsFilter narrows aggregate queries to a time range.
type StatsFilter struct {
	Since time.Time
	Until time.Time
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
