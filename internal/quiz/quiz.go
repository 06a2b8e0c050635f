// Package quiz runs one timed quiz attempt: fetching questions, the
// fullscreen proctoring rule, answer tracking, scoring and reporting.
package quiz

import (
	"errors"
	"time"

	"github.com/conceptclarity/clarity/internal/gateway"
)

// Phase is the state of the controller.
type Phase int

const (
	PhaseNotStarted         Phase = iota // No attempt
	PhaseAwaitingFullscreen              // Start deferred until fullscreen is confirmed
	PhaseLoading                         // Questions are being fetched
	PhaseActive                          // Timer running
	PhaseViolated                        // Fullscreen lost; timer frozen
	PhaseSubmitted                       // Scored; terminal until exit
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not-started"
	case PhaseAwaitingFullscreen:
		return "awaiting-fullscreen"
	case PhaseLoading:
		return "loading"
	case PhaseActive:
		return "active"
	case PhaseViolated:
		return "violated"
	case PhaseSubmitted:
		return "submitted"
	}
	return "unknown"
}

// AllTopics is the topic filter value that sends no topic.
const AllTopics = "All"

// DefaultMissedTopic is reported when every missed question lacks a topic.
const DefaultMissedTopic = "General Concepts"

var (
	// ErrInProgress is returned when starting while another attempt runs.
	ErrInProgress = errors.New("an attempt is already in progress")
	// ErrNoAttempt is returned when submitting without an attempt.
	ErrNoAttempt = errors.New("no attempt in progress")
	// ErrStale is returned when a fetch finished after the attempt it
	// belonged to was abandoned.
	ErrStale = errors.New("attempt was abandoned")
)

// QuestionCount is the number of questions asked at level.
func QuestionCount(level gateway.Level) int {
	switch level {
	case gateway.LevelMedium:
		return 10
	case gateway.LevelHard:
		return 20
	}
	return 5
}

// TimeLimit is the countdown allotted at level.
func TimeLimit(level gateway.Level) time.Duration {
	switch level {
	case gateway.LevelMedium:
		return 15 * time.Minute
	case gateway.LevelHard:
		return 30 * time.Minute
	}
	return 5 * time.Minute
}

// Fullscreen is the environment's fullscreen capability. When unsupported
// an attempt starts without proctoring.
type Fullscreen interface {
	Supported() bool
	Active() bool
	Request() error
	Exit()
}

// Clock supplies wall time for attempt timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Unsupported is a Fullscreen that is never available.
type Unsupported struct{}

func (Unsupported) Supported() bool { return false }
func (Unsupported) Active() bool    { return false }
func (Unsupported) Request() error  { return nil }
func (Unsupported) Exit()           {}

// Attempt is a snapshot of the running attempt.
type Attempt struct {
	Difficulty       gateway.Level
	Topic            string
	Questions        []gateway.Question
	Answers          map[int]string
	TimeRemaining    int
	Submitted        bool
	FullscreenActive bool
	StartedAt        time.Time
}

// Allotted is the attempt's countdown in seconds.
func (a *Attempt) Allotted() int {
	return int(TimeLimit(a.Difficulty) / time.Second)
}

// Answered reports how many questions have an answer.
func (a *Attempt) Answered() int {
	return len(a.Answers)
}

// SubmitReview lists what is missing before an incomplete attempt can be
// submitted without confirmation.
type SubmitReview struct {
	Answered   []int
	Unanswered []int
	Required   bool
}

// QuestionReview is the per-question part of an Outcome.
type QuestionReview struct {
	Question gateway.Question
	Chosen   string
	Correct  bool
}

// Outcome is the locally scored result. It is shown even if reporting it
// to the backend failed.
type Outcome struct {
	Difficulty   gateway.Level
	Topic        string
	Score        int
	Total        int
	TimeTaken    int
	StartedAt    time.Time
	FinishedAt   time.Time
	Review       []QuestionReview
	MissedTopics []string

	// Reported is set once the backend accepted the result.
	Reported bool
	// Leaderboard is the refreshed ranking, nil if the refresh failed.
	Leaderboard []gateway.LeaderboardEntry
}

// Percentage is the score out of 100.
func (o *Outcome) Percentage() float64 {
	if o.Total == 0 {
		return 0
	}
	return float64(o.Score) * 100 / float64(o.Total)
}

// Score counts the indices whose answer matches the question's answer.
func Score(questions []gateway.Question, answers map[int]string) int {
	score := 0
	for i, q := range questions {
		if a, ok := answers[i]; ok && a == q.Answer {
			score++
		}
	}
	return score
}

// MissedTopics returns the distinct topics of wrong or unanswered
// questions in question order.
func MissedTopics(questions []gateway.Question, answers map[int]string) []string {
	seen := make(map[string]bool)
	var out []string
	missedAny := false
	for i, q := range questions {
		if answers[i] == q.Answer {
			continue
		}
		missedAny = true
		if q.Topic == "" || seen[q.Topic] {
			continue
		}
		seen[q.Topic] = true
		out = append(out, q.Topic)
	}
	if missedAny && len(out) == 0 {
		out = []string{DefaultMissedTopic}
	}
	return out
}
