package gateway

import (
	"fmt"
	"time"
)

// Level is a difficulty for definitions and quizzes.
type Level string

const (
	LevelEasy   Level = "easy"
	LevelMedium Level = "medium"
	LevelHard   Level = "hard"
)

// Levels lists the levels from easiest to hardest.
var Levels = []Level{LevelEasy, LevelMedium, LevelHard}

// ParseLevel validates s.
func ParseLevel(s string) (Level, error) {
	switch l := Level(s); l {
	case LevelEasy, LevelMedium, LevelHard:
		return l, nil
	}
	return "", fmt.Errorf("unknown level %q", s)
}

// Question is one multiple-choice quiz item. It is never mutated after
// it is fetched.
type Question struct {
	Prompt      string   `json:"question"`
	Options     []string `json:"options"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation"`
	Topic       string   `json:"topic"`
}

// QuizSet is a generated quiz.
type QuizSet struct {
	Questions  []Question
	TopicsUsed []string
}

// QuizResult is what a finished attempt reports.
type QuizResult struct {
	Score          int     `json:"score"`
	TotalQuestions int     `json:"total_questions"`
	Difficulty     Level   `json:"difficulty"`
	Topic          *string `json:"topic"`
	TimeTaken      int     `json:"time_taken"`
}

// LeaderboardEntry is one ranked row. Rank is 1-based.
type LeaderboardEntry struct {
	Rank           int    `json:"rank"`
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	Score          int    `json:"score"`
	TotalQuestions int    `json:"total_questions"`
}

// SearchResponse is the text part of a concept lookup.
type SearchResponse struct {
	Term         string   `json:"term"`
	Definition   string   `json:"definition"`
	Examples     []string `json:"examples"`
	RelatedWords []string `json:"related_words"`
	VideoID      string   `json:"video_id,omitempty"`
	ImageURL     string   `json:"image_url,omitempty"`
	Source       string   `json:"source,omitempty"`
	HistoryID    *int64   `json:"history_id,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// Media is the secondary, best-effort enrichment of a search.
type Media struct {
	VideoID  string `json:"video_id,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Empty reports whether no media was found.
func (m Media) Empty() bool {
	return m.VideoID == "" && m.ImageURL == ""
}

// HistoryItem is one past search.
type HistoryItem struct {
	ID        int64     `json:"id"`
	Query     string    `json:"query"`
	Result    string    `json:"result"`
	Feedback  *int      `json:"feedback"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile is what whoAmI returns for a valid token.
type Profile struct {
	Email     string `json:"email,omitempty"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Language  string `json:"language"`
}

// Review is the signed-in user's review.
type Review struct {
	ID        int64     `json:"id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// AdminStatsFilter narrows aggregate statistics. Zero values mean no bound.
type AdminStatsFilter struct {
	Since time.Time
	Until time.Time
}

// WordCount is a search term with its frequency.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// AdminStats are aggregate usage metrics.
type AdminStats struct {
	TotalMembers      int         `json:"total_members"`
	TotalReviews      int         `json:"total_reviews"`
	AverageRating     float64     `json:"average_rating"`
	MostSearchedWords []WordCount `json:"most_searched_words"`
}

// AdminUserReview is a review as listed for administrators.
type AdminUserReview struct {
	Rating  int       `json:"rating"`
	Comment string    `json:"comment"`
	Date    time.Time `json:"date"`
}

// AdminUser is one account as listed for administrators.
type AdminUser struct {
	ID       int64             `json:"id"`
	Username string            `json:"username"`
	Email    string            `json:"email,omitempty"`
	Role     string            `json:"role"`
	Reviews  []AdminUserReview `json:"reviews"`
}
