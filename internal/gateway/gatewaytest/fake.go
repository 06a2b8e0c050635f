// Package gatewaytest provides an in-memory gateway.Gateway for tests.
package gatewaytest

import (
	"context"
	"sync"

	"github.com/conceptclarity/clarity/internal/gateway"
)

// Fake is a scriptable gateway.Gateway. Each Func field overrides one
// operation; unset operations succeed with zero values. Calls are counted
// by operation name.
type Fake struct {
	AuthenticateFunc     func(ctx context.Context, creds gateway.Credentials) (string, error)
	SignupFunc           func(ctx context.Context, form gateway.SignupForm) error
	WhoAmIFunc           func(ctx context.Context, token string) (*gateway.Profile, error)
	UpdateProfileFunc    func(ctx context.Context, update gateway.ProfileUpdate) error
	SearchFunc           func(ctx context.Context, query string, level gateway.Level, language string) (*gateway.SearchResponse, error)
	FetchMediaFunc       func(ctx context.Context, query string) (*gateway.Media, error)
	SubmitFeedbackFunc   func(ctx context.Context, historyID int64, value int) error
	HistoryFunc          func(ctx context.Context) ([]gateway.HistoryItem, error)
	DeleteHistoryFunc    func(ctx context.Context, id int64) error
	ClearHistoryFunc     func(ctx context.Context) error
	GenerateQuizFunc     func(ctx context.Context, level gateway.Level, language, topic string) (*gateway.QuizSet, error)
	SubmitQuizResultFunc func(ctx context.Context, result gateway.QuizResult) error
	FetchLeaderboardFunc func(ctx context.Context, level gateway.Level) ([]gateway.LeaderboardEntry, error)
	SubmitReviewFunc     func(ctx context.Context, form gateway.ReviewForm) error
	MyReviewFunc         func(ctx context.Context) (*gateway.Review, error)
	AdminLoginFunc       func(ctx context.Context, creds gateway.Credentials) (string, error)
	AdminStatsFunc       func(ctx context.Context, filter gateway.AdminStatsFilter) (*gateway.AdminStats, error)
	AdminUsersFunc       func(ctx context.Context) ([]gateway.AdminUser, error)

	mu      sync.Mutex
	calls   map[string]int
	results []gateway.QuizResult
}

var _ gateway.Gateway = (*Fake)(nil)

// Calls returns how many times op was called.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// Results returns every submitted quiz result.
func (f *Fake) Results() []gateway.QuizResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]gateway.QuizResult(nil), f.results...)
}

func (f *Fake) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[op]++
}

func (f *Fake) Authenticate(ctx context.Context, creds gateway.Credentials) (string, error) {
	f.record("Authenticate")
	if f.AuthenticateFunc != nil {
		return f.AuthenticateFunc(ctx, creds)
	}
	return "token", nil
}

func (f *Fake) Signup(ctx context.Context, form gateway.SignupForm) error {
	f.record("Signup")
	if f.SignupFunc != nil {
		return f.SignupFunc(ctx, form)
	}
	return nil
}

func (f *Fake) WhoAmI(ctx context.Context, token string) (*gateway.Profile, error) {
	f.record("WhoAmI")
	if f.WhoAmIFunc != nil {
		return f.WhoAmIFunc(ctx, token)
	}
	return &gateway.Profile{Username: "user", Language: "en"}, nil
}

func (f *Fake) UpdateProfile(ctx context.Context, update gateway.ProfileUpdate) error {
	f.record("UpdateProfile")
	if f.UpdateProfileFunc != nil {
		return f.UpdateProfileFunc(ctx, update)
	}
	return nil
}

func (f *Fake) Search(ctx context.Context, query string, level gateway.Level, language string) (*gateway.SearchResponse, error) {
	f.record("Search")
	if f.SearchFunc != nil {
		return f.SearchFunc(ctx, query, level, language)
	}
	return &gateway.SearchResponse{Term: query}, nil
}

func (f *Fake) FetchMedia(ctx context.Context, query string) (*gateway.Media, error) {
	f.record("FetchMedia")
	if f.FetchMediaFunc != nil {
		return f.FetchMediaFunc(ctx, query)
	}
	return &gateway.Media{}, nil
}

func (f *Fake) SubmitFeedback(ctx context.Context, historyID int64, value int) error {
	f.record("SubmitFeedback")
	if f.SubmitFeedbackFunc != nil {
		return f.SubmitFeedbackFunc(ctx, historyID, value)
	}
	return nil
}

func (f *Fake) History(ctx context.Context) ([]gateway.HistoryItem, error) {
	f.record("History")
	if f.HistoryFunc != nil {
		return f.HistoryFunc(ctx)
	}
	return nil, nil
}

func (f *Fake) DeleteHistory(ctx context.Context, id int64) error {
	f.record("DeleteHistory")
	if f.DeleteHistoryFunc != nil {
		return f.DeleteHistoryFunc(ctx, id)
	}
	return nil
}

func (f *Fake) ClearHistory(ctx context.Context) error {
	f.record("ClearHistory")
	if f.ClearHistoryFunc != nil {
		return f.ClearHistoryFunc(ctx)
	}
	return nil
}

func (f *Fake) GenerateQuiz(ctx context.Context, level gateway.Level, language, topic string) (*gateway.QuizSet, error) {
	f.record("GenerateQuiz")
	if f.GenerateQuizFunc != nil {
		return f.GenerateQuizFunc(ctx, level, language, topic)
	}
	return &gateway.QuizSet{}, nil
}

func (f *Fake) SubmitQuizResult(ctx context.Context, result gateway.QuizResult) error {
	f.record("SubmitQuizResult")
	f.mu.Lock()
	f.results = append(f.results, result)
	f.mu.Unlock()
	if f.SubmitQuizResultFunc != nil {
		return f.SubmitQuizResultFunc(ctx, result)
	}
	return nil
}

func (f *Fake) FetchLeaderboard(ctx context.Context, level gateway.Level) ([]gateway.LeaderboardEntry, error) {
	f.record("FetchLeaderboard")
	if f.FetchLeaderboardFunc != nil {
		return f.FetchLeaderboardFunc(ctx, level)
	}
	return nil, nil
}

func (f *Fake) SubmitReview(ctx context.Context, form gateway.ReviewForm) error {
	f.record("SubmitReview")
	if f.SubmitReviewFunc != nil {
		return f.SubmitReviewFunc(ctx, form)
	}
	return nil
}

func (f *Fake) MyReview(ctx context.Context) (*gateway.Review, error) {
	f.record("MyReview")
	if f.MyReviewFunc != nil {
		return f.MyReviewFunc(ctx)
	}
	return nil, &gateway.TransportError{Op: "my_review", Status: 404}
}

func (f *Fake) AdminLogin(ctx context.Context, creds gateway.Credentials) (string, error) {
	f.record("AdminLogin")
	if f.AdminLoginFunc != nil {
		return f.AdminLoginFunc(ctx, creds)
	}
	return "admin-token", nil
}

func (f *Fake) AdminStats(ctx context.Context, filter gateway.AdminStatsFilter) (*gateway.AdminStats, error) {
	f.record("AdminStats")
	if f.AdminStatsFunc != nil {
		return f.AdminStatsFunc(ctx, filter)
	}
	return &gateway.AdminStats{}, nil
}

func (f *Fake) AdminUsers(ctx context.Context) ([]gateway.AdminUser, error) {
	f.record("AdminUsers")
	if f.AdminUsersFunc != nil {
		return f.AdminUsersFunc(ctx)
	}
	return nil, nil
}

// Tokens is a fixed gateway.TokenSource.
type Tokens struct {
	User  string
	Admin string
}

func (t Tokens) UserToken(context.Context) (string, error)  { return t.User, nil }
func (t Tokens) AdminToken(context.Context) (string, error) { return t.Admin, nil }

// Questions returns n questions whose answer is always option "A", with
// topics cycling through topics (or none).
func Questions(n int, topics ...string) []gateway.Question {
	qs := make([]gateway.Question, n)
	for i := range qs {
		qs[i] = gateway.Question{
			Prompt:      "Question",
			Options:     []string{"A", "B", "C", "D"},
			Answer:      "A",
			Explanation: "A is right",
		}
		if len(topics) > 0 {
			qs[i].Topic = topics[i%len(topics)]
		}
	}
	return qs
}
