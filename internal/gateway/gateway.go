// Package gateway is the client side of the ConceptClarity backend API.
package gateway

import "context"

// Gateway is every backend operation the client consumes.
type Gateway interface {
	Authenticate(ctx context.Context, creds Credentials) (string, error)
	Signup(ctx context.Context, form SignupForm) error
	WhoAmI(ctx context.Context, token string) (*Profile, error)
	UpdateProfile(ctx context.Context, update ProfileUpdate) error

	Search(ctx context.Context, query string, level Level, language string) (*SearchResponse, error)
	FetchMedia(ctx context.Context, query string) (*Media, error)
	SubmitFeedback(ctx context.Context, historyID int64, value int) error
	History(ctx context.Context) ([]HistoryItem, error)
	DeleteHistory(ctx context.Context, id int64) error
	ClearHistory(ctx context.Context) error

	GenerateQuiz(ctx context.Context, level Level, language, topic string) (*QuizSet, error)
	SubmitQuizResult(ctx context.Context, result QuizResult) error
	FetchLeaderboard(ctx context.Context, level Level) ([]LeaderboardEntry, error)

	SubmitReview(ctx context.Context, form ReviewForm) error
	MyReview(ctx context.Context) (*Review, error)

	AdminLogin(ctx context.Context, creds Credentials) (string, error)
	AdminStats(ctx context.Context, filter AdminStatsFilter) (*AdminStats, error)
	AdminUsers(ctx context.Context) ([]AdminUser, error)
}

// TokenSource supplies stored bearer tokens. An empty token means none.
type TokenSource interface {
	UserToken(ctx context.Context) (string, error)
	AdminToken(ctx context.Context) (string, error)
}
