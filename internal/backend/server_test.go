package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conceptclarity/clarity/internal/conceptgen"
	"github.com/conceptclarity/clarity/internal/config"
	"github.com/conceptclarity/clarity/internal/gateway"
	"github.com/conceptclarity/clarity/internal/llm"
	"github.com/conceptclarity/clarity/internal/logging"
	"github.com/conceptclarity/clarity/internal/store"
	"github.com/conceptclarity/clarity/internal/tokenstore"
)

const testPassword = "Secret#123"

type testEnv struct {
	server *Server
	http   *httptest.Server
	store  *store.Store
	tokens *tokenstore.Store
	client *gateway.HTTPClient
}

func newTestEnv(t *testing.T, provider llm.Provider, opts ...Option) *testEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := store.Open(fmt.Sprintf("file:backend_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := config.DefaultConfig().Server
	cfg.AdminUsername = "root"
	cfg.AdminPassword = testPassword

	gen := conceptgen.New(provider, conceptgen.DefaultConfig(), logging.Discard())
	opts = append([]Option{WithLogger(logging.Discard())}, opts...)
	srv := New(st, gen, cfg, opts...)
	require.NoError(t, srv.BootstrapAdmin(context.Background()))

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	tokens := tokenstore.New(tokenstore.NewMemory())
	client, err := gateway.NewHTTPClient(ts.URL, tokens)
	require.NoError(t, err)

	return &testEnv{server: srv, http: ts, store: st, tokens: tokens, client: client}
}

// signIn creates username and stores its token as the user token.
func (e *testEnv) signIn(t *testing.T, username string) {
	t.Helper()
	ctx := context.Background()
	err := e.client.Signup(ctx, gateway.SignupForm{
		Username:        username,
		Role:            "student",
		Password:        testPassword,
		ConfirmPassword: testPassword,
	})
	require.NoError(t, err)
	token, err := e.client.Authenticate(ctx, gateway.Credentials{Identifier: username, Password: testPassword})
	require.NoError(t, err)
	require.NoError(t, e.tokens.SetUserToken(ctx, token))
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, e.http.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func TestSignupLoginWhoAmI(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	err := env.client.Signup(ctx, gateway.SignupForm{
		Email:           "ada@example.com",
		Username:        "ada",
		Role:            "scientist",
		Language:        "te",
		Password:        testPassword,
		ConfirmPassword: testPassword,
	})
	require.NoError(t, err)

	token, err := env.client.Authenticate(ctx, gateway.Credentials{Identifier: "ada@example.com", Password: testPassword})
	require.NoError(t, err)

	profile, err := env.client.WhoAmI(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "ada", profile.Username)
	assert.Equal(t, "scientist", profile.Role)
	assert.Equal(t, "te", profile.Language)
}

func TestSignupRejectsDuplicates(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signIn(t, "ada")

	err := env.client.Signup(context.Background(), gateway.SignupForm{
		Username: "ada", Role: "student", Password: testPassword, ConfirmPassword: testPassword,
	})
	var verr *gateway.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Username already exists", verr.Message("detail"))
}

func TestSignupValidationIsUnprocessable(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body := env.do(t, http.MethodPost, "/signup", "", `{"username":"a!","password":"weak"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	detail, ok := body["detail"].([]any)
	require.True(t, ok, "detail = %v", body["detail"])
	assert.NotEmpty(t, detail)

	status, _ = env.do(t, http.MethodPost, "/signup", "", `{"password":"`+testPassword+`"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(t, http.MethodPost, "/signup", "", `{not json`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signIn(t, "ada")

	_, err := env.client.Authenticate(context.Background(), gateway.Credentials{Identifier: "ada", Password: "Wrong#1234"})
	assert.ErrorIs(t, err, gateway.ErrAuth)

	_, err = env.client.Authenticate(context.Background(), gateway.Credentials{Identifier: "nobody", Password: testPassword})
	assert.ErrorIs(t, err, gateway.ErrAuth)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, path := range []string{"/me", "/history", "/quiz?level=easy", "/review"} {
		status, body := env.do(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, status, path)
		assert.NotEmpty(t, body["detail"], path)
	}

	status, body := env.do(t, http.MethodGet, "/me", "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid token", body["detail"])
}

func TestExpiredTokenIsRejected(t *testing.T) {
	now := time.Now()
	env := newTestEnv(t, nil, WithClock(func() time.Time { return now }))
	env.signIn(t, "ada")
	token, _ := env.tokens.UserToken(context.Background())

	now = now.Add(config.DefaultConfig().Server.TokenTTL + time.Minute)
	_, err := env.client.WhoAmI(context.Background(), token)
	assert.ErrorIs(t, err, gateway.ErrAuth)
}

func TestAnonymousSearchIsEasyAndUnsaved(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, err := env.client.Search(context.Background(), "Gravity", gateway.LevelHard, "en")
	require.NoError(t, err)
	assert.Equal(t, conceptgen.Fallback("Gravity").Easy, resp.Definition)
	assert.Equal(t, conceptgen.SourceFallback, resp.Source)
	assert.Nil(t, resp.HistoryID)
}

func TestSearchSavesHistory(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signIn(t, "ada")
	ctx := context.Background()

	resp, err := env.client.Search(ctx, "Gravity", gateway.LevelHard, "en")
	require.NoError(t, err)
	require.NotNil(t, resp.HistoryID)
	assert.Equal(t, conceptgen.Fallback("Gravity").Hard, resp.Definition)

	items, err := env.client.History(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, *resp.HistoryID, items[0].ID)
	assert.Equal(t, summarize(resp.Definition), items[0].Result)
	assert.True(t, strings.HasSuffix(items[0].Result, "..."))
	assert.Nil(t, items[0].Feedback)

	require.NoError(t, env.client.SubmitFeedback(ctx, items[0].ID, -1))
	items, err = env.client.History(ctx)
	require.NoError(t, err)
	require.NotNil(t, items[0].Feedback)
	assert.Equal(t, -1, *items[0].Feedback)

	require.NoError(t, env.client.DeleteHistory(ctx, items[0].ID))
	err = env.client.DeleteHistory(ctx, items[0].ID)
	var terr *gateway.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusNotFound, terr.Status)
}

func TestFeedbackOnOtherUsersEntryIsNotFound(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signIn(t, "ada")
	ctx := context.Background()
	resp, err := env.client.Search(ctx, "Atom", gateway.LevelEasy, "en")
	require.NoError(t, err)

	env.signIn(t, "grace")
	err = env.client.SubmitFeedback(ctx, *resp.HistoryID, 1)
	var terr *gateway.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusNotFound, terr.Status)
}

func TestClearHistory(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signIn(t, "ada")
	ctx := context.Background()
	for _, term := range []string{"Atom", "Cell"} {
		_, err := env.client.Search(ctx, term, gateway.LevelEasy, "en")
		require.NoError(t, err)
	}

	require.NoError(t, env.client.ClearHistory(ctx))
	items, err := env.client.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "short", summarize("short"))
	exact := strings.Repeat("a", summaryLimit)
	assert.Equal(t, exact, summarize(exact))
	long := strings.Repeat("é", summaryLimit+5)
	assert.Equal(t, strings.Repeat("é", summaryLimit)+"...", summarize(long))
}

func quizQuestions(n int, topic string) map[string]any {
	qs := make([]gateway.Question, n)
	for i := range qs {
		qs[i] = gateway.Question{
			Prompt:      fmt.Sprintf("Question %d about %s?", i+1, topic),
			Options:     []string{"A", "B", "C", "D"},
			Answer:      "A",
			Explanation: "Because A.",
			Topic:       topic,
		}
	}
	return map[string]any{"questions": qs}
}

func TestQuizUsesRecentSearches(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockJSON(map[string]any{
		"easy": "Easy.", "medium": "Medium.", "hard": "Hard.",
		"examples":      []string{"A falling apple"},
		"related_words": []string{"Mass", "Force"},
	}), llm.MockJSON(quizQuestions(7, "Gravity")))
	env := newTestEnv(t, mock)
	env.signIn(t, "ada")
	ctx := context.Background()

	_, err := env.client.Search(ctx, "Gravity", gateway.LevelEasy, "en")
	require.NoError(t, err)

	set, err := env.client.GenerateQuiz(ctx, gateway.LevelEasy, "en", "")
	require.NoError(t, err)
	assert.Len(t, set.Questions, 5)
	assert.Equal(t, []string{"Gravity"}, set.TopicsUsed)
	assert.Contains(t, mock.Calls[1].Messages[0].Content, "Gravity")
}

func TestQuizTopicOverridesHistory(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockJSON(quizQuestions(5, "Atom")))
	env := newTestEnv(t, mock)
	env.signIn(t, "ada")

	set, err := env.client.GenerateQuiz(context.Background(), gateway.LevelEasy, "en", "Atom")
	require.NoError(t, err)
	assert.Equal(t, []string{"Atom"}, set.TopicsUsed)
}

func TestQuizWithoutProviderIsGenerationError(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signIn(t, "ada")

	_, err := env.client.GenerateQuiz(context.Background(), gateway.LevelMedium, "en", "")
	assert.ErrorIs(t, err, gateway.ErrGeneration)
}

func TestQuizProviderFailureIsGenerationError(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}})
	env := newTestEnv(t, mock)
	env.signIn(t, "ada")

	_, err := env.client.GenerateQuiz(context.Background(), gateway.LevelEasy, "en", "")
	var gerr *gateway.GenerationError
	require.ErrorAs(t, err, &gerr)
	assert.Contains(t, gerr.Reason, "Failed to generate quiz")
}

func TestQuizResultsAndLeaderboard(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	submit := func(user string, score, total, taken int) {
		env.signIn(t, user)
		require.NoError(t, env.client.SubmitQuizResult(ctx, gateway.QuizResult{
			Score: score, TotalQuestions: total, Difficulty: gateway.LevelEasy, TimeTaken: taken,
		}))
	}
	submit("ada", 4, 5, 100)
	submit("grace", 5, 5, 200)
	submit("linus", 4, 5, 50)

	board, err := env.client.FetchLeaderboard(ctx, gateway.LevelEasy)
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, "grace", board[0].Username)
	assert.Equal(t, "linus", board[1].Username)
	assert.Equal(t, "ada", board[2].Username)
	for i, e := range board {
		assert.Equal(t, i+1, e.Rank)
	}

	board, err = env.client.FetchLeaderboard(ctx, gateway.LevelHard)
	require.NoError(t, err)
	assert.Empty(t, board)
}

func TestQuizResultValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signIn(t, "ada")
	token, _ := env.tokens.UserToken(context.Background())

	status, _ := env.do(t, http.MethodPost, "/quiz/results", token,
		`{"score":6,"total_questions":5,"difficulty":"easy","topic":null,"time_taken":10}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = env.do(t, http.MethodPost, "/quiz/results", token,
		`{"score":1,"total_questions":5,"difficulty":"extreme","topic":null,"time_taken":10}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestReviews(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signIn(t, "ada")
	ctx := context.Background()

	_, err := env.client.MyReview(ctx)
	var terr *gateway.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusNotFound, terr.Status)

	require.NoError(t, env.client.SubmitReview(ctx, gateway.ReviewForm{Rating: 3, Comment: "ok"}))
	require.NoError(t, env.client.SubmitReview(ctx, gateway.ReviewForm{Rating: 5, Comment: "great"}))

	rv, err := env.client.MyReview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, rv.Rating)
	assert.Equal(t, "great", rv.Comment)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signIn(t, "grace")
	env.signIn(t, "ada")
	ctx := context.Background()

	require.NoError(t, env.client.UpdateProfile(ctx, gateway.ProfileUpdate{FirstName: "Ada", Language: "hi"}))
	token, _ := env.tokens.UserToken(ctx)
	profile, err := env.client.WhoAmI(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "Ada", profile.FirstName)
	assert.Equal(t, "hi", profile.Language)

	err = env.client.UpdateProfile(ctx, gateway.ProfileUpdate{Username: "grace"})
	assert.ErrorIs(t, err, gateway.ErrValidation)
}

func TestAdmin(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	env.signIn(t, "ada")
	for _, term := range []string{"Gravity", "gravity", "Atom"} {
		_, err := env.client.Search(ctx, term, gateway.LevelEasy, "en")
		require.NoError(t, err)
	}
	require.NoError(t, env.client.SubmitReview(ctx, gateway.ReviewForm{Rating: 4}))
	env.signIn(t, "grace")
	require.NoError(t, env.client.SubmitReview(ctx, gateway.ReviewForm{Rating: 5}))

	_, err := env.client.AdminLogin(ctx, gateway.Credentials{Identifier: "grace", Password: testPassword})
	assert.ErrorIs(t, err, gateway.ErrAuth)

	userToken, _ := env.tokens.UserToken(ctx)
	status, _ := env.do(t, http.MethodGet, "/admin/stats", userToken, "")
	assert.Equal(t, http.StatusForbidden, status)

	adminToken, err := env.client.AdminLogin(ctx, gateway.Credentials{Identifier: "root", Password: testPassword})
	require.NoError(t, err)
	require.NoError(t, env.tokens.SetAdminToken(ctx, adminToken))

	stats, err := env.client.AdminStats(ctx, gateway.AdminStatsFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalMembers)
	assert.Equal(t, 2, stats.TotalReviews)
	assert.Equal(t, 4.5, stats.AverageRating)
	require.NotEmpty(t, stats.MostSearchedWords)
	assert.Equal(t, gateway.WordCount{Word: "gravity", Count: 2}, stats.MostSearchedWords[0])

	future, err := env.client.AdminStats(ctx, gateway.AdminStatsFilter{Since: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	assert.Zero(t, future.TotalReviews)
	assert.Empty(t, future.MostSearchedWords)

	users, err := env.client.AdminUsers(ctx)
	require.NoError(t, err)
	byName := map[string]gateway.AdminUser{}
	for _, u := range users {
		byName[u.Username] = u
	}
	require.Contains(t, byName, "ada")
	assert.Len(t, byName["ada"].Reviews, 1)
	assert.Equal(t, 4, byName["ada"].Reviews[0].Rating)
}

func TestAdminStatsRejectsBadRange(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	token, err := env.client.AdminLogin(ctx, gateway.Credentials{Identifier: "root", Password: testPassword})
	require.NoError(t, err)

	status, body := env.do(t, http.MethodGet, "/admin/stats?since=yesterday", token, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["detail"], "since")
}

type fakeMedia struct {
	media *gateway.Media
	err   error
}

func (f fakeMedia) Lookup(context.Context, string) (*gateway.Media, error) {
	return f.media, f.err
}

func TestSearchMedia(t *testing.T) {
	env := newTestEnv(t, nil, WithMedia(fakeMedia{media: &gateway.Media{ImageURL: "https://img/atom.png"}}))
	m, err := env.client.FetchMedia(context.Background(), "Atom")
	require.NoError(t, err)
	assert.Equal(t, "https://img/atom.png", m.ImageURL)

	env = newTestEnv(t, nil, WithMedia(fakeMedia{err: ErrNoMedia}))
	_, err = env.client.FetchMedia(context.Background(), "Atom")
	assert.ErrorIs(t, err, gateway.ErrTransport)
}

func TestWikipediaLookup(t *testing.T) {
	wiki := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/Black_Hole":
			fmt.Fprint(w, `{"thumbnail":{"source":"https://upload/bh.jpg"}}`)
		case "/Nothing":
			fmt.Fprint(w, `{}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer wiki.Close()

	src := &Wikipedia{BaseURL: wiki.URL + "/", Client: wiki.Client()}
	m, err := src.Lookup(context.Background(), "Black Hole")
	require.NoError(t, err)
	assert.Equal(t, "https://upload/bh.jpg", m.ImageURL)

	_, err = src.Lookup(context.Background(), "Nothing")
	assert.ErrorIs(t, err, ErrNoMedia)
	_, err = src.Lookup(context.Background(), "Missing")
	assert.ErrorIs(t, err, ErrNoMedia)
}

func TestMetricsAndHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	_, err := env.client.Search(context.Background(), "Atom", gateway.LevelEasy, "en")
	require.NoError(t, err)

	status, body := env.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	resp, err := http.Get(env.http.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, `clarity_backend_http_requests_total{method="GET",route="/search",status="200"} 1`)
	assert.Contains(t, text, `clarity_backend_searches_total{audience="anonymous",source="fallback"} 1`)
}

func TestBootstrapAdminIsIdempotent(t *testing.T) {
	env := newTestEnv(t, nil)
	require.NoError(t, env.server.BootstrapAdmin(context.Background()))
	users, err := env.store.Users().List(context.Background())
	require.NoError(t, err)
	admins := 0
	for _, u := range users {
		if u.IsAdmin {
			admins++
		}
	}
	assert.Equal(t, 1, admins)
}
