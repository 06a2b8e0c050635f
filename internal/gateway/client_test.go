package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	user, admin string
}

func (s staticTokens) UserToken(context.Context) (string, error)  { return s.user, nil }
func (s staticTokens) AdminToken(context.Context) (string, error) { return s.admin, nil }

func newTestClient(t *testing.T, h http.HandlerFunc, tokens TokenSource, opts ...Option) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewHTTPClient(srv.URL, tokens, opts...)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewHTTPClientRejectsRelativeURL(t *testing.T) {
	_, err := NewHTTPClient("localhost", nil)
	assert.Error(t, err)
}

func TestAuthenticateSendsEmailOrUsername(t *testing.T) {
	cases := []struct {
		identifier string
		field      string
	}{
		{"ada@example.com", "email"},
		{"ada_l", "username"},
	}

	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			var body map[string]string
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/login", r.URL.Path)
				assert.Empty(t, r.Header.Get("Authorization"))
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				writeJSON(w, http.StatusOK, map[string]string{"access_token": "tok-1", "token_type": "bearer"})
			}, staticTokens{})

			token, err := c.Authenticate(context.Background(), Credentials{Identifier: tc.identifier, Password: "pw"})
			require.NoError(t, err)
			assert.Equal(t, "tok-1", token)
			assert.Equal(t, tc.identifier, body[tc.field])
			assert.Equal(t, "pw", body["password"])
		})
	}
}

func TestAuthenticateValidatesBeforeCalling(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true }, staticTokens{})

	_, err := c.Authenticate(context.Background(), Credentials{Identifier: "", Password: "pw"})
	require.ErrorIs(t, err, ErrValidation)
	assert.False(t, called)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "is required", verr.Fields["identifier"])
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"detail":"Could not validate credentials"}`, ErrAuth},
		{"forbidden", http.StatusForbidden, `{"detail":"Not authenticated"}`, ErrAuth},
		{"bad request", http.StatusBadRequest, `{"detail":"Username already taken"}`, ErrValidation},
		{"unprocessable", http.StatusUnprocessableEntity, `{"detail":[{"msg":"field required"}]}`, ErrValidation},
		{"not found", http.StatusNotFound, `{"detail":"Not Found"}`, ErrTransport},
		{"server error", http.StatusInternalServerError, `oops`, ErrTransport},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}, staticTokens{user: "tok"})

			_, err := c.History(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestValidationDetailIsParsed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]string{{"msg": "too short"}, {"msg": "missing digit"}},
		})
	}, staticTokens{user: "tok"})

	err := c.SubmitReview(context.Background(), ReviewForm{Rating: 4})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "too short; missing digit", verr.Message("detail"))
}

func TestMissingTokenFailsWithoutNetwork(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true }, staticTokens{})

	_, err := c.GenerateQuiz(context.Background(), LevelEasy, "en", "")
	assert.ErrorIs(t, err, ErrAuth)

	_, err = c.AdminStats(context.Background(), AdminStatsFilter{})
	assert.ErrorIs(t, err, ErrAuth)
	assert.False(t, called)
}

func TestBearerTokenAttached(t *testing.T) {
	var userAuth, adminAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/history":
			userAuth = r.Header.Get("Authorization")
			writeJSON(w, http.StatusOK, []HistoryItem{})
		case "/admin/users":
			adminAuth = r.Header.Get("Authorization")
			writeJSON(w, http.StatusOK, []AdminUser{})
		}
	}, staticTokens{user: "u-tok", admin: "a-tok"})

	_, err := c.History(context.Background())
	require.NoError(t, err)
	_, err = c.AdminUsers(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer u-tok", userAuth)
	assert.Equal(t, "Bearer a-tok", adminAuth)
}

func TestSearchOptionalAuthAndQuery(t *testing.T) {
	var got *http.Request
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		id := int64(7)
		writeJSON(w, http.StatusOK, SearchResponse{
			Term: "osmosis", Definition: "water moves", Examples: []string{"plant roots"},
			RelatedWords: []string{"diffusion"}, HistoryID: &id,
		})
	}, staticTokens{})

	res, err := c.Search(context.Background(), "osmosis", LevelEasy, "en")
	require.NoError(t, err)
	assert.Equal(t, "osmosis", res.Term)
	require.NotNil(t, res.HistoryID)
	assert.Equal(t, int64(7), *res.HistoryID)

	assert.Empty(t, got.Header.Get("Authorization"))
	assert.Equal(t, "osmosis", got.URL.Query().Get("q"))
	assert.Equal(t, "easy", got.URL.Query().Get("level"))
	assert.Equal(t, "en", got.URL.Query().Get("language"))
}

func TestSearchErrorSourceIsTransport(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"source": "error", "error": "model unavailable"})
	}, staticTokens{})

	_, err := c.Search(context.Background(), "atom", LevelHard, "en")
	assert.ErrorIs(t, err, ErrTransport)
	assert.Contains(t, err.Error(), "model unavailable")
}

func TestFetchMediaError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"error": "no media"})
	}, staticTokens{})

	_, err := c.FetchMedia(context.Background(), "atom")
	assert.ErrorIs(t, err, ErrTransport)
}

func TestGenerateQuiz(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "medium", r.URL.Query().Get("level"))
			assert.Equal(t, "Cells", r.URL.Query().Get("topic"))
			writeJSON(w, http.StatusOK, map[string]any{
				"status": "success",
				"quiz": []Question{{
					Prompt: "What is a cell?", Options: []string{"a", "b", "c", "d"},
					Answer: "a", Explanation: "because", Topic: "Cells",
				}},
				"terms_used": []string{"Cells"},
			})
		}, staticTokens{user: "tok"})

		set, err := c.GenerateQuiz(context.Background(), LevelMedium, "en", "Cells")
		require.NoError(t, err)
		require.Len(t, set.Questions, 1)
		assert.Equal(t, "What is a cell?", set.Questions[0].Prompt)
		assert.Equal(t, []string{"Cells"}, set.TopicsUsed)
	})

	t.Run("empty is generation error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.False(t, r.URL.Query().Has("topic"))
			writeJSON(w, http.StatusOK, map[string]any{"status": "success", "quiz": []Question{}})
		}, staticTokens{user: "tok"})

		_, err := c.GenerateQuiz(context.Background(), LevelEasy, "en", "")
		assert.ErrorIs(t, err, ErrGeneration)
	})

	t.Run("error status", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"status": "error", "message": "no terms"})
		}, staticTokens{user: "tok"})

		_, err := c.GenerateQuiz(context.Background(), LevelEasy, "en", "")
		var gerr *GenerationError
		require.True(t, errors.As(err, &gerr))
		assert.Equal(t, "no terms", gerr.Reason)
	})
}

func TestSubmitQuizResultTopicNull(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	}, staticTokens{user: "tok"})

	err := c.SubmitQuizResult(context.Background(), QuizResult{
		Score: 3, TotalQuestions: 5, Difficulty: LevelEasy, TimeTaken: 42,
	})
	require.NoError(t, err)
	assert.Contains(t, body, "topic")
	assert.Nil(t, body["topic"])
	assert.EqualValues(t, 42, body["time_taken"])
}

func TestFetchLeaderboardAssignsRanks(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "hard", r.URL.Query().Get("difficulty"))
		writeJSON(w, http.StatusOK, []LeaderboardEntry{
			{ID: 1, Username: "ada", Score: 20, TotalQuestions: 20},
			{ID: 2, Username: "bob", Score: 18, TotalQuestions: 20},
		})
	}, staticTokens{})

	rows, err := c.FetchLeaderboard(context.Background(), LevelHard)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, 2, rows[1].Rank)
}

func TestSubmitFeedbackRange(t *testing.T) {
	var path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	}, staticTokens{user: "tok"})

	assert.ErrorIs(t, c.SubmitFeedback(context.Background(), 3, 2), ErrValidation)
	require.NoError(t, c.SubmitFeedback(context.Background(), 3, -1))
	assert.Equal(t, "/history/3/feedback", path)
}

func TestAdminStatsFilters(t *testing.T) {
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2026-01-01T00:00:00Z", r.URL.Query().Get("since"))
		assert.False(t, r.URL.Query().Has("until"))
		writeJSON(w, http.StatusOK, AdminStats{TotalMembers: 4, AverageRating: 4.5})
	}, staticTokens{admin: "a"})

	stats, err := c.AdminStats(context.Background(), AdminStatsFilter{Since: since})
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalMembers)
	assert.InDelta(t, 4.5, stats.AverageRating, 0.001)
}

func TestTransportErrorOnNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewHTTPClient(url, staticTokens{})
	require.NoError(t, err)

	_, err = c.FetchLeaderboard(context.Background(), LevelEasy)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestWhoAmIUsesGivenToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, Profile{Username: "ada", Language: "hi"})
	}, staticTokens{})

	p, err := c.WhoAmI(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "ada", p.Username)
	assert.Equal(t, "hi", p.Language)

	_, err = c.WhoAmI(context.Background(), "")
	assert.ErrorIs(t, err, ErrAuth)
}

func TestMetricsRecorded(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/history" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, []LeaderboardEntry{})
	}, staticTokens{user: "tok"}, WithMetrics(m))

	_, _ = c.FetchLeaderboard(context.Background(), LevelEasy)
	_, _ = c.History(context.Background())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("fetch_leaderboard", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("history", "auth")))
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "auth", Outcome(&AuthError{}))
	assert.Equal(t, "quota", Outcome(&QuotaExceeded{Limit: 2}))
	assert.Equal(t, "generation", Outcome(&GenerationError{}))
	assert.Equal(t, "validation", Outcome(NewValidationError("f", "bad")))
	assert.Equal(t, "transport", Outcome(errors.New("boom")))
}
