package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createUser(t *testing.T, s *Store, username string) *User {
	t.Helper()
	u := &User{Username: username, PasswordHash: "x", Role: "student", Language: "en"}
	if err := s.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so journal_mode is not checked here.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestWithPragmas(t *testing.T) {
	got := withPragmas("a.db")
	if !strings.HasPrefix(got, "a.db?_pragma=journal_mode(WAL)&") {
		t.Errorf("withPragmas = %q", got)
	}
	got = withPragmas("file:x?mode=memory")
	if !strings.HasPrefix(got, "file:x?mode=memory&_pragma=") {
		t.Errorf("withPragmas = %q", got)
	}
}

func TestKV_SetGetClear(t *testing.T) {
	s := openTestStore(t)
	kv := s.KV()
	ctx := context.Background()

	if _, ok, err := kv.Get(ctx, "token"); err != nil || ok {
		t.Fatalf("Get(empty) = ok %v, err %v", ok, err)
	}

	if err := kv.Set(ctx, "token", "abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := kv.Set(ctx, "token", "def"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	v, ok, err := kv.Get(ctx, "token")
	if err != nil || !ok || v != "def" {
		t.Fatalf("Get = %q, %v, %v; want def", v, ok, err)
	}

	if err := kv.Clear(ctx, "token"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, "token"); ok {
		t.Error("expected key cleared")
	}
	if err := kv.Clear(ctx, "missing"); err != nil {
		t.Errorf("Clear(missing): %v", err)
	}
}

func TestEventRepo_AppendAndQuery(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for i, purpose := range []string{"definition", "quiz"} {
		err := repo.AppendLLMRequest(ctx, LLMRequestEventData{
			Provider:    "mock",
			Model:       "mock",
			Purpose:     purpose,
			InputTokens: 10 * (i + 1),
			Success:     i == 0,
		})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 10})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Purpose != "quiz" {
		t.Errorf("first event purpose = %q, want newest (quiz)", events[0].Purpose)
	}

	e, err := repo.GetLLMEvent(ctx, events[1].ID)
	if err != nil || e == nil {
		t.Fatalf("get: %v, %v", e, err)
	}
	if !e.Success || e.InputTokens != 10 {
		t.Errorf("event = %+v", e)
	}

	missing, err := repo.GetLLMEvent(ctx, 999)
	if err != nil || missing != nil {
		t.Errorf("GetLLMEvent(999) = %v, %v; want nil, nil", missing, err)
	}
}

func TestUsers_CreateConflictAndLookup(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u := &User{Username: "ada", Email: "ada@example.com", PasswordHash: "h", Role: "scientist", Language: "en"}
	if err := s.Users().Create(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == 0 {
		t.Fatal("expected ID to be set")
	}

	dup := &User{Username: "ada", PasswordHash: "h", Role: "student", Language: "en"}
	if err := s.Users().Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate create err = %v, want ErrConflict", err)
	}

	for _, ident := range []string{"ada", "ada@example.com"} {
		got, err := s.Users().ByIdentifier(ctx, ident)
		if err != nil {
			t.Fatalf("ByIdentifier(%q): %v", ident, err)
		}
		if got.ID != u.ID {
			t.Errorf("ByIdentifier(%q).ID = %d, want %d", ident, got.ID, u.ID)
		}
	}

	if _, err := s.Users().ByIdentifier(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ByIdentifier(nobody) err = %v, want ErrNotFound", err)
	}

	u.Language = "te"
	u.FirstName = "Ada"
	if err := s.Users().UpdateProfile(ctx, u); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := s.Users().ByID(ctx, u.ID)
	if got.Language != "te" || got.FirstName != "Ada" {
		t.Errorf("after update = %+v", got)
	}

	n, err := s.Users().Count(ctx, StatsFilter{})
	if err != nil || n != 1 {
		t.Errorf("Count = %d, %v; want 1", n, err)
	}
}

func TestTokens_IssueLookupExpire(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "grace")
	now := time.Now()

	if err := s.Tokens().Issue(ctx, "live", u.ID, false, now.Add(time.Hour)); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := s.Tokens().Issue(ctx, "stale", u.ID, true, now.Add(-time.Minute)); err != nil {
		t.Fatalf("issue: %v", err)
	}

	id, admin, err := s.Tokens().Lookup(ctx, "live", now)
	if err != nil || id != u.ID || admin {
		t.Errorf("Lookup(live) = %d, %v, %v", id, admin, err)
	}
	if _, _, err := s.Tokens().Lookup(ctx, "stale", now); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup(stale) err = %v, want ErrNotFound", err)
	}

	if err := s.Tokens().Revoke(ctx, "live"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, _, err := s.Tokens().Lookup(ctx, "live", now); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup after revoke err = %v, want ErrNotFound", err)
	}
}

func TestHistory_CRUDAndTopWords(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "marie")
	other := createUser(t, s, "pierre")
	h := s.History()

	for _, q := range []string{"Photosynthesis", "entropy", "photosynthesis ", "Osmosis"} {
		if err := h.Add(ctx, &HistoryEntry{UserID: u.ID, Query: q, Level: "easy", Language: "en", Summary: "s"}); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	otherEntry := &HistoryEntry{UserID: other.ID, Query: "entropy", Level: "hard", Language: "en", Summary: "s"}
	if err := h.Add(ctx, otherEntry); err != nil {
		t.Fatalf("add: %v", err)
	}

	list, err := h.List(ctx, u.ID, 0)
	if err != nil || len(list) != 4 {
		t.Fatalf("List = %d, %v; want 4", len(list), err)
	}
	if list[0].Query != "Osmosis" {
		t.Errorf("newest = %q, want Osmosis", list[0].Query)
	}

	terms, _ := h.RecentTerms(ctx, u.ID, 10)
	if len(terms) != 3 {
		t.Errorf("RecentTerms = %v, want 3 distinct", terms)
	}

	words, err := h.TopWords(ctx, StatsFilter{}, 2)
	if err != nil {
		t.Fatalf("TopWords: %v", err)
	}
	if len(words) != 2 || words[0].Count != 2 {
		t.Errorf("TopWords = %+v", words)
	}

	if err := h.SetFeedback(ctx, u.ID, list[0].ID, 1); err != nil {
		t.Fatalf("feedback: %v", err)
	}
	if err := h.SetFeedback(ctx, u.ID, otherEntry.ID, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("feedback on other user's entry err = %v, want ErrNotFound", err)
	}
	if err := h.Delete(ctx, u.ID, list[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	n, err := h.Clear(ctx, u.ID)
	if err != nil || n != 3 {
		t.Errorf("Clear = %d, %v; want 3", n, err)
	}
}

func TestQuizResults_LeaderboardBestPerUser(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	a := createUser(t, s, "alice")
	b := createUser(t, s, "bob")
	c := createUser(t, s, "carol")
	repo := s.QuizResults()

	results := []QuizResult{
		{UserID: a.ID, Score: 3, TotalQuestions: 5, Difficulty: "easy", TimeTaken: 100},
		{UserID: a.ID, Score: 5, TotalQuestions: 5, Difficulty: "easy", TimeTaken: 200},
		{UserID: b.ID, Score: 5, TotalQuestions: 5, Difficulty: "easy", TimeTaken: 150},
		{UserID: c.ID, Score: 4, TotalQuestions: 5, Difficulty: "easy", TimeTaken: 50},
		{UserID: c.ID, Score: 10, TotalQuestions: 10, Difficulty: "medium", TimeTaken: 50},
	}
	for i := range results {
		if err := repo.Add(ctx, &results[i]); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	rows, err := repo.Leaderboard(ctx, "easy", 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	want := []string{"bob", "alice", "carol"}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for i, name := range want {
		if rows[i].Username != name {
			t.Errorf("rank %d = %s, want %s", i+1, rows[i].Username, name)
		}
	}

	top, _ := repo.Leaderboard(ctx, "easy", 1)
	if len(top) != 1 {
		t.Errorf("limit 1 returned %d rows", len(top))
	}
}

func TestReviews_ListAndSummary(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "rosalind")

	count, avg, err := s.Reviews().Summary(ctx, StatsFilter{})
	if err != nil || count != 0 || avg != 0 {
		t.Fatalf("empty summary = %d, %v, %v", count, avg, err)
	}

	other := createUser(t, s, "lise")
	if err := s.Reviews().Upsert(ctx, &Review{UserID: u.ID, Rating: 2}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	rv := &Review{UserID: u.ID, Rating: 4, Comment: "better now"}
	if err := s.Reviews().Upsert(ctx, rv); err != nil {
		t.Fatalf("upsert replace: %v", err)
	}
	if err := s.Reviews().Upsert(ctx, &Review{UserID: other.ID, Rating: 5}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	count, avg, err = s.Reviews().Summary(ctx, StatsFilter{})
	if err != nil || count != 2 || avg != 4.5 {
		t.Errorf("summary = %d, %v, %v; want 2, 4.5", count, avg, err)
	}

	mine, err := s.Reviews().ByUser(ctx, u.ID)
	if err != nil || mine.Rating != 4 || mine.Comment != "better now" || mine.ID != rv.ID {
		t.Errorf("ByUser = %+v, %v", mine, err)
	}

	list, err := s.Reviews().List(ctx, 10)
	if err != nil || len(list) != 2 || list[0].Username != "lise" {
		t.Errorf("List = %+v, %v", list, err)
	}

	if _, err := s.Reviews().ByUser(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("ByUser(999) err = %v, want ErrNotFound", err)
	}
}
