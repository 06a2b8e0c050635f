package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var historySelect = []string{
	"id", "user_id", "query", "level", "language", "summary", "feedback", "created_at",
}

// HistoryRepo manages per-user search history.
type HistoryRepo struct {
	db *sql.DB
}

// Add stores e and sets its ID.
func (r *HistoryRepo) Add(ctx context.Context, e *HistoryEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	q := sqlite().Insert(HistoryTable.Name).
		Columns("user_id", "query", "term", "level", "language", "summary", "feedback", "created_at").
		Values(e.UserID, e.Query, normalizeTerm(e.Query), e.Level, e.Language, e.Summary, e.Feedback, e.CreatedAt)
	res, err := execQuery(ctx, r.db, q)
	if err != nil {
		return fmt.Errorf("add history: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("add history: %w", err)
	}
	e.ID = int(id)
	return nil
}

// List returns the newest entries of userID first. A limit of 0 means all.
func (r *HistoryRepo) List(ctx context.Context, userID, limit int) ([]HistoryEntry, error) {
	b := sqlite()
	q := b.Select(historySelect...).From(b.Table(HistoryTable.Name)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("id"))
	if limit > 0 {
		q.Limit(limit)
	}
	rows, err := rowsQuery(ctx, r.db, q)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Query, &e.Level, &e.Language, &e.Summary, &e.Feedback, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// RecentTerms returns up to n distinct terms searched by userID, newest first.
func (r *HistoryRepo) RecentTerms(ctx context.Context, userID, n int) ([]string, error) {
	entries, err := r.List(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, e := range entries {
		t := normalizeTerm(e.Query)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, strings.TrimSpace(e.Query))
		if len(out) == n {
			break
		}
	}
	return out, nil
}

// Delete removes one entry owned by userID.
func (r *HistoryRepo) Delete(ctx context.Context, userID, id int) error {
	q := sqlite().Delete(HistoryTable.Name).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("user_id", userID)))
	return expectOne(execQuery(ctx, r.db, q))
}

// Clear removes every entry owned by userID and returns the count.
func (r *HistoryRepo) Clear(ctx context.Context, userID int) (int, error) {
	q := sqlite().Delete(HistoryTable.Name).Where(entsql.EQ("user_id", userID))
	res, err := execQuery(ctx, r.db, q)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// SetFeedback records -1, 0 or 1 on one entry owned by userID.
func (r *HistoryRepo) SetFeedback(ctx context.Context, userID, id, value int) error {
	q := sqlite().Update(HistoryTable.Name).
		Set("feedback", value).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("user_id", userID)))
	return expectOne(execQuery(ctx, r.db, q))
}

// TopWords returns the n most searched terms across all users.
func (r *HistoryRepo) TopWords(ctx context.Context, f StatsFilter, n int) ([]WordCount, error) {
	b := sqlite()
	q := b.Select("term", entsql.As(entsql.Count("*"), "hits")).
		From(b.Table(HistoryTable.Name)).
		GroupBy("term").
		OrderBy(entsql.Desc("hits"), "term").
		Limit(n)
	applyRange(q, f)

	rows, err := rowsQuery(ctx, r.db, q)
	if err != nil {
		return nil, fmt.Errorf("top words: %w", err)
	}
	defer rows.Close()

	out := []WordCount{}
	for rows.Next() {
		var w WordCount
		if err := rows.Scan(&w.Word, &w.Count); err != nil {
			return nil, fmt.Errorf("scan word: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// QuizResultRepo manages submitted quiz attempts.
type QuizResultRepo struct {
	db *sql.DB
}

// Add stores res and sets its ID.
func (r *QuizResultRepo) Add(ctx context.Context, res *QuizResult) error {
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now().UTC()
	}
	q := sqlite().Insert(QuizResultTable.Name).
		Columns("user_id", "score", "total_questions", "difficulty", "topic", "time_taken", "created_at").
		Values(res.UserID, res.Score, res.TotalQuestions, res.Difficulty, nullString(res.Topic), res.TimeTaken, res.CreatedAt)
	out, err := execQuery(ctx, r.db, q)
	if err != nil {
		return fmt.Errorf("add quiz result: %w", err)
	}
	id, err := out.LastInsertId()
	if err != nil {
		return fmt.Errorf("add quiz result: %w", err)
	}
	res.ID = int(id)
	return nil
}

// Leaderboard returns each user's best attempt, ranked by score
// percentage, then raw score, then time taken. An empty difficulty
// ranks across all difficulties.
func (r *QuizResultRepo) Leaderboard(ctx context.Context, difficulty string, limit int) ([]LeaderboardRow, error) {
	b := sqlite()
	results := b.Table(QuizResultTable.Name)
	users := b.Table(UserTable.Name)
	q := b.Select(
		results.C("user_id"), users.C("username"), results.C("score"),
		results.C("total_questions"), results.C("time_taken"),
	).From(results).Join(users).On(results.C("user_id"), users.C("id"))
	if difficulty != "" {
		q.Where(entsql.EQ(results.C("difficulty"), difficulty))
	}

	rows, err := rowsQuery(ctx, r.db, q)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	var all []LeaderboardRow
	for rows.Next() {
		var row LeaderboardRow
		if err := rows.Scan(&row.UserID, &row.Username, &row.Score, &row.TotalQuestions, &row.TimeTaken); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		all = append(all, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(all, func(i, j int) bool { return ranksBefore(all[i], all[j]) })

	seen := make(map[int]bool)
	out := []LeaderboardRow{}
	for _, row := range all {
		if seen[row.UserID] {
			continue
		}
		seen[row.UserID] = true
		out = append(out, row)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func ranksBefore(a, b LeaderboardRow) bool {
	// Compare score ratios without floats: a.Score/a.Total vs b.Score/b.Total.
	l, r := a.Score*max(b.TotalQuestions, 1), b.Score*max(a.TotalQuestions, 1)
	if l != r {
		return l > r
	}
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.TimeTaken < b.TimeTaken
}

// ReviewRepo manages reviews.
type ReviewRepo struct {
	db *sql.DB
}

// Upsert stores rv as the review of rv.UserID, replacing any earlier one,
// and sets its ID.
func (r *ReviewRepo) Upsert(ctx context.Context, rv *Review) error {
	if rv.CreatedAt.IsZero() {
		rv.CreatedAt = time.Now().UTC()
	}
	q := sqlite().Insert(ReviewTable.Name).
		Columns("user_id", "rating", "comment", "created_at").
		Values(rv.UserID, rv.Rating, nullString(rv.Comment), rv.CreatedAt).
		OnConflict(entsql.ConflictColumns("user_id"), entsql.ResolveWithNewValues())
	if _, err := execQuery(ctx, r.db, q); err != nil {
		return fmt.Errorf("save review: %w", err)
	}
	stored, err := r.ByUser(ctx, rv.UserID)
	if err != nil {
		return err
	}
	rv.ID = stored.ID
	return nil
}

// ByUser returns the review written by userID.
func (r *ReviewRepo) ByUser(ctx context.Context, userID int) (*Review, error) {
	b := sqlite()
	q := b.Select("id", "user_id", "rating", "comment", "created_at").
		From(b.Table(ReviewTable.Name)).
		Where(entsql.EQ("user_id", userID))

	var (
		rv      Review
		comment sql.NullString
	)
	err := rowQuery(ctx, r.db, q).Scan(&rv.ID, &rv.UserID, &rv.Rating, &comment, &rv.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	rv.Comment = comment.String
	return &rv, nil
}

// List returns the newest reviews first with the reviewer's username.
func (r *ReviewRepo) List(ctx context.Context, limit int) ([]Review, error) {
	b := sqlite()
	reviews := b.Table(ReviewTable.Name)
	users := b.Table(UserTable.Name)
	q := b.Select(
		reviews.C("id"), reviews.C("user_id"), users.C("username"),
		reviews.C("rating"), reviews.C("comment"), reviews.C("created_at"),
	).From(reviews).Join(users).On(reviews.C("user_id"), users.C("id")).
		OrderBy(entsql.Desc(reviews.C("id")))
	if limit > 0 {
		q.Limit(limit)
	}

	rows, err := rowsQuery(ctx, r.db, q)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var out []Review
	for rows.Next() {
		var (
			rv      Review
			comment sql.NullString
		)
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.Username, &rv.Rating, &comment, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		rv.Comment = comment.String
		out = append(out, rv)
	}
	return out, rows.Err()
}

// Summary returns the review count and average rating in f's range.
func (r *ReviewRepo) Summary(ctx context.Context, f StatsFilter) (count int, avg float64, err error) {
	b := sqlite()
	q := b.Select(entsql.Count("*"), entsql.Avg("rating")).From(b.Table(ReviewTable.Name))
	applyRange(q, f)

	var a sql.NullFloat64
	if err := rowQuery(ctx, r.db, q).Scan(&count, &a); err != nil {
		return 0, 0, fmt.Errorf("review summary: %w", err)
	}
	return count, a.Float64, nil
}

func normalizeTerm(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

func expectOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
