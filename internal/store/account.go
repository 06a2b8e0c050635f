package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var userSelect = []string{
	"id", "username", "email", "password_hash", "role", "language",
	"first_name", "last_name", "is_admin", "created_at",
}

// UserRepo manages accounts.
type UserRepo struct {
	db *sql.DB
}

// Create inserts u and sets its ID. It returns ErrConflict when the
// username or email is taken.
func (r *UserRepo) Create(ctx context.Context, u *User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	q := sqlite().Insert(UserTable.Name).
		Columns(userSelect[1:]...).
		Values(
			u.Username, nullString(u.Email), u.PasswordHash, u.Role, u.Language,
			nullString(u.FirstName), nullString(u.LastName), u.IsAdmin, u.CreatedAt,
		)
	res, err := execQuery(ctx, r.db, q)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	u.ID = int(id)
	return nil
}

// ByID returns the user with id.
func (r *UserRepo) ByID(ctx context.Context, id int) (*User, error) {
	b := sqlite()
	return r.one(ctx, b.Select(userSelect...).From(b.Table(UserTable.Name)).Where(entsql.EQ("id", id)))
}

// ByIdentifier returns the user whose username or email equals ident.
func (r *UserRepo) ByIdentifier(ctx context.Context, ident string) (*User, error) {
	b := sqlite()
	q := b.Select(userSelect...).From(b.Table(UserTable.Name)).
		Where(entsql.Or(entsql.EQ("username", ident), entsql.EQ("email", ident)))
	return r.one(ctx, q)
}

// UpdateProfile overwrites the editable profile fields of u.
func (r *UserRepo) UpdateProfile(ctx context.Context, u *User) error {
	q := sqlite().Update(UserTable.Name).
		Set("username", u.Username).
		Set("language", u.Language).
		Set("first_name", nullString(u.FirstName)).
		Set("last_name", nullString(u.LastName)).
		Where(entsql.EQ("id", u.ID))
	res, err := execQuery(ctx, r.db, q)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all users ordered by creation.
func (r *UserRepo) List(ctx context.Context) ([]User, error) {
	b := sqlite()
	q := b.Select(userSelect...).From(b.Table(UserTable.Name)).OrderBy("id")
	rows, err := rowsQuery(ctx, r.db, q)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// Count returns the number of non-admin members.
func (r *UserRepo) Count(ctx context.Context, f StatsFilter) (int, error) {
	b := sqlite()
	q := b.Select(entsql.Count("*")).From(b.Table(UserTable.Name)).Where(entsql.EQ("is_admin", false))
	applyRange(q, f)
	var n int
	if err := rowQuery(ctx, r.db, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *UserRepo) one(ctx context.Context, q *entsql.Selector) (*User, error) {
	u, err := scanUser(rowQuery(ctx, r.db, q))
	if err != nil {
		return nil, err
	}
	return u, nil
}

func scanUser(s scanner) (*User, error) {
	var (
		u                  User
		email, first, last sql.NullString
	)
	err := s.Scan(
		&u.ID, &u.Username, &email, &u.PasswordHash, &u.Role, &u.Language,
		&first, &last, &u.IsAdmin, &u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.Email = email.String
	u.FirstName = first.String
	u.LastName = last.String
	return &u, nil
}

// TokenRepo manages opaque bearer tokens.
type TokenRepo struct {
	db *sql.DB
}

// Issue stores token for userID until expiresAt.
func (r *TokenRepo) Issue(ctx context.Context, token string, userID int, admin bool, expiresAt time.Time) error {
	q := sqlite().Insert(TokenTable.Name).
		Columns("token", "user_id", "admin", "expires_at").
		Values(token, userID, admin, expiresAt.UTC())
	if _, err := execQuery(ctx, r.db, q); err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	return nil
}

// Lookup resolves token. Expired tokens are deleted and reported as
// ErrNotFound.
func (r *TokenRepo) Lookup(ctx context.Context, token string, now time.Time) (userID int, admin bool, err error) {
	b := sqlite()
	q := b.Select("user_id", "admin", "expires_at").From(b.Table(TokenTable.Name)).Where(entsql.EQ("token", token))

	var expires time.Time
	err = rowQuery(ctx, r.db, q).Scan(&userID, &admin, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, ErrNotFound
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup token: %w", err)
	}
	if !now.Before(expires) {
		_ = r.Revoke(ctx, token)
		return 0, false, ErrNotFound
	}
	return userID, admin, nil
}

// Revoke deletes token.
func (r *TokenRepo) Revoke(ctx context.Context, token string) error {
	q := sqlite().Delete(TokenTable.Name).Where(entsql.EQ("token", token))
	if _, err := execQuery(ctx, r.db, q); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func applyRange(q *entsql.Selector, f StatsFilter) {
	if !f.Since.IsZero() {
		q.Where(entsql.GTE("created_at", f.Since.UTC()))
	}
	if !f.Until.IsZero() {
		q.Where(entsql.LTE("created_at", f.Until.UTC()))
	}
}
