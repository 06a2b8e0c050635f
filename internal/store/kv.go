package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// KVRepo is a durable string key-value table. It satisfies the
// tokenstore.KV port.
type KVRepo struct {
	db *sql.DB
}

// Get returns the value for key and whether it was present.
func (r *KVRepo) Get(ctx context.Context, key string) (string, bool, error) {
	b := sqlite()
	q := b.Select("value").From(b.Table(KVTable.Name)).Where(entsql.EQ("key", key))

	var v string
	err := rowQuery(ctx, r.db, q).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return v, true, nil
}

// Set upserts key.
func (r *KVRepo) Set(ctx context.Context, key, value string) error {
	q := sqlite().Insert(KVTable.Name).
		Columns("key", "value", "updated_at").
		Values(key, value, time.Now().UTC()).
		OnConflict(entsql.ConflictColumns("key"), entsql.ResolveWithNewValues())
	if _, err := execQuery(ctx, r.db, q); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Clear removes key. Clearing a missing key is not an error.
func (r *KVRepo) Clear(ctx context.Context, key string) error {
	q := sqlite().Delete(KVTable.Name).Where(entsql.EQ("key", key))
	if _, err := execQuery(ctx, r.db, q); err != nil {
		return fmt.Errorf("clear %q: %w", key, err)
	}
	return nil
}
