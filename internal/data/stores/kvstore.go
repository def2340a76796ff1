package stores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hay-kot/countdown/internal/core/kv"
	"github.com/hay-kot/countdown/internal/data/db"
)

// KVStore implements kv.KV using SQLite. Each Set is a single upsert, so a
// value is either fully replaced or left untouched.
type KVStore struct {
	db  *db.DB
	now func() time.Time
}

var (
	_ kv.KV     = (*KVStore)(nil)
	_ kv.Lister = (*KVStore)(nil)
)

// NewKVStore creates a new SQLite-backed KV store.
func NewKVStore(db *db.DB) *KVStore {
	return &KVStore{db: db, now: time.Now}
}

// Get returns the stored value. Missing keys return kv.ErrNotFound.
func (s *KVStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.Conn().QueryRowContext(ctx, "SELECT value FROM kv_store WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("kv get %q: %w", key, kv.ErrNotFound)
	}
	if err != nil {
		return "", wrapQueryErr("kv get", key, err)
	}
	return value, nil
}

// Set replaces the value stored under key.
func (s *KVStore) Set(ctx context.Context, key, value string) error {
	now := s.now().UnixNano()
	_, err := s.db.Conn().ExecContext(ctx, `
		INSERT INTO kv_store (key, value, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, now, now)
	if err != nil {
		return wrapQueryErr("kv set", key, err)
	}
	return nil
}

// Keys returns all keys in sorted order.
func (s *KVStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.Conn().QueryContext(ctx, "SELECT key FROM kv_store ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("kv list keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("kv list keys: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// wrapQueryErr marks SQLITE_BUSY failures as transient so the message tells
// the user another countdown process holds the database.
func wrapQueryErr(op, key string, err error) error {
	if IsBusyError(err) {
		return fmt.Errorf("%s %q: database is busy (another countdown running?), try again: %w", op, key, err)
	}
	return fmt.Errorf("%s %q: %w", op, key, err)
}
