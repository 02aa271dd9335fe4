package kvstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/mystik-app/backend/pkg/apperr"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv_store (
	bucket     TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (bucket, key)
);`

const (
	sqliteGet    = `SELECT value FROM kv_store WHERE bucket = ? AND key = ?`
	sqliteScan   = `SELECT key, value FROM kv_store WHERE bucket = ? AND substr(key, 1, length(?)) = ?`
	sqliteDelete = `DELETE FROM kv_store WHERE bucket = ? AND key = ?`
	sqliteUpsert = `INSERT INTO kv_store (bucket, key, value) VALUES (?, ?, ?)
		ON CONFLICT (bucket, key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`
)

// SQLite stores entries in a local database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the schema.
// Use ":memory:" for a throwaway store.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(ctx context.Context, b Bucket, key string) (json.RawMessage, error) {
	var v string
	err := s.db.QueryRowContext(ctx, sqliteGet, string(b), key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, apperr.Store("get", err)
	}
	return json.RawMessage(v), nil
}

func (s *SQLite) Set(ctx context.Context, b Bucket, key string, value json.RawMessage) error {
	_, err := s.db.ExecContext(ctx, sqliteUpsert, string(b), key, string(value))
	return apperr.Store("set", err)
}

func (s *SQLite) Delete(ctx context.Context, b Bucket, key string) error {
	_, err := s.db.ExecContext(ctx, sqliteDelete, string(b), key)
	return apperr.Store("delete", err)
}

func (s *SQLite) Scan(ctx context.Context, b Bucket, prefix string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, sqliteScan, string(b), prefix, prefix)
	if err != nil {
		return nil, apperr.Store("scan", err)
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var key, v string
		if err := rows.Scan(&key, &v); err != nil {
			return nil, apperr.Store("scan", err)
		}
		out = append(out, Entry{Key: key, Value: json.RawMessage(v)})
	}
	return out, apperr.Store("scan", rows.Err())
}

func (s *SQLite) Apply(ctx context.Context, ops ...Op) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Store("apply", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, op := range ops {
		if op.Delete {
			_, err = tx.ExecContext(ctx, sqliteDelete, string(op.Bucket), op.Key)
		} else {
			_, err = tx.ExecContext(ctx, sqliteUpsert, string(op.Bucket), op.Key, string(op.Value))
		}
		if err != nil {
			return apperr.Store("apply", fmt.Errorf("%s/%s: %w", op.Bucket, op.Key, err))
		}
	}
	return apperr.Store("apply", tx.Commit())
}

func (s *SQLite) Ping(ctx context.Context) error {
	return apperr.Store("ping", s.db.PingContext(ctx))
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
