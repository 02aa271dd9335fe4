package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mystik-app/backend/pkg/apperr"
)

// Postgres stores entries in the kv_store table (see pkg/database/migrations).
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Store over an existing pool. The pool is closed by Close.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const (
	pgGet    = `SELECT value FROM kv_store WHERE bucket = $1 AND key = $2`
	pgScan   = `SELECT key, value FROM kv_store WHERE bucket = $1 AND key LIKE $2 ESCAPE '\'`
	pgDelete = `DELETE FROM kv_store WHERE bucket = $1 AND key = $2`
	pgUpsert = `INSERT INTO kv_store (bucket, key, value)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (bucket, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
)

func (p *Postgres) Get(ctx context.Context, b Bucket, key string) (json.RawMessage, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx, pgGet, string(b), key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, apperr.Store("get", err)
	}
	return json.RawMessage(raw), nil
}

func (p *Postgres) Set(ctx context.Context, b Bucket, key string, value json.RawMessage) error {
	if _, err := p.pool.Exec(ctx, pgUpsert, string(b), key, string(value)); err != nil {
		return apperr.Store("set", err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, b Bucket, key string) error {
	if _, err := p.pool.Exec(ctx, pgDelete, string(b), key); err != nil {
		return apperr.Store("delete", err)
	}
	return nil
}

func (p *Postgres) Scan(ctx context.Context, b Bucket, prefix string) ([]Entry, error) {
	rows, err := p.pool.Query(ctx, pgScan, string(b), escapeLike(prefix))
	if err != nil {
		return nil, apperr.Store("scan", err)
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		var raw []byte
		if err := rows.Scan(&e.Key, &raw); err != nil {
			return nil, apperr.Store("scan", err)
		}
		e.Value = json.RawMessage(raw)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("scan", err)
	}
	return out, nil
}

// Apply runs all ops in one transaction.
func (p *Postgres) Apply(ctx context.Context, ops ...Op) error {
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		for _, op := range ops {
			var err error
			if op.Delete {
				_, err = tx.Exec(ctx, pgDelete, string(op.Bucket), op.Key)
			} else {
				_, err = tx.Exec(ctx, pgUpsert, string(op.Bucket), op.Key, string(op.Value))
			}
			if err != nil {
				return fmt.Errorf("%s/%s: %w", op.Bucket, op.Key, err)
			}
		}
		return nil
	})
	return apperr.Store("apply", err)
}

func (p *Postgres) Ping(ctx context.Context) error {
	return apperr.Store("ping", p.pool.Ping(ctx))
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
