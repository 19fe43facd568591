package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const schema = `
CREATE TABLE IF NOT EXISTS search_cache (
    cache_key  TEXT PRIMARY KEY,
    value      JSONB NOT NULL,
    expires_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS search_cache_expires_at_idx ON search_cache (expires_at);
`

// Store - кеш результатов в таблице search_cache.
// Просроченные строки не отдаются, чистятся через PurgeExpired.
type Store struct {
	db *DB
}

func NewStore(db *DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate search_cache: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query := `
        SELECT value
        FROM search_cache
        WHERE cache_key = $1 AND expires_at > NOW()
    `

	var value []byte
	err := s.db.Pool.QueryRow(ctx, query, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cache entry: %w", err)
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	query := `
        INSERT INTO search_cache (cache_key, value, expires_at, updated_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (cache_key) DO UPDATE
        SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = NOW()
    `

	if _, err := s.db.Pool.Exec(ctx, query, key, string(value), time.Now().Add(ttl)); err != nil {
		return fmt.Errorf("set cache entry: %w", err)
	}
	return nil
}

func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := s.db.Pool.Exec(ctx, `DELETE FROM search_cache WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("purge expired: %w", err)
	}
	return result.RowsAffected(), nil
}

func (s *Store) Close() error {
	s.db.Close()
	return nil
}
