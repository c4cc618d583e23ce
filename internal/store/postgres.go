package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps snapshots in cashflow.snapshots, one row per slot and key.
type PostgresStore struct {
	pool     *pgxpool.Pool
	ownsPool bool
}

// NewPostgresStore creates the schema if needed. When ownsPool is set, Close also
// closes the pool.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool, ownsPool bool) (*PostgresStore, error) {
	s := &PostgresStore{pool: pool, ownsPool: ownsPool}
	if err := s.migrate(ctx); err != nil {
		if ownsPool {
			pool.Close()
		}
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE SCHEMA IF NOT EXISTS cashflow`,
		`CREATE TABLE IF NOT EXISTS cashflow.snapshots (
			slot       text NOT NULL,
			key        text NOT NULL,
			value      jsonb NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now(),
			PRIMARY KEY (slot, key)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, slot, key string) ([]byte, error) {
	if err := validateSlot(slot); err != nil {
		return nil, err
	}
	var value string
	err := s.pool.QueryRow(ctx, `
		SELECT value::text FROM cashflow.snapshots WHERE slot = $1 AND key = $2
	`, slot, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres get: %w", err)
	}
	return []byte(value), nil
}

func (s *PostgresStore) Put(ctx context.Context, slot, key string, value []byte) error {
	if err := validateSlot(slot); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO cashflow.snapshots (slot, key, value, updated_at)
		VALUES ($1, $2, $3::jsonb, now())
		ON CONFLICT (slot, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, slot, key, string(value))
	if err != nil {
		return fmt.Errorf("postgres put: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, slot, key string) error {
	if err := validateSlot(slot); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM cashflow.snapshots WHERE slot = $1 AND key = $2`, slot, key); err != nil {
		return fmt.Errorf("postgres delete: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s.ownsPool {
		s.pool.Close()
	}
	return nil
}
