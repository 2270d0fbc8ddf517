package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const createStateTable = `CREATE TABLE IF NOT EXISTS widget_state (
	scope       VARCHAR NOT NULL,
	state_key   VARCHAR NOT NULL,
	state_value VARCHAR NOT NULL,
	updated_at  TIMESTAMP NOT NULL DEFAULT current_timestamp,
	PRIMARY KEY (scope, state_key)
)`

// DuckDB is a durable Backend stored in a DuckDB table.
type DuckDB struct {
	db *sql.DB
}

// NewDuckDB prepares the state table on db.
func NewDuckDB(ctx context.Context, db *sql.DB) (*DuckDB, error) {
	if _, err := db.ExecContext(ctx, createStateTable); err != nil {
		return nil, fmt.Errorf("creating widget_state table: %w", err)
	}
	return &DuckDB{db: db}, nil
}

// Scope returns the store for scope.
func (d *DuckDB) Scope(scope string) Store {
	return &duckScope{db: d.db, scope: scope}
}

// Close leaves the shared connection open; internal/db owns it.
func (d *DuckDB) Close() error { return nil }

type duckScope struct {
	db    *sql.DB
	scope string
}

func (s *duckScope) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx,
		`SELECT state_value FROM widget_state WHERE scope = ? AND state_key = ?`, s.scope, key,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s/%s: %w", s.scope, key, err)
	}
	return v, true, nil
}

func (s *duckScope) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO widget_state (scope, state_key, state_value, updated_at) VALUES (?, ?, ?, current_timestamp)`,
		s.scope, key, value,
	)
	if err != nil {
		return fmt.Errorf("writing %s/%s: %w", s.scope, key, err)
	}
	return nil
}

func (s *duckScope) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM widget_state WHERE scope = ? AND state_key = ?`, s.scope, key,
	)
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", s.scope, key, err)
	}
	return nil
}
