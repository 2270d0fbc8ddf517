// Package db opens the DuckDB database that holds durable widget state.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Config holds database configuration.
type Config struct {
	DataDir string
	DBName  string
}

// Path returns the database file location, <DataDir>/duckdb/<DBName>.duckdb.
func (c Config) Path() string {
	return filepath.Join(c.DataDir, "duckdb", c.DBName+".duckdb")
}

// Open creates the duckdb directory if needed and opens the database file.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path()), 0755); err != nil {
		return nil, fmt.Errorf("failed to create duckdb directory: %w", err)
	}

	conn, err := sql.Open("duckdb", cfg.Path())
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", cfg.Path(), err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening %s: %w", cfg.Path(), err)
	}
	return conn, nil
}
