// Package sqlite is the relational store backing spec §6's single
// "data/news.db" file: one writer connection, goqite-backed job queue
// schema, and a table per entity family from §3.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"maragu.dev/goqite"
	_ "modernc.org/sqlite"
)

// DB wraps the single *sql.DB connection the engine writes through.
type DB struct {
	db     *sql.DB
	logger arbor.ILogger
	path   string
}

// Options configures database opening.
type Options struct {
	Path           string
	ResetOnStartup bool
	Environment    string
}

// Open opens (creating if needed) the sqlite database at opts.Path,
// initializes the goqite queue schema, and runs the engine's own schema.
func Open(logger arbor.ILogger, opts Options) (*DB, error) {
	dir := filepath.Dir(opts.Path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	if opts.ResetOnStartup {
		if opts.Environment != "development" {
			logger.Warn().Str("environment", opts.Environment).Msg("reset_on_startup ignored outside development")
		} else if err := os.Remove(opts.Path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reset database: %w", err)
		}
	}

	// modernc.org/sqlite registers the driver under the name "sqlite", not "sqlite3".
	sqlDB, err := sql.Open("sqlite", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite tolerates exactly one writer; a single pooled connection avoids
	// SQLITE_BUSY under concurrent candidate workers.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	d := &DB{db: sqlDB, logger: logger, path: opts.Path}

	if err := goqite.Setup(context.Background(), sqlDB); err != nil {
		if !strings.Contains(err.Error(), "already exists") {
			sqlDB.Close()
			return nil, fmt.Errorf("initialize goqite schema: %w", err)
		}
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	if err := d.initSchema(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	logger.Info().Str("path", opts.Path).Msg("sqlite database initialized")
	return d, nil
}

// Conn returns the underlying connection for components that need it
// directly (the goqite-backed job queue).
func (d *DB) Conn() *sql.DB { return d.db }

func (d *DB) Close() error { return d.db.Close() }
