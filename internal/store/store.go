// Package store provides focused, single-concern data access stores
// for the knowledge base.
//
// Each store owns one domain (knowledge, decisions, users, etc.) and
// embeds shared helpers (DB handle, logger) via the Base struct.
// Stores never import each other — shared logic lives in this file
// or in dedicated helper files (scan.go, audit.go).
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // database/sql driver
	"github.com/sirupsen/logrus"
)

// Base contains shared dependencies for all stores.
// Embed this in each store struct.
type Base struct {
	DB  *sql.DB
	Log *logrus.Logger
}

// Open creates or opens the SQLite database file at path, creating parent
// directories as needed. The handle is configured with WAL journaling,
// NORMAL synchronous mode, a five second busy timeout, and foreign key
// enforcement.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close() //nolint:errcheck // already failing.

		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY inside the process.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close() //nolint:errcheck // already failing.

		return nil, err
	}

	return db, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("executing %q: %w", pragma, err)
		}
	}

	return nil
}

// beginTx starts a read-write transaction. Every logical operation runs
// inside exactly one transaction; callers either commit or let the deferred
// rollback undo all of its writes.
func (b *Base) beginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := b.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	return tx, nil
}
