// Package sqlite implements ports.Backend on an embedded SQLite file, the
// device-local side of the sync engine. Each collection is stored as one
// JSON document row, mirroring the remote endpoint's shape of independent
// per-collection lists.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	// Pure Go SQLite driver; registers as "sqlite".
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Backend implements ports.Backend on SQLite.
type Backend struct {
	db  *sql.DB
	log *slog.Logger
}

// Open creates or opens the database at path and applies the schema.
// SQLite allows one writer at a time; the pool is pinned to a single
// connection to avoid SQLITE_BUSY under concurrent handlers.
func Open(ctx context.Context, path string, log *slog.Logger) (*Backend, error) {
	if path == "" {
		return nil, errors.New("sqlite: path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(c); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	log.Debug("sqlite backend opened", slog.String("path", path))
	return &Backend{db: db, log: log}, nil
}

// Load returns the stored document for the collection, or nil when the
// collection has never been written.
func (b *Backend) Load(ctx context.Context, collection string) ([]byte, error) {
	var doc []byte
	err := b.db.QueryRowContext(ctx,
		"SELECT doc FROM collections WHERE name = ?", collection,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Save writes the document through synchronously; when it returns nil the
// write is durable.
func (b *Backend) Save(ctx context.Context, collection string, doc []byte) error {
	_, err := b.db.ExecContext(ctx, `
INSERT INTO collections (name, doc, saved_at)
VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
  doc = excluded.doc,
  saved_at = excluded.saved_at;
`, collection, doc, time.Now().UTC().UnixMilli())
	return err
}

// Close closes the underlying DB. Not part of ports.Backend to keep the
// port minimal.
func (b *Backend) Close() error { return b.db.Close() }
