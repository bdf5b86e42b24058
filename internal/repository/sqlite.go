package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/inventory-scanner/constants"
	"github.com/joseph-ayodele/inventory-scanner/internal/entity"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS analysis_cache (
	hash     TEXT NOT NULL,
	doc_type TEXT NOT NULL,
	source   TEXT NOT NULL,
	payload  BLOB NOT NULL,
	saved_at TEXT NOT NULL,
	PRIMARY KEY (hash, doc_type)
);
CREATE TABLE IF NOT EXISTS analysis_audit (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	hash       TEXT NOT NULL,
	doc_type   TEXT NOT NULL,
	source     TEXT NOT NULL,
	saved_at   TEXT NOT NULL,
	size_bytes INTEGER NOT NULL
);`

// SQLiteCache stores the cache and audit log in a local SQLite file.
type SQLiteCache struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (or creates) the database at path. Use ":memory:" for an
// ephemeral database.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("opening sqlite cache", "path", path)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &SQLiteCache{db: db, logger: logger}, nil
}

func (c *SQLiteCache) Get(ctx context.Context, hash entity.ContentHash, docType constants.DocumentType) (*entity.CacheEntry, error) {
	var (
		source  string
		payload []byte
		savedAt string
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT source, payload, saved_at FROM analysis_cache WHERE hash = ? AND doc_type = ?`,
		string(hash), string(docType),
	).Scan(&source, &payload, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get %s: %w", hash, err)
	}
	extraction, err := decodePayload(payload)
	if err != nil {
		return nil, err
	}
	ts, _ := time.Parse(time.RFC3339Nano, savedAt)
	return &entity.CacheEntry{
		Hash:    hash,
		DocType: docType,
		Source:  constants.AnalysisSource(source),
		Payload: extraction,
		SavedAt: ts,
	}, nil
}

func (c *SQLiteCache) Put(ctx context.Context, entry entity.CacheEntry) error {
	payload, err := encodePayload(entry.Payload)
	if err != nil {
		return err
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO analysis_cache (hash, doc_type, source, payload, saved_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (hash, doc_type) DO UPDATE SET source = excluded.source, payload = excluded.payload, saved_at = excluded.saved_at`,
		string(entry.Hash), string(entry.DocType), string(entry.Source), payload, entry.SavedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlite put %s: %w", entry.Hash, err)
	}
	return nil
}

func (c *SQLiteCache) AppendAudit(ctx context.Context, entry entity.AuditEntry) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO analysis_audit (hash, doc_type, source, saved_at, size_bytes) VALUES (?, ?, ?, ?, ?)`,
		string(entry.Hash), string(entry.DocType), string(entry.Source), entry.SavedAt.UTC().Format(time.RFC3339Nano), entry.SizeInBytes,
	)
	if err != nil {
		return fmt.Errorf("sqlite audit %s: %w", entry.Hash, err)
	}
	return nil
}

// AuditCount returns the number of audit rows recorded for hash.
func (c *SQLiteCache) AuditCount(ctx context.Context, hash entity.ContentHash) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analysis_audit WHERE hash = ?`, string(hash)).Scan(&n)
	return n, err
}

func (c *SQLiteCache) Close() error {
	c.logger.Info("closing sqlite cache")
	return c.db.Close()
}
