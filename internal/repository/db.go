package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/inventory-scanner/constants"
	"github.com/joseph-ayodele/inventory-scanner/internal/entity"
)

type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	DialTimeout     time.Duration
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS analysis_cache (
	hash     TEXT NOT NULL,
	doc_type TEXT NOT NULL,
	source   TEXT NOT NULL,
	payload  JSONB NOT NULL,
	saved_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (hash, doc_type)
);
CREATE TABLE IF NOT EXISTS analysis_audit (
	id         BIGSERIAL PRIMARY KEY,
	hash       TEXT NOT NULL,
	doc_type   TEXT NOT NULL,
	source     TEXT NOT NULL,
	saved_at   TIMESTAMPTZ NOT NULL,
	size_bytes INTEGER NOT NULL
);`

// PostgresCache stores the cache and audit log in Postgres through a pgx pool.
type PostgresCache struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// OpenPostgres creates a pgx pool, ensures the tables exist and returns the cache.
func OpenPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*PostgresCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("connecting to database")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database config", "error", err)
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MinConns = cfg.MinConns
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "inventory-scanner"

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}
	if _, err := pool.Exec(dialCtx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	logger.Info("successfully connected to database")
	return &PostgresCache{pool: pool, logger: logger}, nil
}

func (c *PostgresCache) Get(ctx context.Context, hash entity.ContentHash, docType constants.DocumentType) (*entity.CacheEntry, error) {
	var (
		source  string
		payload []byte
		savedAt time.Time
	)
	err := c.pool.QueryRow(ctx,
		`SELECT source, payload, saved_at FROM analysis_cache WHERE hash = $1 AND doc_type = $2`,
		string(hash), string(docType),
	).Scan(&source, &payload, &savedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres get %s: %w", hash, err)
	}
	extraction, err := decodePayload(payload)
	if err != nil {
		return nil, err
	}
	return &entity.CacheEntry{
		Hash:    hash,
		DocType: docType,
		Source:  constants.AnalysisSource(source),
		Payload: extraction,
		SavedAt: savedAt,
	}, nil
}

func (c *PostgresCache) Put(ctx context.Context, entry entity.CacheEntry) error {
	payload, err := encodePayload(entry.Payload)
	if err != nil {
		return err
	}
	_, err = c.pool.Exec(ctx,
		`INSERT INTO analysis_cache (hash, doc_type, source, payload, saved_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (hash, doc_type) DO UPDATE SET source = EXCLUDED.source, payload = EXCLUDED.payload, saved_at = EXCLUDED.saved_at`,
		string(entry.Hash), string(entry.DocType), string(entry.Source), payload, entry.SavedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres put %s: %w", entry.Hash, err)
	}
	return nil
}

func (c *PostgresCache) AppendAudit(ctx context.Context, entry entity.AuditEntry) error {
	_, err := c.pool.Exec(ctx,
		`INSERT INTO analysis_audit (hash, doc_type, source, saved_at, size_bytes) VALUES ($1, $2, $3, $4, $5)`,
		string(entry.Hash), string(entry.DocType), string(entry.Source), entry.SavedAt, entry.SizeInBytes,
	)
	if err != nil {
		return fmt.Errorf("postgres audit %s: %w", entry.Hash, err)
	}
	return nil
}

// HealthCheck pings the pool to catch DSN issues early.
func (c *PostgresCache) HealthCheck(ctx context.Context, timeout time.Duration) error {
	c.logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return c.pool.Ping(ctx)
}

// Close closes the database connections gracefully
func (c *PostgresCache) Close() error {
	c.logger.Info("closing database connections")
	c.pool.Close()
	return nil
}
