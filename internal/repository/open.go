package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/inventory-scanner/internal/common"
)

// Open returns the AnalysisCache backend selected by cfg.Backend.
func Open(ctx context.Context, cfg common.CacheConfig, logger *slog.Logger) (AnalysisCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Backend {
	case "", "memory":
		logger.Info("using in-memory analysis cache")
		return NewMemoryCache(), nil
	case "sqlite":
		return orNil(OpenSQLite(ctx, cfg.SQLitePath, logger))
	case "postgres":
		return orNil(OpenPostgres(ctx, Config{
			DSN:             cfg.DSN,
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			MaxConnLifetime: cfg.MaxConnLifetime,
			DialTimeout:     cfg.DialTimeout,
		}, logger))
	case "redis":
		return orNil(OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger))
	case "firestore":
		return orNil(OpenFirestore(ctx, cfg.FirestoreProjectID, logger))
	}
	return nil, common.NewAppError("CONFIG_ERROR", "unknown cache backend "+cfg.Backend, fmt.Errorf("%w: %s", common.ErrInvalidInput, cfg.Backend))
}

// orNil keeps a typed nil backend from becoming a non-nil interface.
func orNil[T AnalysisCache](c T, err error) (AnalysisCache, error) {
	if err != nil {
		return nil, err
	}
	return c, nil
}
