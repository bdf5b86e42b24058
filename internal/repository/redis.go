package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/joseph-ayodele/inventory-scanner/constants"
	"github.com/joseph-ayodele/inventory-scanner/internal/entity"
)

const redisAuditKey = "analysis:audit"

// RedisCache stores entries as JSON strings under analysis:<type>:<hash> and
// pushes audit records onto a list.
type RedisCache struct {
	client *redis.Client
	logger *slog.Logger
}

// OpenRedis connects and pings the server before returning.
func OpenRedis(ctx context.Context, addr, password string, db int, logger *slog.Logger) (*RedisCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	logger.Info("connected to redis cache", "addr", addr, "db", db)
	return NewRedisCache(client, logger), nil
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client *redis.Client, logger *slog.Logger) *RedisCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache{client: client, logger: logger}
}

func redisKey(hash entity.ContentHash, docType constants.DocumentType) string {
	return "analysis:" + cacheKey(hash, docType)
}

func (c *RedisCache) Get(ctx context.Context, hash entity.ContentHash, docType constants.DocumentType) (*entity.CacheEntry, error) {
	b, err := c.client.Get(ctx, redisKey(hash, docType)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", hash, err)
	}
	var entry entity.CacheEntry
	if err := json.Unmarshal(b, &entry); err != nil {
		return nil, fmt.Errorf("redis decode %s: %w", hash, err)
	}
	return &entry, nil
}

func (c *RedisCache) Put(ctx context.Context, entry entity.CacheEntry) error {
	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redis encode %s: %w", entry.Hash, err)
	}
	if err := c.client.Set(ctx, redisKey(entry.Hash, entry.DocType), b, 0).Err(); err != nil {
		return fmt.Errorf("redis put %s: %w", entry.Hash, err)
	}
	return nil
}

func (c *RedisCache) AppendAudit(ctx context.Context, entry entity.AuditEntry) error {
	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redis encode audit: %w", err)
	}
	if err := c.client.RPush(ctx, redisAuditKey, b).Err(); err != nil {
		return fmt.Errorf("redis audit %s: %w", entry.Hash, err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
