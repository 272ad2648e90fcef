package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radiusdt/vector-attribution/internal/config"
)

// RedisDB holds the Redis client backing the report cache. The service
// runs without it; a missing cache only costs recomputation.
type RedisDB struct {
	Client *redis.Client
	logger *zap.Logger
}

// NewRedisDB connects the report cache and verifies it with a ping.
func NewRedisDB(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*RedisDB, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: 100,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("report cache connected",
		zap.String("addr", cfg.Addr),
		zap.Int("db", cfg.DB),
	)

	return &RedisDB{
		Client: client,
		logger: logger,
	}, nil
}

// Close closes the report cache connection.
func (r *RedisDB) Close() error {
	if r.Client != nil {
		r.logger.Info("report cache connection closed")
		return r.Client.Close()
	}
	return nil
}

// Health reports whether the cache answers a ping.
func (r *RedisDB) Health(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}
