package attribution

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radiusdt/vector-attribution/internal/metrics"
)

// ReportCache is a short-TTL Redis cache for aggregation results, keyed
// by (operation, date range, filters). Entries are shareable across
// callers since reports carry no per-caller state. A nil client or zero
// TTL disables caching.
type ReportCache struct {
	client  *redis.Client
	ttl     time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewReportCache creates a report cache. client may be nil.
func NewReportCache(client *redis.Client, ttl time.Duration, logger *zap.Logger, m *metrics.Metrics) *ReportCache {
	return &ReportCache{client: client, ttl: ttl, logger: logger, metrics: m}
}

// Key builds the cache key for an operation over a range with filters.
func (c *ReportCache) Key(operation string, dr DateRange, filters ...string) string {
	parts := []string{
		"report", operation,
		dr.Start.UTC().Format(time.RFC3339),
		dr.End.UTC().Format(time.RFC3339),
	}
	for _, f := range filters {
		if f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, ":")
}

// Get loads a cached result into dest. It returns false on a miss or
// when caching is disabled; cache errors count as misses.
func (c *ReportCache) Get(ctx context.Context, key string, dest interface{}) bool {
	if c.client == nil || c.ttl <= 0 {
		return false
	}
	operation := operationOf(key)

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		if c.metrics != nil {
			c.metrics.RecordCacheLookup(operation, false)
		}
		return false
	}
	if err != nil {
		c.logger.Debug("report cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn("report cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	if c.metrics != nil {
		c.metrics.RecordCacheLookup(operation, true)
	}
	return true
}

// Set stores a result under the cache TTL. Failures are logged, never
// surfaced; the cache is best-effort.
func (c *ReportCache) Set(ctx context.Context, key string, value interface{}) {
	if c.client == nil || c.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("report cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Debug("report cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func operationOf(key string) string {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) < 2 {
		return fmt.Sprintf("unknown(%s)", key)
	}
	return parts[1]
}
