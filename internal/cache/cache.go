// Package cache provides an optional Redis-backed cache for idempotent
// Moltbook GET responses. Nothing derived from the PII detector is ever
// stored here.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/TheSethRose/Moltbook-Wrapper/internal/config"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ResponseCache caches raw API responses keyed by request endpoint.
type ResponseCache struct {
	client *redis.Client
	config config.CacheConfig
	logger *zap.Logger
	stats  *cacheStats
}

// cacheStats tracks cache performance metrics
type cacheStats struct {
	hits   int64
	misses int64
}

// Stats represents cache performance statistics
type Stats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	HitRate   float64 `json:"hit_rate"`
	TotalKeys int64   `json:"total_keys"`
}

// New creates a Redis-backed response cache and verifies connectivity.
func New(cfg config.CacheConfig, logger *zap.Logger) (*ResponseCache, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = cfg.MaxConnections
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	rc := &ResponseCache{
		client: client,
		config: cfg,
		logger: logger,
		stats:  &cacheStats{},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Response cache initialized",
		zap.String("redis_url", maskRedisURL(cfg.RedisURL)),
		zap.Duration("default_ttl", cfg.DefaultTTL))

	return rc, nil
}

// Get returns the cached response for an endpoint, if present.
func (rc *ResponseCache) Get(ctx context.Context, endpoint string) (json.RawMessage, bool) {
	key := rc.key(endpoint)

	data, err := rc.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		rc.stats.misses++
		return nil, false
	} else if err != nil {
		rc.logger.Error("Cache lookup failed", zap.Error(err))
		return nil, false
	}

	rc.stats.hits++
	rc.logger.Debug("Cache hit", zap.String("key", key))
	return json.RawMessage(data), true
}

// Store caches a response with the configured TTL.
func (rc *ResponseCache) Store(ctx context.Context, endpoint string, payload json.RawMessage) error {
	key := rc.key(endpoint)
	if err := rc.client.Set(ctx, key, []byte(payload), rc.config.DefaultTTL).Err(); err != nil {
		rc.logger.Error("Failed to cache response", zap.Error(err))
		return fmt.Errorf("failed to cache response: %w", err)
	}
	return nil
}

// GetStats returns cache performance statistics.
func (rc *ResponseCache) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		Hits:   rc.stats.hits,
		Misses: rc.stats.misses,
	}

	total := stats.Hits + stats.Misses
	if total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total) * 100
	}

	keys, err := rc.client.DBSize(ctx).Result()
	if err == nil {
		stats.TotalKeys = keys
	}

	return stats, nil
}

// Clear removes all cached responses under this cache's prefix.
func (rc *ResponseCache) Clear(ctx context.Context) error {
	pattern := rc.config.KeyPrefix + ":*"

	iter := rc.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	if err := rc.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}

	rc.logger.Info("Cache cleared", zap.Int("deleted_keys", len(keys)))
	return nil
}

// Close closes the Redis connection.
func (rc *ResponseCache) Close() error {
	if rc.client != nil {
		return rc.client.Close()
	}
	return nil
}

// key builds a stable cache key from an endpoint path and query.
func (rc *ResponseCache) key(endpoint string) string {
	sum := sha256.Sum256([]byte(endpoint))
	return fmt.Sprintf("%s:resp:%s", rc.config.KeyPrefix, hex.EncodeToString(sum[:])[:16])
}

// maskRedisURL masks credentials in a Redis URL for logging.
func maskRedisURL(url string) string {
	if !strings.Contains(url, "@") {
		return url
	}
	parts := strings.SplitN(url, "@", 2)
	if i := strings.LastIndex(parts[0], ":"); i > strings.Index(parts[0], "//")+1 {
		parts[0] = parts[0][:i] + ":***"
	}
	return parts[0] + "@" + parts[1]
}
