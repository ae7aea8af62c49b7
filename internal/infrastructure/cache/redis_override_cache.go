package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/studyhall/backend/internal/domain/entitlement"
)

// Constants for Redis cache configuration
const (
	defaultScanBatchSize = 100
)

// RedisOverrideCache implements OverrideCache using Redis
type RedisOverrideCache struct {
	client     *redis.Client
	ownsClient bool // true if we created the client and should close it
	config     entitlement.CacheConfig
	logger     *zap.Logger
}

// RedisOverrideCacheOption is a functional option for configuring the cache
type RedisOverrideCacheOption func(*RedisOverrideCache)

// WithCacheConfig sets the cache configuration
func WithCacheConfig(config entitlement.CacheConfig) RedisOverrideCacheOption {
	return func(c *RedisOverrideCache) {
		c.config = config
	}
}

// WithCacheLogger sets the logger for the cache
func WithCacheLogger(logger *zap.Logger) RedisOverrideCacheOption {
	return func(c *RedisOverrideCache) {
		c.logger = logger
	}
}

// NewRedisOverrideCache creates a new Redis-based override cache
func NewRedisOverrideCache(cfg RedisConfig, opts ...RedisOverrideCacheOption) (*RedisOverrideCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cache := &RedisOverrideCache{
		client:     client,
		ownsClient: true, // We created this client, so we own it
		config:     entitlement.DefaultCacheConfig(),
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache, nil
}

// NewRedisOverrideCacheWithClient creates a cache with an existing Redis client
// Note: The caller retains ownership of the client and is responsible for closing it
func NewRedisOverrideCacheWithClient(client *redis.Client, opts ...RedisOverrideCacheOption) *RedisOverrideCache {
	cache := &RedisOverrideCache{
		client:     client,
		ownsClient: false, // Client is shared, don't close it
		config:     entitlement.DefaultCacheConfig(),
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

// overrideCacheKey generates the cache key for a principal's override set
func (c *RedisOverrideCache) overrideCacheKey(principalID uuid.UUID) string {
	return fmt.Sprintf("entitlement:override:%s", principalID.String())
}

// Get retrieves a principal's override set from cache.
// An empty cached set is a valid hit; redis.Nil is the only miss signal.
func (c *RedisOverrideCache) Get(ctx context.Context, principalID uuid.UUID) ([]*entitlement.PlanOverride, bool, error) {
	cacheKey := c.overrideCacheKey(principalID)

	data, err := c.client.Get(ctx, cacheKey).Bytes()
	if err == redis.Nil {
		// Cache miss
		c.logger.Debug("Cache miss for plan overrides",
			zap.String("principal_id", principalID.String()))
		return nil, false, nil
	}
	if err != nil {
		c.logger.Error("Failed to get plan overrides from cache",
			zap.String("principal_id", principalID.String()),
			zap.Error(err))
		return nil, false, fmt.Errorf("failed to get overrides from cache: %w", err)
	}

	var overrides []*entitlement.PlanOverride
	if err := json.Unmarshal(data, &overrides); err != nil {
		c.logger.Error("Failed to unmarshal plan overrides",
			zap.String("principal_id", principalID.String()),
			zap.Error(err))
		// Delete corrupted cache entry
		_ = c.client.Del(ctx, cacheKey)
		return nil, false, fmt.Errorf("failed to unmarshal overrides: %w", err)
	}

	c.logger.Debug("Cache hit for plan overrides",
		zap.String("principal_id", principalID.String()),
		zap.Int("count", len(overrides)))
	return overrides, true, nil
}

// Set stores a principal's override set in cache
func (c *RedisOverrideCache) Set(ctx context.Context, principalID uuid.UUID, overrides []*entitlement.PlanOverride, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.config.OverrideTTL
	}

	cacheKey := c.overrideCacheKey(principalID)

	if overrides == nil {
		overrides = []*entitlement.PlanOverride{}
	}
	data, err := json.Marshal(overrides)
	if err != nil {
		c.logger.Error("Failed to marshal plan overrides",
			zap.String("principal_id", principalID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to marshal overrides: %w", err)
	}

	if err := c.client.Set(ctx, cacheKey, data, ttl).Err(); err != nil {
		c.logger.Error("Failed to set plan overrides in cache",
			zap.String("principal_id", principalID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to set overrides in cache: %w", err)
	}

	c.logger.Debug("Cached plan overrides",
		zap.String("principal_id", principalID.String()),
		zap.Int("count", len(overrides)),
		zap.Duration("ttl", ttl))
	return nil
}

// Delete removes a principal's override set from cache
func (c *RedisOverrideCache) Delete(ctx context.Context, principalID uuid.UUID) error {
	cacheKey := c.overrideCacheKey(principalID)

	if err := c.client.Del(ctx, cacheKey).Err(); err != nil {
		c.logger.Error("Failed to delete plan overrides from cache",
			zap.String("principal_id", principalID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to delete overrides from cache: %w", err)
	}

	c.logger.Debug("Deleted plan overrides from cache",
		zap.String("principal_id", principalID.String()))
	return nil
}

// InvalidateAll removes all cached override sets
func (c *RedisOverrideCache) InvalidateAll(ctx context.Context) error {
	// Use SCAN to find all override keys to avoid blocking Redis with KEYS command
	var cursor uint64
	var deletedCount int64

	for {
		var keys []string
		var err error
		keys, cursor, err = c.client.Scan(ctx, cursor, "entitlement:override:*", defaultScanBatchSize).Result()
		if err != nil {
			c.logger.Error("Failed to scan override keys", zap.Error(err))
			return fmt.Errorf("failed to scan cache keys: %w", err)
		}

		if len(keys) > 0 {
			deleted, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				c.logger.Error("Failed to delete override keys", zap.Error(err))
				return fmt.Errorf("failed to delete cache keys: %w", err)
			}
			deletedCount += deleted
		}

		if cursor == 0 {
			break
		}
	}

	c.logger.Info("Invalidated all override cache",
		zap.Int64("deleted_count", deletedCount))
	return nil
}

// Close releases any resources held by the cache
func (c *RedisOverrideCache) Close() error {
	// Only close client if we own it
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (c *RedisOverrideCache) GetClient() *redis.Client {
	return c.client
}

// Ensure RedisOverrideCache implements OverrideCache
var _ entitlement.OverrideCache = (*RedisOverrideCache)(nil)
