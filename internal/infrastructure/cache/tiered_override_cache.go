package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studyhall/backend/internal/domain/entitlement"
)

// TieredOverrideCache implements a two-tier caching strategy
// L1: Local in-memory cache (fast, but local to instance)
// L2: Redis cache (slower, but shared across instances)
// This follows a read-through, write-around pattern with Pub/Sub invalidation
type TieredOverrideCache struct {
	l1Cache     *InMemoryOverrideCache
	l2Cache     *RedisOverrideCache
	invalidator *RedisOverrideCacheInvalidator
	config      entitlement.CacheConfig
	logger      *zap.Logger

	// Stats for monitoring
	l1Hits   int64
	l1Misses int64
	l2Hits   int64
	l2Misses int64
}

// TieredOverrideCacheOption is a functional option for configuring the cache
type TieredOverrideCacheOption func(*TieredOverrideCache)

// WithTieredConfig sets the cache configuration
func WithTieredConfig(config entitlement.CacheConfig) TieredOverrideCacheOption {
	return func(c *TieredOverrideCache) {
		c.config = config
	}
}

// WithTieredLogger sets the logger for the cache
func WithTieredLogger(logger *zap.Logger) TieredOverrideCacheOption {
	return func(c *TieredOverrideCache) {
		c.logger = logger
	}
}

// NewTieredOverrideCache creates a new tiered override cache
func NewTieredOverrideCache(
	l1Cache *InMemoryOverrideCache,
	l2Cache *RedisOverrideCache,
	invalidator *RedisOverrideCacheInvalidator,
	opts ...TieredOverrideCacheOption,
) *TieredOverrideCache {
	cache := &TieredOverrideCache{
		l1Cache:     l1Cache,
		l2Cache:     l2Cache,
		invalidator: invalidator,
		config:      entitlement.DefaultCacheConfig(),
		logger:      zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

// StartInvalidationSubscription starts listening for cache invalidation messages
// This should be called after creating the cache, typically in a goroutine
func (c *TieredOverrideCache) StartInvalidationSubscription(ctx context.Context) error {
	if c.invalidator == nil {
		return nil
	}

	return c.invalidator.Subscribe(ctx, func(msg entitlement.CacheUpdateMessage) {
		c.handleInvalidationMessage(msg)
	})
}

// handleInvalidationMessage processes cache invalidation messages
func (c *TieredOverrideCache) handleInvalidationMessage(msg entitlement.CacheUpdateMessage) {
	ctx := context.Background()

	switch msg.Action {
	case entitlement.CacheUpdateActionUpdated, entitlement.CacheUpdateActionDeleted:
		principalID, err := uuid.Parse(msg.PrincipalID)
		if err != nil {
			c.logger.Error("Failed to parse principal ID in invalidation message",
				zap.String("principal_id", msg.PrincipalID),
				zap.Error(err))
			return
		}
		if err := c.l1Cache.Delete(ctx, principalID); err != nil {
			c.logger.Error("Failed to invalidate L1 cache for principal",
				zap.String("principal_id", msg.PrincipalID),
				zap.Error(err))
		}
		c.logger.Debug("Invalidated L1 cache for principal",
			zap.String("action", string(msg.Action)),
			zap.String("principal_id", msg.PrincipalID))

	case entitlement.CacheUpdateActionInvalidateAll:
		if err := c.l1Cache.InvalidateAll(ctx); err != nil {
			c.logger.Error("Failed to invalidate all L1 cache", zap.Error(err))
		}
		c.logger.Info("Invalidated all L1 cache")
	}
}

// Get retrieves a principal's override set from cache (L1 -> L2)
func (c *TieredOverrideCache) Get(ctx context.Context, principalID uuid.UUID) ([]*entitlement.PlanOverride, bool, error) {
	// Try L1 first
	overrides, found, err := c.l1Cache.Get(ctx, principalID)
	if err != nil {
		c.logger.Warn("L1 cache error",
			zap.String("principal_id", principalID.String()),
			zap.Error(err))
	}
	if found {
		atomic.AddInt64(&c.l1Hits, 1)
		return overrides, true, nil
	}
	atomic.AddInt64(&c.l1Misses, 1)

	// Try L2
	overrides, found, err = c.l2Cache.Get(ctx, principalID)
	if err != nil {
		return nil, false, err
	}
	if found {
		atomic.AddInt64(&c.l2Hits, 1)
		// Populate L1 cache
		if err := c.l1Cache.Set(ctx, principalID, overrides, c.config.L1TTL); err != nil {
			c.logger.Warn("Failed to populate L1 cache",
				zap.String("principal_id", principalID.String()),
				zap.Error(err))
		}
		return overrides, true, nil
	}
	atomic.AddInt64(&c.l2Misses, 1)

	return nil, false, nil
}

// Set stores a principal's override set in cache
func (c *TieredOverrideCache) Set(ctx context.Context, principalID uuid.UUID, overrides []*entitlement.PlanOverride, ttl time.Duration) error {
	// Set in L2
	if err := c.l2Cache.Set(ctx, principalID, overrides, ttl); err != nil {
		return err
	}

	// Also set in L1 for immediate local access
	if err := c.l1Cache.Set(ctx, principalID, overrides, c.config.L1TTL); err != nil {
		c.logger.Warn("Failed to set L1 cache",
			zap.String("principal_id", principalID.String()),
			zap.Error(err))
	}

	// Publish invalidation for other instances
	if c.invalidator != nil {
		if err := c.invalidator.PublishOverrideUpdate(ctx, principalID); err != nil {
			c.logger.Warn("Failed to publish override update",
				zap.String("principal_id", principalID.String()),
				zap.Error(err))
		}
	}

	return nil
}

// Delete removes a principal's override set from cache (both L1 and L2)
func (c *TieredOverrideCache) Delete(ctx context.Context, principalID uuid.UUID) error {
	// Delete from L2
	if err := c.l2Cache.Delete(ctx, principalID); err != nil {
		return err
	}

	// Delete from L1
	if err := c.l1Cache.Delete(ctx, principalID); err != nil {
		c.logger.Warn("Failed to delete from L1 cache",
			zap.String("principal_id", principalID.String()),
			zap.Error(err))
	}

	// Publish invalidation for other instances
	if c.invalidator != nil {
		if err := c.invalidator.PublishOverrideDelete(ctx, principalID); err != nil {
			c.logger.Warn("Failed to publish override delete",
				zap.String("principal_id", principalID.String()),
				zap.Error(err))
		}
	}

	return nil
}

// InvalidateAll removes all cached override sets
func (c *TieredOverrideCache) InvalidateAll(ctx context.Context) error {
	// Invalidate L2
	if err := c.l2Cache.InvalidateAll(ctx); err != nil {
		return err
	}

	// Invalidate L1
	if err := c.l1Cache.InvalidateAll(ctx); err != nil {
		c.logger.Warn("Failed to invalidate L1 cache", zap.Error(err))
	}

	// Publish invalidation for other instances
	if c.invalidator != nil {
		if err := c.invalidator.PublishInvalidateAll(ctx); err != nil {
			c.logger.Warn("Failed to publish invalidate all", zap.Error(err))
		}
	}

	return nil
}

// Close releases any resources held by the cache
func (c *TieredOverrideCache) Close() error {
	var lastErr error

	if c.invalidator != nil {
		if err := c.invalidator.Close(); err != nil {
			lastErr = err
		}
	}

	if err := c.l2Cache.Close(); err != nil {
		lastErr = err
	}

	if err := c.l1Cache.Close(); err != nil {
		lastErr = err
	}

	return lastErr
}

// TieredOverrideCache interface implementation

// GetL1 directly accesses the L1 (local) cache
func (c *TieredOverrideCache) GetL1(ctx context.Context, principalID uuid.UUID) ([]*entitlement.PlanOverride, bool, error) {
	return c.l1Cache.Get(ctx, principalID)
}

// SetL1 directly sets a value in the L1 (local) cache
func (c *TieredOverrideCache) SetL1(ctx context.Context, principalID uuid.UUID, overrides []*entitlement.PlanOverride, ttl time.Duration) error {
	return c.l1Cache.Set(ctx, principalID, overrides, ttl)
}

// InvalidateL1 removes an entry from the L1 (local) cache only
func (c *TieredOverrideCache) InvalidateL1(ctx context.Context, principalID uuid.UUID) error {
	return c.l1Cache.Delete(ctx, principalID)
}

// GetCacheStats returns statistics about cache hits, misses, and other metrics
func (c *TieredOverrideCache) GetCacheStats(ctx context.Context) entitlement.CacheStats {
	l1Hits := atomic.LoadInt64(&c.l1Hits)
	l1Misses := atomic.LoadInt64(&c.l1Misses)
	l2Hits := atomic.LoadInt64(&c.l2Hits)
	l2Misses := atomic.LoadInt64(&c.l2Misses)

	totalHits := l1Hits + l2Hits
	totalMisses := l2Misses // Only count final misses

	var hitRatio float64
	totalRequests := totalHits + totalMisses
	if totalRequests > 0 {
		hitRatio = float64(totalHits) / float64(totalRequests)
	}

	return entitlement.CacheStats{
		L1Hits:       l1Hits,
		L1Misses:     l1Misses,
		L2Hits:       l2Hits,
		L2Misses:     l2Misses,
		TotalHits:    totalHits,
		TotalMisses:  totalMisses,
		HitRatio:     hitRatio,
		CacheEntries: int64(c.l1Cache.Count()),
	}
}

// ResetStats resets the cache statistics
func (c *TieredOverrideCache) ResetStats() {
	atomic.StoreInt64(&c.l1Hits, 0)
	atomic.StoreInt64(&c.l1Misses, 0)
	atomic.StoreInt64(&c.l2Hits, 0)
	atomic.StoreInt64(&c.l2Misses, 0)
	c.l1Cache.ResetStats()
}

// Ensure TieredOverrideCache implements both OverrideCache and TieredOverrideCache
var _ entitlement.OverrideCache = (*TieredOverrideCache)(nil)
var _ entitlement.TieredOverrideCache = (*TieredOverrideCache)(nil)
