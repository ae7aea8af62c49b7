package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studyhall/backend/internal/domain/entitlement"
)

// Constants for in-memory cache configuration
const (
	defaultCleanupInterval = 30 * time.Second
)

// InMemoryOverrideCache implements OverrideCache using in-memory storage.
// This is designed to be used as L1 cache in front of Redis.
type InMemoryOverrideCache struct {
	entries sync.Map // map[uuid.UUID]*overrideEntry
	config  entitlement.CacheConfig
	logger  *zap.Logger
	stopCh  chan struct{} // Channel to stop the cleanup goroutine
	stopped int32         // Atomic flag to track if cache is stopped

	// Stats for monitoring
	hits   int64
	misses int64
}

// overrideEntry wraps a cached override set with expiration time
type overrideEntry struct {
	overrides []*entitlement.PlanOverride
	expiresAt time.Time
}

// isExpired checks if the cache entry has expired
func (e *overrideEntry) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// InMemoryOverrideCacheOption is a functional option for configuring the cache
type InMemoryOverrideCacheOption func(*InMemoryOverrideCache)

// WithInMemoryConfig sets the cache configuration
func WithInMemoryConfig(config entitlement.CacheConfig) InMemoryOverrideCacheOption {
	return func(c *InMemoryOverrideCache) {
		c.config = config
	}
}

// WithInMemoryLogger sets the logger for the cache
func WithInMemoryLogger(logger *zap.Logger) InMemoryOverrideCacheOption {
	return func(c *InMemoryOverrideCache) {
		c.logger = logger
	}
}

// NewInMemoryOverrideCache creates a new in-memory override cache
func NewInMemoryOverrideCache(opts ...InMemoryOverrideCacheOption) *InMemoryOverrideCache {
	cache := &InMemoryOverrideCache{
		config: entitlement.DefaultCacheConfig(),
		logger: zap.NewNop(),
		stopCh: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(cache)
	}

	// Start background cleanup goroutine
	go cache.cleanupExpired()

	return cache
}

// Get retrieves a principal's override set from cache
func (c *InMemoryOverrideCache) Get(ctx context.Context, principalID uuid.UUID) ([]*entitlement.PlanOverride, bool, error) {
	if value, ok := c.entries.Load(principalID); ok {
		entry := value.(*overrideEntry)
		if !entry.isExpired() {
			atomic.AddInt64(&c.hits, 1)
			c.logger.Debug("L1 cache hit for plan overrides",
				zap.String("principal_id", principalID.String()))
			return entry.overrides, true, nil
		}
		// Expired, remove from cache
		c.entries.Delete(principalID)
	}

	atomic.AddInt64(&c.misses, 1)
	c.logger.Debug("L1 cache miss for plan overrides",
		zap.String("principal_id", principalID.String()))
	return nil, false, nil
}

// Set stores a principal's override set in cache
func (c *InMemoryOverrideCache) Set(ctx context.Context, principalID uuid.UUID, overrides []*entitlement.PlanOverride, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.config.L1TTL
	}

	if overrides == nil {
		overrides = []*entitlement.PlanOverride{}
	}
	entry := &overrideEntry{
		overrides: overrides,
		expiresAt: time.Now().Add(ttl),
	}

	c.entries.Store(principalID, entry)
	c.logger.Debug("Cached plan overrides in L1",
		zap.String("principal_id", principalID.String()),
		zap.Duration("ttl", ttl))
	return nil
}

// Delete removes a principal's override set from cache
func (c *InMemoryOverrideCache) Delete(ctx context.Context, principalID uuid.UUID) error {
	c.entries.Delete(principalID)
	c.logger.Debug("Deleted plan overrides from L1 cache",
		zap.String("principal_id", principalID.String()))
	return nil
}

// InvalidateAll removes all cached override sets
func (c *InMemoryOverrideCache) InvalidateAll(ctx context.Context) error {
	c.entries.Range(func(key, _ any) bool {
		c.entries.Delete(key)
		return true
	})

	c.logger.Info("Invalidated all L1 override cache")
	return nil
}

// Close releases any resources held by the cache
func (c *InMemoryOverrideCache) Close() error {
	// Only close once
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
	return nil
}

// GetStats returns cache statistics
func (c *InMemoryOverrideCache) GetStats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// ResetStats resets the cache statistics
func (c *InMemoryOverrideCache) ResetStats() {
	atomic.StoreInt64(&c.hits, 0)
	atomic.StoreInt64(&c.misses, 0)
}

// Count returns the number of entries in the cache
func (c *InMemoryOverrideCache) Count() (entries int) {
	c.entries.Range(func(_, _ any) bool {
		entries++
		return true
	})
	return entries
}

// cleanupExpired periodically removes expired entries from the cache
func (c *InMemoryOverrideCache) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						c.logger.Error("Panic in cache cleanup",
							zap.Any("panic", r))
					}
				}()
				c.doCleanup()
			}()
		}
	}
}

// doCleanup removes expired entries
func (c *InMemoryOverrideCache) doCleanup() {
	var removed int

	c.entries.Range(func(key, value any) bool {
		entry := value.(*overrideEntry)
		if entry.isExpired() {
			c.entries.Delete(key)
			removed++
		}
		return true
	})

	if removed > 0 {
		c.logger.Debug("Cleaned up expired L1 cache entries",
			zap.Int("removed", removed))
	}
}

// Ensure InMemoryOverrideCache implements OverrideCache
var _ entitlement.OverrideCache = (*InMemoryOverrideCache)(nil)
