package entitlement

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OverrideCache defines the interface for caching per-principal plan
// overrides. Overrides are read on every entitlement check but change
// rarely, so implementations should favor fast reads.
//
// The cache operates as part of a multi-tier caching strategy:
// - L1: Local in-memory cache for ultra-fast access
// - L2: Redis cache for distributed consistency
// - L3: Database as the source of truth
//
// Cache keys follow the pattern entitlement:override:{principal_id}.
type OverrideCache interface {
	// Get retrieves the cached override set for a principal.
	// The second return value is false on a cache miss. A cached empty
	// set is a valid hit; most principals carry no overrides and the
	// negative result is worth caching.
	Get(ctx context.Context, principalID uuid.UUID) ([]*PlanOverride, bool, error)

	// Set stores a principal's override set in cache with the specified TTL.
	// If ttl is 0, implementation should use a default TTL.
	Set(ctx context.Context, principalID uuid.UUID, overrides []*PlanOverride, ttl time.Duration) error

	// Delete removes a principal's override set from cache.
	Delete(ctx context.Context, principalID uuid.UUID) error

	// InvalidateAll removes all cached override sets.
	InvalidateAll(ctx context.Context) error

	// Close releases any resources held by the cache.
	Close() error
}

// CacheUpdateAction represents the type of cache update notification
type CacheUpdateAction string

const (
	// CacheUpdateActionUpdated indicates a principal's overrides changed
	CacheUpdateActionUpdated CacheUpdateAction = "updated"
	// CacheUpdateActionDeleted indicates a principal's overrides were removed
	CacheUpdateActionDeleted CacheUpdateAction = "deleted"
	// CacheUpdateActionInvalidateAll indicates all cache should be cleared
	CacheUpdateActionInvalidateAll CacheUpdateAction = "invalidate_all"
)

// CacheUpdateMessage represents a cache invalidation message
// sent via Pub/Sub to notify other instances of cache changes.
type CacheUpdateMessage struct {
	Action      CacheUpdateAction `json:"action"`
	PrincipalID string            `json:"principal_id,omitempty"`
	Timestamp   int64             `json:"timestamp"`
}

// CacheInvalidator provides cache invalidation functionality.
// It allows publishing cache update notifications to other instances
// and subscribing to receive notifications from other instances.
type CacheInvalidator interface {
	// Publish sends a cache update notification to all subscribers.
	Publish(ctx context.Context, msg CacheUpdateMessage) error

	// Subscribe starts listening for cache update notifications.
	// The callback function is invoked for each received message.
	// This method should be called in a goroutine as it blocks.
	Subscribe(ctx context.Context, callback func(msg CacheUpdateMessage)) error

	// Close releases any resources held by the invalidator.
	Close() error
}

// TieredOverrideCache combines multiple cache layers for optimal performance.
// It follows a read-through, write-around pattern:
// - Reads: Check L1 -> Check L2 -> Database
// - Writes: Write to L2, invalidate L1 via Pub/Sub
type TieredOverrideCache interface {
	OverrideCache

	// GetL1 directly accesses the L1 (local) cache, bypassing L2.
	GetL1(ctx context.Context, principalID uuid.UUID) ([]*PlanOverride, bool, error)

	// SetL1 directly sets a value in the L1 (local) cache.
	// This is typically called when receiving Pub/Sub notifications.
	SetL1(ctx context.Context, principalID uuid.UUID, overrides []*PlanOverride, ttl time.Duration) error

	// InvalidateL1 removes an entry from the L1 (local) cache only.
	InvalidateL1(ctx context.Context, principalID uuid.UUID) error

	// GetCacheStats returns statistics about cache hits, misses, and other metrics.
	GetCacheStats(ctx context.Context) CacheStats
}

// CacheStats holds cache performance statistics
type CacheStats struct {
	L1Hits       int64   `json:"l1_hits"`
	L1Misses     int64   `json:"l1_misses"`
	L2Hits       int64   `json:"l2_hits"`
	L2Misses     int64   `json:"l2_misses"`
	TotalHits    int64   `json:"total_hits"`
	TotalMisses  int64   `json:"total_misses"`
	HitRatio     float64 `json:"hit_ratio"`
	CacheEntries int64   `json:"cache_entries"`
}

// CacheConfig holds configuration for the override cache
type CacheConfig struct {
	// OverrideTTL is the time-to-live for cached override sets (default: 60s)
	OverrideTTL time.Duration
	// L1TTL is the time-to-live for L1 (local) cache (default: 10s)
	L1TTL time.Duration
	// L1MaxSize is the maximum number of entries in L1 cache (default: 10000)
	L1MaxSize int
	// PubSubChannel is the Redis Pub/Sub channel name (default: "entitlement:override_updates")
	PubSubChannel string
}

// DefaultCacheConfig returns the default cache configuration
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		OverrideTTL:   60 * time.Second,
		L1TTL:         10 * time.Second,
		L1MaxSize:     10000,
		PubSubChannel: "entitlement:override_updates",
	}
}
