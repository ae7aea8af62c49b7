package cache

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studyhall/backend/internal/domain/entitlement"
)

// CachedOverrideRepository decorates a PlanOverrideRepository with a
// read-through override cache. FindByPrincipal runs on every entitlement
// check, so the cached set (including the empty set) short-circuits the
// database; writes go straight through and invalidate the cached entry.
//
// Cache failures never fail the operation: the repository falls back to
// the database on a broken read and logs a warning on a broken write.
type CachedOverrideRepository struct {
	inner  entitlement.PlanOverrideRepository
	cache  entitlement.OverrideCache
	logger *zap.Logger
}

// NewCachedOverrideRepository wraps a repository with an override cache
func NewCachedOverrideRepository(
	inner entitlement.PlanOverrideRepository,
	cache entitlement.OverrideCache,
	logger *zap.Logger,
) *CachedOverrideRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedOverrideRepository{
		inner:  inner,
		cache:  cache,
		logger: logger,
	}
}

// FindByPrincipal reads through the cache, populating it on a miss
func (r *CachedOverrideRepository) FindByPrincipal(ctx context.Context, principalID uuid.UUID) ([]*entitlement.PlanOverride, error) {
	overrides, found, err := r.cache.Get(ctx, principalID)
	if err != nil {
		r.logger.Warn("Override cache read failed, falling back to database",
			zap.String("principal_id", principalID.String()),
			zap.Error(err))
	} else if found {
		return overrides, nil
	}

	overrides, err = r.inner.FindByPrincipal(ctx, principalID)
	if err != nil {
		return nil, err
	}

	// ttl 0 uses the cache's configured default
	if err := r.cache.Set(ctx, principalID, overrides, 0); err != nil {
		r.logger.Warn("Failed to populate override cache",
			zap.String("principal_id", principalID.String()),
			zap.Error(err))
	}
	return overrides, nil
}

// FindByPrincipalAndFeature bypasses the cache; single-feature lookups are
// admin-path reads where staleness is not acceptable
func (r *CachedOverrideRepository) FindByPrincipalAndFeature(ctx context.Context, principalID uuid.UUID, feature entitlement.Feature) (*entitlement.PlanOverride, error) {
	return r.inner.FindByPrincipalAndFeature(ctx, principalID, feature)
}

// Save writes through and invalidates the principal's cached set
func (r *CachedOverrideRepository) Save(ctx context.Context, override *entitlement.PlanOverride) error {
	if err := r.inner.Save(ctx, override); err != nil {
		return err
	}
	r.invalidate(ctx, override.PrincipalID)
	return nil
}

// Delete removes the override and invalidates the principal's cached set
func (r *CachedOverrideRepository) Delete(ctx context.Context, principalID uuid.UUID, feature entitlement.Feature) error {
	if err := r.inner.Delete(ctx, principalID, feature); err != nil {
		return err
	}
	r.invalidate(ctx, principalID)
	return nil
}

func (r *CachedOverrideRepository) invalidate(ctx context.Context, principalID uuid.UUID) {
	if err := r.cache.Delete(ctx, principalID); err != nil {
		r.logger.Warn("Failed to invalidate override cache after write",
			zap.String("principal_id", principalID.String()),
			zap.Error(err))
	}
}

// Ensure CachedOverrideRepository implements PlanOverrideRepository
var _ entitlement.PlanOverrideRepository = (*CachedOverrideRepository)(nil)
