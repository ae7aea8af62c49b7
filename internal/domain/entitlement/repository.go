package entitlement

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UsageProfileRepository defines the interface for persisting and querying
// usage profiles. Counter mutations are expressed as atomic single-statement
// updates so concurrent requests cannot lose increments.
type UsageProfileRepository interface {
	// Save persists a new usage profile
	Save(ctx context.Context, profile *UsageProfile) error

	// Update persists changes to an existing profile (plan moves, admin edits)
	Update(ctx context.Context, profile *UsageProfile) error

	// FindByID retrieves a profile by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*UsageProfile, error)

	// FindByPrincipal retrieves the profile owned by a principal
	FindByPrincipal(ctx context.Context, principalID uuid.UUID) (*UsageProfile, error)

	// IncrementCounter atomically adds 1 to the counter backing the feature.
	// Live-counted features (classes) have no profile counter; calling this
	// for them is an error.
	IncrementCounter(ctx context.Context, principalID uuid.UUID, feature Feature) error

	// DecrementBooks atomically lowers the cached lifetime book counter,
	// floored at 0, when a book is deleted or flagged as a duplicate
	DecrementBooks(ctx context.Context, principalID uuid.UUID) error

	// ApplyRollover conditionally zeroes the monthly counters and moves the
	// reset anchor to resetAt, guarded by last_monthly_reset < monthStart.
	// Returns true if this call performed the reset, false if another caller
	// already had (or none was due).
	ApplyRollover(ctx context.Context, principalID uuid.UUID, monthStart, resetAt time.Time) (bool, error)

	// FindRolloverDue pages through profiles whose monthly counters still
	// belong to a month before monthStart
	FindRolloverDue(ctx context.Context, monthStart time.Time, limit int) ([]*UsageProfile, error)

	// SetPlan moves a principal's profile to a different tier
	SetPlan(ctx context.Context, principalID uuid.UUID, planID string) error
}

// SeatPoolRepository defines the interface for persisting seat pools.
// Consume and release are conditional single-statement updates carrying the
// capacity and floor invariants into the database.
type SeatPoolRepository interface {
	// Save persists a new seat pool
	Save(ctx context.Context, pool *SeatPool) error

	// Update persists changes to an existing pool (resize, status moves)
	Update(ctx context.Context, pool *SeatPool) error

	// FindByID retrieves a pool by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*SeatPool, error)

	// FindByOwner retrieves the pool owned by a teacher or institute
	FindByOwner(ctx context.Context, ownerID uuid.UUID) (*SeatPool, error)

	// ConsumeSeat atomically takes one seat from the owner's active pool if
	// capacity remains. Returns false when there is no active pool or the
	// pool is full; used_seats is never written past total_seats.
	ConsumeSeat(ctx context.Context, ownerID uuid.UUID) (bool, error)

	// ReleaseSeat atomically returns one seat to the owner's active pool,
	// floored at 0. Returns false only when no active pool exists.
	ReleaseSeat(ctx context.Context, ownerID uuid.UUID) (bool, error)
}

// PlanOverrideRepository defines the interface for per-principal limit overrides
type PlanOverrideRepository interface {
	// Save persists an override, replacing any existing override for the
	// same principal and feature
	Save(ctx context.Context, override *PlanOverride) error

	// FindByPrincipal retrieves all overrides for a principal
	FindByPrincipal(ctx context.Context, principalID uuid.UUID) ([]*PlanOverride, error)

	// FindByPrincipalAndFeature retrieves a single override
	FindByPrincipalAndFeature(ctx context.Context, principalID uuid.UUID, feature Feature) (*PlanOverride, error)

	// Delete removes an override
	Delete(ctx context.Context, principalID uuid.UUID, feature Feature) error
}
