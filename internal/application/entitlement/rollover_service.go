package entitlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studyhall/backend/internal/domain/entitlement"
)

// RolloverService applies the monthly counter rollover: an explicit,
// idempotent transition from a stale profile (counters belonging to an
// earlier calendar month) to a current one. It runs inline before monthly
// quota evaluations and from the daily scheduler sweep; both paths share the
// same conditional update, so concurrent callers reset a profile at most
// once per month.
type RolloverService struct {
	profileRepo entitlement.UsageProfileRepository
	location    *time.Location
	batchSize   int
	logger      *zap.Logger
}

// RolloverServiceConfig contains configuration for RolloverService
type RolloverServiceConfig struct {
	// Location is the reference timezone for month boundaries. Nil means UTC.
	Location *time.Location
	// SweepBatchSize is how many stale profiles a sweep batch loads (default 100)
	SweepBatchSize int
}

// NewRolloverService creates a new RolloverService
func NewRolloverService(profileRepo entitlement.UsageProfileRepository, cfg RolloverServiceConfig, logger *zap.Logger) *RolloverService {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	batchSize := cfg.SweepBatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	return &RolloverService{
		profileRepo: profileRepo,
		location:    loc,
		batchSize:   batchSize,
		logger:      logger,
	}
}

// Location returns the timezone used for month boundaries
func (s *RolloverService) Location() *time.Location {
	return s.location
}

// EnsureCurrentMonth guarantees the profile's monthly counters belong to the
// current calendar month, resetting them durably if they are stale. The
// returned profile always reflects the current month; evaluations must not
// proceed when an error is returned, since a skipped rollover under-counts
// the new month's remaining quota.
func (s *RolloverService) EnsureCurrentMonth(ctx context.Context, profile *entitlement.UsageProfile) (*entitlement.UsageProfile, error) {
	now := time.Now()
	if !profile.RolloverDue(now, s.location) {
		return profile, nil
	}

	monthStart := entitlement.MonthStart(now, s.location)
	applied, err := s.profileRepo.ApplyRollover(ctx, profile.PrincipalID, monthStart, now)
	if err != nil {
		return nil, fmt.Errorf("apply monthly rollover: %w", err)
	}

	if applied {
		s.logger.Info("Applied monthly rollover",
			zap.String("principal_id", profile.PrincipalID.String()),
			zap.Time("previous_reset", profile.LastMonthlyReset),
			zap.Time("reset_at", now))
		profile.ApplyRollover(now)
		return profile, nil
	}

	// Another caller won the conditional update between our read and write;
	// re-read so the returned counters are the post-reset ones.
	refreshed, err := s.profileRepo.FindByPrincipal(ctx, profile.PrincipalID)
	if err != nil {
		return nil, fmt.Errorf("reload profile after concurrent rollover: %w", err)
	}
	return refreshed, nil
}

// EnsureCurrentMonthByPrincipal loads the principal's profile and applies the
// rollover if due
func (s *RolloverService) EnsureCurrentMonthByPrincipal(ctx context.Context, principalID uuid.UUID) (*entitlement.UsageProfile, error) {
	profile, err := s.profileRepo.FindByPrincipal(ctx, principalID)
	if err != nil {
		return nil, err
	}
	return s.EnsureCurrentMonth(ctx, profile)
}

// SweepOnce applies the rollover to every profile whose counters are stale,
// paging in batches. Returns how many profiles were reset. Safe to run
// concurrently with inline rollovers: the conditional update makes a profile
// reset at most once per month regardless of who gets there first.
func (s *RolloverService) SweepOnce(ctx context.Context) (int, error) {
	now := time.Now()
	monthStart := entitlement.MonthStart(now, s.location)
	total := 0

	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		stale, err := s.profileRepo.FindRolloverDue(ctx, monthStart, s.batchSize)
		if err != nil {
			return total, fmt.Errorf("find stale profiles: %w", err)
		}
		if len(stale) == 0 {
			return total, nil
		}

		applied := 0
		for _, profile := range stale {
			ok, err := s.profileRepo.ApplyRollover(ctx, profile.PrincipalID, monthStart, now)
			if err != nil {
				s.logger.Error("Sweep failed to roll over profile",
					zap.String("principal_id", profile.PrincipalID.String()),
					zap.Error(err))
				continue
			}
			if ok {
				applied++
				total++
			}
		}

		s.logger.Debug("Rollover sweep batch finished",
			zap.Int("stale", len(stale)),
			zap.Int("applied", applied))

		// A batch where nothing matched can only mean every row was reset
		// concurrently; the next FindRolloverDue call would return the same
		// page forever if we did not stop here.
		if applied == 0 {
			return total, nil
		}
		if len(stale) < s.batchSize {
			return total, nil
		}
	}
}
