package entitlement

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studyhall/backend/internal/domain/entitlement"
	"github.com/studyhall/backend/internal/domain/shared"
)

// UsageRecorder performs the durable counter increments after a gated action
// has already succeeded. Recording is fail-open: the action cannot be undone
// by refusing to count it, so a failed increment is logged and reported as
// false, never raised to the user-facing flow.
//
// Every increment is a single atomic UPDATE; concurrent requests by the same
// principal cannot lose counts.
type UsageRecorder struct {
	profileRepo entitlement.UsageProfileRepository
	eventBus    shared.EventPublisher
	logger      *zap.Logger
}

// NewUsageRecorder creates a new UsageRecorder
func NewUsageRecorder(profileRepo entitlement.UsageProfileRepository, eventBus shared.EventPublisher, logger *zap.Logger) *UsageRecorder {
	return &UsageRecorder{
		profileRepo: profileRepo,
		eventBus:    eventBus,
		logger:      logger,
	}
}

// RecordBookUpload bumps the lifetime book counter by one
func (r *UsageRecorder) RecordBookUpload(ctx context.Context, principalID uuid.UUID) bool {
	return r.record(ctx, principalID, entitlement.FeatureBookUpload)
}

// RecordQuizGeneration bumps the monthly quiz counter by one
func (r *UsageRecorder) RecordQuizGeneration(ctx context.Context, principalID uuid.UUID) bool {
	return r.record(ctx, principalID, entitlement.FeatureQuizGeneration)
}

// RecordAIQuery bumps the monthly AI query counter by one
func (r *UsageRecorder) RecordAIQuery(ctx context.Context, principalID uuid.UUID) bool {
	return r.record(ctx, principalID, entitlement.FeatureAIQuery)
}

// Record bumps the counter backing the feature by one. Live-counted features
// without a profile counter report success without writing anything.
func (r *UsageRecorder) Record(ctx context.Context, principalID uuid.UUID, feature entitlement.Feature) bool {
	if feature == entitlement.FeatureClassCreation {
		// Classes are live-counted; there is no counter to move.
		return true
	}
	return r.record(ctx, principalID, feature)
}

// ReleaseBookSlot lowers the cached lifetime book counter when a book stops
// occupying an allowance slot (deletion or duplicate flagging), floored at 0.
// The live recount remains authoritative; keeping the cache close just makes
// the fallback path honest.
func (r *UsageRecorder) ReleaseBookSlot(ctx context.Context, principalID uuid.UUID) bool {
	if err := r.profileRepo.DecrementBooks(ctx, principalID); err != nil {
		r.logger.Error("Failed to release book allowance slot",
			zap.String("principal_id", principalID.String()),
			zap.Error(err))
		return false
	}
	return true
}

func (r *UsageRecorder) record(ctx context.Context, principalID uuid.UUID, feature entitlement.Feature) bool {
	if err := r.profileRepo.IncrementCounter(ctx, principalID, feature); err != nil {
		r.logger.Error("Failed to record usage, action already completed",
			zap.String("principal_id", principalID.String()),
			zap.String("feature", feature.String()),
			zap.Error(err))
		return false
	}

	if r.eventBus != nil {
		if err := r.eventBus.Publish(ctx, entitlement.NewUsageRecordedEvent(principalID, feature)); err != nil {
			r.logger.Warn("Failed to publish usage recorded event", zap.Error(err))
		}
	}
	return true
}
