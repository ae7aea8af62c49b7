package entitlement

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studyhall/backend/internal/domain/entitlement"
	"github.com/studyhall/backend/internal/domain/shared"
)

// LimitReachedError is returned by gated-action services when an entitlement
// check refuses the action. It carries the full decision so the HTTP layer
// can render "X of Y used" alongside the denial.
type LimitReachedError struct {
	Decision entitlement.Decision
}

// Error implements the error interface
func (e *LimitReachedError) Error() string {
	return e.Decision.Reason
}

// HTTPStatusCode returns the HTTP status code for this error
func (e *LimitReachedError) HTTPStatusCode() int {
	return http.StatusForbidden
}

// NewLimitReachedError wraps a denial decision into an error
func NewLimitReachedError(decision entitlement.Decision) *LimitReachedError {
	return &LimitReachedError{Decision: decision}
}

// BookCounter is the slice of the library context the evaluator needs: the
// authoritative live count of books occupying upload allowance slots.
type BookCounter interface {
	CountLiveByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
}

// ClassCounter is the slice of the study context the evaluator needs: the
// live count of active classes owned by a teacher.
type ClassCounter interface {
	CountActiveByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
}

// EntitlementService answers "can principal X do action Y?" for every gated
// action on the platform. Checks fail closed: when the usage profile or a
// counter cannot be read, the action is denied with a reason rather than
// silently allowed.
type EntitlementService struct {
	profileRepo  entitlement.UsageProfileRepository
	overrideRepo entitlement.PlanOverrideRepository
	seatPoolRepo entitlement.SeatPoolRepository
	books        BookCounter
	classes      ClassCounter
	catalog      *entitlement.Catalog
	rollover     *RolloverService
	eventBus     shared.EventPublisher
	logger       *zap.Logger
}

// NewEntitlementService creates a new EntitlementService
func NewEntitlementService(
	profileRepo entitlement.UsageProfileRepository,
	overrideRepo entitlement.PlanOverrideRepository,
	seatPoolRepo entitlement.SeatPoolRepository,
	books BookCounter,
	classes ClassCounter,
	catalog *entitlement.Catalog,
	rollover *RolloverService,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *EntitlementService {
	return &EntitlementService{
		profileRepo:  profileRepo,
		overrideRepo: overrideRepo,
		seatPoolRepo: seatPoolRepo,
		books:        books,
		classes:      classes,
		catalog:      catalog,
		rollover:     rollover,
		eventBus:     eventBus,
		logger:       logger,
	}
}

// Check dispatches to the evaluator for the named feature
func (s *EntitlementService) Check(ctx context.Context, principalID uuid.UUID, feature entitlement.Feature) entitlement.Decision {
	switch feature {
	case entitlement.FeatureBookUpload:
		return s.CanUploadBook(ctx, principalID)
	case entitlement.FeatureQuizGeneration:
		return s.CanGenerateQuiz(ctx, principalID)
	case entitlement.FeatureAIQuery:
		return s.CanMakeAIQuery(ctx, principalID)
	case entitlement.FeatureClassCreation:
		return s.CanCreateClass(ctx, principalID)
	default:
		return entitlement.Deny(feature, "unknown feature", 0, entitlement.Limited(0))
	}
}

// CanUploadBook evaluates the lifetime book upload allowance. The current
// usage is a live recount of stored books excluding public library
// duplicates; the cached profile counter is only trusted when the recount
// itself fails.
func (s *EntitlementService) CanUploadBook(ctx context.Context, principalID uuid.UUID) entitlement.Decision {
	profile, denied := s.loadProfile(ctx, principalID, entitlement.FeatureBookUpload)
	if denied != nil {
		return *denied
	}

	limit := s.effectiveLimit(ctx, profile, entitlement.FeatureBookUpload)
	current := s.liveBookCount(ctx, profile)

	return s.decide(ctx, principalID, entitlement.FeatureBookUpload, current, limit)
}

// CanGenerateQuiz evaluates the monthly quiz generation allowance. The
// rollover runs first so a stale counter from last month never denies (or
// inflates) the new month.
func (s *EntitlementService) CanGenerateQuiz(ctx context.Context, principalID uuid.UUID) entitlement.Decision {
	return s.checkMonthly(ctx, principalID, entitlement.FeatureQuizGeneration)
}

// CanMakeAIQuery evaluates the monthly AI query allowance
func (s *EntitlementService) CanMakeAIQuery(ctx context.Context, principalID uuid.UUID) entitlement.Decision {
	return s.checkMonthly(ctx, principalID, entitlement.FeatureAIQuery)
}

// CanCreateClass evaluates the class creation allowance. Only teachers can
// create classes; everyone else is denied regardless of counters. The
// current usage is a live count of the teacher's active classes.
func (s *EntitlementService) CanCreateClass(ctx context.Context, principalID uuid.UUID) entitlement.Decision {
	profile, denied := s.loadProfile(ctx, principalID, entitlement.FeatureClassCreation)
	if denied != nil {
		return *denied
	}

	if profile.Audience != entitlement.AudienceTeacher {
		decision := entitlement.Deny(entitlement.FeatureClassCreation, entitlement.ReasonOnlyTeachers, 0, entitlement.Limited(0))
		s.publishDenial(ctx, principalID, decision)
		return decision
	}

	limit := s.effectiveLimit(ctx, profile, entitlement.FeatureClassCreation)

	current, err := s.classes.CountActiveByOwner(ctx, principalID)
	if err != nil {
		s.logger.Error("Failed to count active classes, denying",
			zap.String("principal_id", principalID.String()),
			zap.Error(err))
		decision := entitlement.Deny(entitlement.FeatureClassCreation, entitlement.ReasonProfileUnavailable, 0, limit)
		s.publishDenial(ctx, principalID, decision)
		return decision
	}

	return s.decide(ctx, principalID, entitlement.FeatureClassCreation, current, limit)
}

// CanAddStudentToInstitute evaluates seat availability in the institute's
// pool. A missing or inactive pool denies with its own reason, distinct from
// an exhausted one.
func (s *EntitlementService) CanAddStudentToInstitute(ctx context.Context, instituteID uuid.UUID) entitlement.SeatDecision {
	pool, err := s.seatPoolRepo.FindByOwner(ctx, instituteID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Error("Failed to read seat pool, denying",
				zap.String("institute_id", instituteID.String()),
				zap.Error(err))
		}
		return entitlement.DenyNoSubscription()
	}
	if !pool.IsActive() {
		return entitlement.DenyNoSubscription()
	}

	if pool.HasCapacity() {
		return entitlement.AllowSeat(pool)
	}
	return entitlement.DenySeatsExhausted(pool)
}

// FeatureUsage is one row of an entitlement summary
type FeatureUsage struct {
	Feature     entitlement.Feature
	Current     int64
	Limit       entitlement.Limit
	Remaining   int64 // 0 when unlimited; check Limit.IsUnlimited
	ResetPeriod entitlement.ResetPeriod
}

// Summary reports every feature's standing for a principal: the dashboard's
// "X of Y used this month" source. Live-counted features are recounted; the
// rollover runs first so monthly numbers are current.
func (s *EntitlementService) Summary(ctx context.Context, principalID uuid.UUID) (entitlement.Audience, string, []FeatureUsage, error) {
	profile, err := s.rollover.EnsureCurrentMonthByPrincipal(ctx, principalID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", "", nil, shared.ErrNotFound
		}
		return "", "", nil, fmt.Errorf("load usage profile: %w", err)
	}

	limits := s.effectiveLimits(ctx, profile)

	usages := make([]FeatureUsage, 0, len(entitlement.AllFeatures()))
	for _, feature := range entitlement.AllFeatures() {
		current := profile.CounterFor(feature)
		switch feature {
		case entitlement.FeatureBookUpload:
			current = s.liveBookCount(ctx, profile)
		case entitlement.FeatureClassCreation:
			if profile.Audience == entitlement.AudienceTeacher {
				if n, err := s.classes.CountActiveByOwner(ctx, principalID); err == nil {
					current = n
				} else {
					s.logger.Warn("Failed to count classes for summary", zap.Error(err))
				}
			}
		}

		limit := limits[feature]
		remaining, _ := limit.Remaining(current)
		usages = append(usages, FeatureUsage{
			Feature:     feature,
			Current:     current,
			Limit:       limit,
			Remaining:   remaining,
			ResetPeriod: feature.ResetPeriod(),
		})
	}

	return profile.Audience, profile.PlanID, usages, nil
}

// checkMonthly is the shared path for quiz generation and AI queries
func (s *EntitlementService) checkMonthly(ctx context.Context, principalID uuid.UUID, feature entitlement.Feature) entitlement.Decision {
	profile, denied := s.loadProfile(ctx, principalID, feature)
	if denied != nil {
		return *denied
	}

	profile, err := s.rollover.EnsureCurrentMonth(ctx, profile)
	if err != nil {
		// The rollover must complete before evaluation: a stale counter
		// would under-count the new month's remaining quota.
		s.logger.Error("Monthly rollover failed, denying",
			zap.String("principal_id", principalID.String()),
			zap.String("feature", feature.String()),
			zap.Error(err))
		decision := entitlement.Deny(feature, entitlement.ReasonProfileUnavailable, 0, entitlement.Limited(0))
		s.publishDenial(ctx, principalID, decision)
		return decision
	}

	limit := s.effectiveLimit(ctx, profile, feature)
	return s.decide(ctx, principalID, feature, profile.CounterFor(feature), limit)
}

// loadProfile reads the principal's profile, converting any failure into a
// deny decision. A missing profile means the principal was never onboarded;
// gated actions are refused rather than crashing.
func (s *EntitlementService) loadProfile(ctx context.Context, principalID uuid.UUID, feature entitlement.Feature) (*entitlement.UsageProfile, *entitlement.Decision) {
	if principalID == uuid.Nil {
		decision := entitlement.Deny(feature, entitlement.ReasonProfileUnavailable, 0, entitlement.Limited(0))
		return nil, &decision
	}

	profile, err := s.profileRepo.FindByPrincipal(ctx, principalID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Error("Failed to load usage profile, denying",
				zap.String("principal_id", principalID.String()),
				zap.Error(err))
		}
		decision := entitlement.Deny(feature, entitlement.ReasonProfileUnavailable, 0, entitlement.Limited(0))
		s.publishDenial(ctx, principalID, decision)
		return nil, &decision
	}
	return profile, nil
}

// liveBookCount recounts the principal's allowance-occupying books. The
// cached lifetime counter can drift from reality (deletions, duplicate
// corrections), so the recount is primary and the cache is the fallback.
func (s *EntitlementService) liveBookCount(ctx context.Context, profile *entitlement.UsageProfile) int64 {
	count, err := s.books.CountLiveByOwner(ctx, profile.PrincipalID)
	if err != nil {
		s.logger.Warn("Live book recount failed, falling back to cached counter",
			zap.String("principal_id", profile.PrincipalID.String()),
			zap.Int64("cached", profile.BooksUploaded),
			zap.Error(err))
		return profile.BooksUploaded
	}
	if count != profile.BooksUploaded {
		s.logger.Debug("Cached book counter drifted from live count",
			zap.String("principal_id", profile.PrincipalID.String()),
			zap.Int64("cached", profile.BooksUploaded),
			zap.Int64("live", count))
	}
	return count
}

// effectiveLimit resolves one feature's bound: plan catalog merged with any
// admin override for the principal
func (s *EntitlementService) effectiveLimit(ctx context.Context, profile *entitlement.UsageProfile, feature entitlement.Feature) entitlement.Limit {
	return s.effectiveLimits(ctx, profile)[feature]
}

func (s *EntitlementService) effectiveLimits(ctx context.Context, profile *entitlement.UsageProfile) map[entitlement.Feature]entitlement.Limit {
	plan := s.catalog.Resolve(profile.Audience, profile.PlanID)

	overrides, err := s.overrideRepo.FindByPrincipal(ctx, profile.PrincipalID)
	if err != nil {
		// Overrides are a refinement; the plan alone is a safe answer.
		s.logger.Warn("Failed to load plan overrides, using plan limits",
			zap.String("principal_id", profile.PrincipalID.String()),
			zap.Error(err))
		overrides = nil
	}
	return entitlement.MergeOverrides(plan, overrides)
}

func (s *EntitlementService) decide(ctx context.Context, principalID uuid.UUID, feature entitlement.Feature, current int64, limit entitlement.Limit) entitlement.Decision {
	if limit.Reached(current) {
		decision := entitlement.DenyLimitReached(feature, current, limit)
		s.publishDenial(ctx, principalID, decision)
		return decision
	}
	return entitlement.Allow(feature, current, limit)
}

func (s *EntitlementService) publishDenial(ctx context.Context, principalID uuid.UUID, decision entitlement.Decision) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, entitlement.NewEntitlementDeniedEvent(principalID, decision)); err != nil {
		s.logger.Warn("Failed to publish entitlement denial event", zap.Error(err))
	}
}
