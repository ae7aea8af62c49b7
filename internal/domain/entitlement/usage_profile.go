package entitlement

import (
	"time"

	"github.com/google/uuid"

	"github.com/studyhall/backend/internal/domain/shared"
)

// UsageProfile tracks a principal's consumption against its plan.
// Books accumulate over the account's lifetime; quiz and AI counters
// cover the current calendar month and roll over at month boundaries.
// One profile exists per principal, provisioned when the account is created.
type UsageProfile struct {
	shared.BaseAggregateRoot
	PrincipalID      uuid.UUID // Account or institute this profile belongs to (unique)
	Audience         Audience  // Kind of principal, fixes the plan catalog column
	PlanID           string    // Normalized subscription tier
	BooksUploaded    int64     // Lifetime book uploads (cache; live recount is authoritative)
	MonthlyQuizzes   int64     // Quizzes generated this calendar month
	MonthlyAIQueries int64     // AI queries made this calendar month
	LastMonthlyReset time.Time // When the monthly counters last rolled over
}

// NewUsageProfile creates a blank profile for a newly provisioned principal
func NewUsageProfile(principalID uuid.UUID, audience Audience, tier string) (*UsageProfile, error) {
	if principalID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRINCIPAL", "Principal ID cannot be empty")
	}
	if !audience.IsValid() {
		return nil, shared.NewDomainError("INVALID_AUDIENCE", "Invalid audience")
	}
	normalized := NormalizeTier(tier)
	if normalized == "" {
		normalized = FallbackTier(audience)
	}

	profile := &UsageProfile{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PrincipalID:       principalID,
		Audience:          audience,
		PlanID:            normalized,
		LastMonthlyReset:  time.Now(),
	}
	profile.AddDomainEvent(NewUsageProfileProvisionedEvent(profile))
	return profile, nil
}

// MonthStart returns the first instant of t's calendar month in loc.
// A nil loc means UTC.
func MonthStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
}

// RolloverDue returns true if the monthly counters belong to an earlier
// calendar month than now
func (p *UsageProfile) RolloverDue(now time.Time, loc *time.Location) bool {
	return p.LastMonthlyReset.Before(MonthStart(now, loc))
}

// ApplyRollover zeroes the monthly counters and anchors the reset date to now.
// Callers must guard with RolloverDue; the persistence layer enforces the
// same guard as a conditional update so concurrent callers reset at most once.
func (p *UsageProfile) ApplyRollover(now time.Time) {
	p.MonthlyQuizzes = 0
	p.MonthlyAIQueries = 0
	p.LastMonthlyReset = now
	p.Touch()
	p.AddDomainEvent(NewRolloverAppliedEvent(p, now))
}

// SetPlan moves the profile to a different tier
func (p *UsageProfile) SetPlan(tier string) {
	normalized := NormalizeTier(tier)
	if normalized == "" {
		normalized = FallbackTier(p.Audience)
	}
	if normalized == p.PlanID {
		return
	}
	previous := p.PlanID
	p.PlanID = normalized
	p.Touch()
	p.AddDomainEvent(NewPlanChangedEvent(p, previous, normalized))
}

// CounterFor returns the profile's accumulated counter for a feature.
// Live-counted features (classes) have no profile counter and return 0.
func (p *UsageProfile) CounterFor(f Feature) int64 {
	switch f {
	case FeatureBookUpload:
		return p.BooksUploaded
	case FeatureQuizGeneration:
		return p.MonthlyQuizzes
	case FeatureAIQuery:
		return p.MonthlyAIQueries
	default:
		return 0
	}
}

// RecordBookUpload bumps the lifetime book counter
func (p *UsageProfile) RecordBookUpload() {
	p.BooksUploaded++
	p.Touch()
}

// ReleaseBookUpload lowers the lifetime book counter when a book is deleted
// or flagged as a duplicate, floored at 0
func (p *UsageProfile) ReleaseBookUpload() {
	if p.BooksUploaded > 0 {
		p.BooksUploaded--
	}
	p.Touch()
}

// RecordQuizGeneration bumps the monthly quiz counter
func (p *UsageProfile) RecordQuizGeneration() {
	p.MonthlyQuizzes++
	p.Touch()
}

// RecordAIQuery bumps the monthly AI query counter
func (p *UsageProfile) RecordAIQuery() {
	p.MonthlyAIQueries++
	p.Touch()
}
