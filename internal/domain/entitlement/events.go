package entitlement

import (
	"time"

	"github.com/google/uuid"

	"github.com/studyhall/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeUsageProfile = "UsageProfile"
	AggregateTypeSeatPool     = "SeatPool"
)

// Event type constants
const (
	EventTypeUsageProfileProvisioned = "UsageProfileProvisioned"
	EventTypeMonthlyRolloverApplied  = "MonthlyRolloverApplied"
	EventTypeUsagePlanChanged        = "UsagePlanChanged"
	EventTypeUsageRecorded           = "UsageRecorded"
	EventTypeEntitlementDenied       = "EntitlementDenied"
	EventTypeSeatPoolProvisioned     = "SeatPoolProvisioned"
	EventTypeSeatPoolDeactivated     = "SeatPoolDeactivated"
	EventTypeSeatConsumed            = "SeatConsumed"
	EventTypeSeatReleased            = "SeatReleased"
)

// UsageProfileProvisionedEvent is published when a blank profile is created
// for a new principal
type UsageProfileProvisionedEvent struct {
	shared.BaseDomainEvent
	PrincipalID uuid.UUID `json:"principal_id"`
	Audience    Audience  `json:"audience"`
	PlanID      string    `json:"plan_id"`
}

// NewUsageProfileProvisionedEvent creates a new UsageProfileProvisionedEvent
func NewUsageProfileProvisionedEvent(profile *UsageProfile) *UsageProfileProvisionedEvent {
	return &UsageProfileProvisionedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUsageProfileProvisioned, AggregateTypeUsageProfile, profile.ID, uuid.Nil),
		PrincipalID:     profile.PrincipalID,
		Audience:        profile.Audience,
		PlanID:          profile.PlanID,
	}
}

// MonthlyRolloverAppliedEvent is published when a profile's monthly counters
// roll over into a new calendar month
type MonthlyRolloverAppliedEvent struct {
	shared.BaseDomainEvent
	PrincipalID uuid.UUID `json:"principal_id"`
	ResetAt     time.Time `json:"reset_at"`
}

// NewRolloverAppliedEvent creates a new MonthlyRolloverAppliedEvent
func NewRolloverAppliedEvent(profile *UsageProfile, resetAt time.Time) *MonthlyRolloverAppliedEvent {
	return &MonthlyRolloverAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMonthlyRolloverApplied, AggregateTypeUsageProfile, profile.ID, uuid.Nil),
		PrincipalID:     profile.PrincipalID,
		ResetAt:         resetAt,
	}
}

// UsagePlanChangedEvent is published when a profile moves to a different tier
type UsagePlanChangedEvent struct {
	shared.BaseDomainEvent
	PrincipalID uuid.UUID `json:"principal_id"`
	OldPlan     string    `json:"old_plan"`
	NewPlan     string    `json:"new_plan"`
}

// NewPlanChangedEvent creates a new UsagePlanChangedEvent
func NewPlanChangedEvent(profile *UsageProfile, oldPlan, newPlan string) *UsagePlanChangedEvent {
	return &UsagePlanChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUsagePlanChanged, AggregateTypeUsageProfile, profile.ID, uuid.Nil),
		PrincipalID:     profile.PrincipalID,
		OldPlan:         oldPlan,
		NewPlan:         newPlan,
	}
}

// UsageRecordedEvent is published after a gated action's usage increment lands
type UsageRecordedEvent struct {
	shared.BaseDomainEvent
	PrincipalID uuid.UUID `json:"principal_id"`
	Feature     Feature   `json:"feature"`
}

// NewUsageRecordedEvent creates a new UsageRecordedEvent
func NewUsageRecordedEvent(principalID uuid.UUID, feature Feature) *UsageRecordedEvent {
	return &UsageRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUsageRecorded, AggregateTypeUsageProfile, principalID, uuid.Nil),
		PrincipalID:     principalID,
		Feature:         feature,
	}
}

// EntitlementDeniedEvent is published when a check refuses a gated action,
// feeding audit trails and business metrics
type EntitlementDeniedEvent struct {
	shared.BaseDomainEvent
	PrincipalID  uuid.UUID `json:"principal_id"`
	Feature      Feature   `json:"feature"`
	Reason       string    `json:"reason"`
	LimitReached bool      `json:"limit_reached"`
	CurrentUsage int64     `json:"current_usage"`
	Limit        Limit     `json:"limit"`
}

// NewEntitlementDeniedEvent creates a new EntitlementDeniedEvent
func NewEntitlementDeniedEvent(principalID uuid.UUID, decision Decision) *EntitlementDeniedEvent {
	return &EntitlementDeniedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEntitlementDenied, AggregateTypeUsageProfile, principalID, uuid.Nil),
		PrincipalID:     principalID,
		Feature:         decision.Feature,
		Reason:          decision.Reason,
		LimitReached:    decision.LimitReached,
		CurrentUsage:    decision.CurrentUsage,
		Limit:           decision.Limit,
	}
}

// SeatPoolProvisionedEvent is published when a subscription provisions seats
type SeatPoolProvisionedEvent struct {
	shared.BaseDomainEvent
	OwnerID    uuid.UUID `json:"owner_id"`
	TotalSeats Limit     `json:"total_seats"`
}

// NewSeatPoolProvisionedEvent creates a new SeatPoolProvisionedEvent
func NewSeatPoolProvisionedEvent(pool *SeatPool) *SeatPoolProvisionedEvent {
	return &SeatPoolProvisionedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSeatPoolProvisioned, AggregateTypeSeatPool, pool.ID, pool.OwnerID),
		OwnerID:         pool.OwnerID,
		TotalSeats:      pool.TotalSeats,
	}
}

// SeatPoolDeactivatedEvent is published when the owning subscription lapses
type SeatPoolDeactivatedEvent struct {
	shared.BaseDomainEvent
	OwnerID   uuid.UUID `json:"owner_id"`
	UsedSeats int64     `json:"used_seats"`
}

// NewSeatPoolDeactivatedEvent creates a new SeatPoolDeactivatedEvent
func NewSeatPoolDeactivatedEvent(pool *SeatPool) *SeatPoolDeactivatedEvent {
	return &SeatPoolDeactivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSeatPoolDeactivated, AggregateTypeSeatPool, pool.ID, pool.OwnerID),
		OwnerID:         pool.OwnerID,
		UsedSeats:       pool.UsedSeats,
	}
}

// SeatConsumedEvent is published when an enrollment takes a seat
type SeatConsumedEvent struct {
	shared.BaseDomainEvent
	OwnerID    uuid.UUID `json:"owner_id"`
	UsedSeats  int64     `json:"used_seats"`
	TotalSeats Limit     `json:"total_seats"`
}

// NewSeatConsumedEvent creates a new SeatConsumedEvent
func NewSeatConsumedEvent(pool *SeatPool) *SeatConsumedEvent {
	return &SeatConsumedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSeatConsumed, AggregateTypeSeatPool, pool.ID, pool.OwnerID),
		OwnerID:         pool.OwnerID,
		UsedSeats:       pool.UsedSeats,
		TotalSeats:      pool.TotalSeats,
	}
}

// SeatReleasedEvent is published when a departure returns a seat
type SeatReleasedEvent struct {
	shared.BaseDomainEvent
	OwnerID    uuid.UUID `json:"owner_id"`
	UsedSeats  int64     `json:"used_seats"`
	TotalSeats Limit     `json:"total_seats"`
}

// NewSeatReleasedEvent creates a new SeatReleasedEvent
func NewSeatReleasedEvent(pool *SeatPool) *SeatReleasedEvent {
	return &SeatReleasedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSeatReleased, AggregateTypeSeatPool, pool.ID, pool.OwnerID),
		OwnerID:         pool.OwnerID,
		UsedSeats:       pool.UsedSeats,
		TotalSeats:      pool.TotalSeats,
	}
}
