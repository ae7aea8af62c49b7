package identity

import (
	"github.com/studyhall/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeInstitute = "Institute"

// Event type constants
const (
	EventTypeInstituteCreated       = "InstituteCreated"
	EventTypeInstituteUpdated       = "InstituteUpdated"
	EventTypeInstituteStatusChanged = "InstituteStatusChanged"
	EventTypeInstituteTierChanged   = "InstituteTierChanged"
)

// InstituteCreatedEvent is published when a new institute is created.
// The entitlement context consumes it to provision the institute's usage
// profile.
type InstituteCreatedEvent struct {
	shared.BaseDomainEvent
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Status InstituteStatus `json:"status"`
	Tier   string          `json:"tier"`
}

// NewInstituteCreatedEvent creates a new InstituteCreatedEvent
func NewInstituteCreatedEvent(institute *Institute) *InstituteCreatedEvent {
	return &InstituteCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInstituteCreated, AggregateTypeInstitute, institute.ID, institute.ID),
		Code:            institute.Code,
		Name:            institute.Name,
		Status:          institute.Status,
		Tier:            institute.Tier,
	}
}

// InstituteUpdatedEvent is published when an institute is updated
type InstituteUpdatedEvent struct {
	shared.BaseDomainEvent
	Code string `json:"code"`
	Name string `json:"name"`
}

// NewInstituteUpdatedEvent creates a new InstituteUpdatedEvent
func NewInstituteUpdatedEvent(institute *Institute) *InstituteUpdatedEvent {
	return &InstituteUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInstituteUpdated, AggregateTypeInstitute, institute.ID, institute.ID),
		Code:            institute.Code,
		Name:            institute.Name,
	}
}

// InstituteStatusChangedEvent is published when an institute's status changes
type InstituteStatusChangedEvent struct {
	shared.BaseDomainEvent
	Code      string          `json:"code"`
	OldStatus InstituteStatus `json:"old_status"`
	NewStatus InstituteStatus `json:"new_status"`
}

// NewInstituteStatusChangedEvent creates a new InstituteStatusChangedEvent
func NewInstituteStatusChangedEvent(institute *Institute, oldStatus, newStatus InstituteStatus) *InstituteStatusChangedEvent {
	return &InstituteStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInstituteStatusChanged, AggregateTypeInstitute, institute.ID, institute.ID),
		Code:            institute.Code,
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
	}
}

// InstituteTierChangedEvent is published when an institute's subscription
// tier changes. The entitlement context consumes it to move the usage
// profile's plan.
type InstituteTierChangedEvent struct {
	shared.BaseDomainEvent
	Code    string `json:"code"`
	OldTier string `json:"old_tier"`
	NewTier string `json:"new_tier"`
}

// NewInstituteTierChangedEvent creates a new InstituteTierChangedEvent
func NewInstituteTierChangedEvent(institute *Institute, oldTier, newTier string) *InstituteTierChangedEvent {
	return &InstituteTierChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInstituteTierChanged, AggregateTypeInstitute, institute.ID, institute.ID),
		Code:            institute.Code,
		OldTier:         oldTier,
		NewTier:         newTier,
	}
}
