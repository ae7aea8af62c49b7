package identity

import (
	"github.com/google/uuid"

	"github.com/studyhall/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeEnrollment = "Enrollment"

// Event type constants
const (
	EventTypeStudentEnrolled = "StudentEnrolled"
	EventTypeStudentRemoved  = "StudentRemoved"
)

// StudentEnrolledEvent is published when a student joins an institute
type StudentEnrolledEvent struct {
	shared.BaseDomainEvent
	AccountID uuid.UUID `json:"account_id"`
}

// NewStudentEnrolledEvent creates a new StudentEnrolledEvent
func NewStudentEnrolledEvent(enrollment *Enrollment) *StudentEnrolledEvent {
	return &StudentEnrolledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStudentEnrolled, AggregateTypeEnrollment, enrollment.ID, enrollment.InstituteID),
		AccountID:       enrollment.AccountID,
	}
}

// StudentRemovedEvent is published when a student leaves an institute
type StudentRemovedEvent struct {
	shared.BaseDomainEvent
	AccountID uuid.UUID `json:"account_id"`
}

// NewStudentRemovedEvent creates a new StudentRemovedEvent
func NewStudentRemovedEvent(enrollment *Enrollment) *StudentRemovedEvent {
	return &StudentRemovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStudentRemoved, AggregateTypeEnrollment, enrollment.ID, enrollment.InstituteID),
		AccountID:       enrollment.AccountID,
	}
}
