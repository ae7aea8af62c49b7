package study

import (
	"github.com/google/uuid"

	"github.com/studyhall/backend/internal/domain/shared"
)

// Aggregate type constant for Class
const AggregateTypeClass = "Class"

// Event type constants for Class
const (
	EventTypeClassCreated  = "ClassCreated"
	EventTypeClassUpdated  = "ClassUpdated"
	EventTypeClassArchived = "ClassArchived"
)

// ClassCreatedEvent is published when a new class is created
type ClassCreatedEvent struct {
	shared.BaseDomainEvent
	ClassID uuid.UUID `json:"class_id"`
	OwnerID uuid.UUID `json:"owner_id"`
	Name    string    `json:"name"`
	Subject string    `json:"subject,omitempty"`
}

// NewClassCreatedEvent creates a new ClassCreatedEvent
func NewClassCreatedEvent(class *Class) *ClassCreatedEvent {
	return &ClassCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeClassCreated,
			AggregateTypeClass,
			class.ID,
			uuid.Nil,
		),
		ClassID: class.ID,
		OwnerID: class.OwnerID,
		Name:    class.Name,
		Subject: class.Subject,
	}
}

// ClassUpdatedEvent is published when a class's information changes
type ClassUpdatedEvent struct {
	shared.BaseDomainEvent
	ClassID uuid.UUID `json:"class_id"`
	OwnerID uuid.UUID `json:"owner_id"`
	Name    string    `json:"name"`
}

// NewClassUpdatedEvent creates a new ClassUpdatedEvent
func NewClassUpdatedEvent(class *Class) *ClassUpdatedEvent {
	return &ClassUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeClassUpdated,
			AggregateTypeClass,
			class.ID,
			uuid.Nil,
		),
		ClassID: class.ID,
		OwnerID: class.OwnerID,
		Name:    class.Name,
	}
}

// ClassArchivedEvent is published when a class is archived
type ClassArchivedEvent struct {
	shared.BaseDomainEvent
	ClassID uuid.UUID `json:"class_id"`
	OwnerID uuid.UUID `json:"owner_id"`
	Name    string    `json:"name"`
}

// NewClassArchivedEvent creates a new ClassArchivedEvent
func NewClassArchivedEvent(class *Class) *ClassArchivedEvent {
	return &ClassArchivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeClassArchived,
			AggregateTypeClass,
			class.ID,
			uuid.Nil,
		),
		ClassID: class.ID,
		OwnerID: class.OwnerID,
		Name:    class.Name,
	}
}
