package event

import (
	"github.com/studyhall/backend/internal/domain/entitlement"
	"github.com/studyhall/backend/internal/domain/identity"
	"github.com/studyhall/backend/internal/domain/library"
	"github.com/studyhall/backend/internal/domain/study"
)

// RegisterAllEvents registers all domain event types with the serializer
// This is required for the OutboxProcessor to deserialize events from the outbox table
func RegisterAllEvents(serializer *EventSerializer) {
	// Identity domain - Account events
	serializer.Register(identity.EventTypeAccountCreated, &identity.AccountCreatedEvent{})
	serializer.Register(identity.EventTypeAccountStatusChanged, &identity.AccountStatusChangedEvent{})
	serializer.Register(identity.EventTypeAccountTierChanged, &identity.AccountTierChangedEvent{})
	serializer.Register(identity.EventTypeAccountPasswordChanged, &identity.AccountPasswordChangedEvent{})

	// Identity domain - Institute events
	serializer.Register(identity.EventTypeInstituteCreated, &identity.InstituteCreatedEvent{})
	serializer.Register(identity.EventTypeInstituteUpdated, &identity.InstituteUpdatedEvent{})
	serializer.Register(identity.EventTypeInstituteStatusChanged, &identity.InstituteStatusChangedEvent{})
	serializer.Register(identity.EventTypeInstituteTierChanged, &identity.InstituteTierChangedEvent{})

	// Identity domain - Enrollment events
	serializer.Register(identity.EventTypeStudentEnrolled, &identity.StudentEnrolledEvent{})
	serializer.Register(identity.EventTypeStudentRemoved, &identity.StudentRemovedEvent{})

	// Entitlement domain - usage profile events
	serializer.Register(entitlement.EventTypeUsageProfileProvisioned, &entitlement.UsageProfileProvisionedEvent{})
	serializer.Register(entitlement.EventTypeMonthlyRolloverApplied, &entitlement.MonthlyRolloverAppliedEvent{})
	serializer.Register(entitlement.EventTypeUsagePlanChanged, &entitlement.UsagePlanChangedEvent{})
	serializer.Register(entitlement.EventTypeUsageRecorded, &entitlement.UsageRecordedEvent{})
	serializer.Register(entitlement.EventTypeEntitlementDenied, &entitlement.EntitlementDeniedEvent{})

	// Entitlement domain - seat pool events
	serializer.Register(entitlement.EventTypeSeatPoolProvisioned, &entitlement.SeatPoolProvisionedEvent{})
	serializer.Register(entitlement.EventTypeSeatPoolDeactivated, &entitlement.SeatPoolDeactivatedEvent{})
	serializer.Register(entitlement.EventTypeSeatConsumed, &entitlement.SeatConsumedEvent{})
	serializer.Register(entitlement.EventTypeSeatReleased, &entitlement.SeatReleasedEvent{})

	// Library domain events
	serializer.Register(library.EventTypeBookCreated, &library.BookCreatedEvent{})
	serializer.Register(library.EventTypeBookUploadCompleted, &library.BookUploadCompletedEvent{})
	serializer.Register(library.EventTypeBookFlaggedDuplicate, &library.BookFlaggedDuplicateEvent{})
	serializer.Register(library.EventTypeBookDeleted, &library.BookDeletedEvent{})

	// Study domain events
	serializer.Register(study.EventTypeQuizRequested, &study.QuizRequestedEvent{})
	serializer.Register(study.EventTypeQuizGenerated, &study.QuizGeneratedEvent{})
	serializer.Register(study.EventTypeQuizGenerationFailed, &study.QuizGenerationFailedEvent{})
	serializer.Register(study.EventTypeClassCreated, &study.ClassCreatedEvent{})
	serializer.Register(study.EventTypeClassUpdated, &study.ClassUpdatedEvent{})
	serializer.Register(study.EventTypeClassArchived, &study.ClassArchivedEvent{})
}
