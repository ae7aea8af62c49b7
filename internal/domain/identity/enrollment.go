package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/studyhall/backend/internal/domain/shared"
)

// EnrollmentStatus represents the status of an institute enrollment
type EnrollmentStatus string

const (
	EnrollmentStatusActive  EnrollmentStatus = "active"
	EnrollmentStatusRemoved EnrollmentStatus = "removed"
)

// Enrollment records a student's membership in an institute. Each active
// enrollment holds one seat in the institute's seat pool; removal returns it.
type Enrollment struct {
	shared.InstituteAggregateRoot
	AccountID uuid.UUID `gorm:"type:uuid;not null;index"`
	Status    EnrollmentStatus
	JoinedAt  time.Time
	RemovedAt *time.Time
}

// TableName returns the table name for GORM
func (Enrollment) TableName() string {
	return "enrollments"
}

// NewEnrollment enrolls a student into an institute
func NewEnrollment(instituteID, accountID uuid.UUID) (*Enrollment, error) {
	if instituteID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INSTITUTE_ID", "Institute ID cannot be empty")
	}
	if accountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_ID", "Account ID cannot be empty")
	}

	enrollment := &Enrollment{
		InstituteAggregateRoot: shared.NewInstituteAggregateRoot(instituteID),
		AccountID:              accountID,
		Status:                 EnrollmentStatusActive,
		JoinedAt:               time.Now(),
	}

	enrollment.AddDomainEvent(NewStudentEnrolledEvent(enrollment))

	return enrollment, nil
}

// Remove ends the enrollment, freeing the seat it held
func (e *Enrollment) Remove() error {
	if e.Status == EnrollmentStatusRemoved {
		return shared.NewDomainError("ALREADY_REMOVED", "Enrollment is already removed")
	}

	e.Status = EnrollmentStatusRemoved
	now := time.Now()
	e.RemovedAt = &now
	e.Touch()
	e.IncrementVersion()

	e.AddDomainEvent(NewStudentRemovedEvent(e))

	return nil
}

// IsActive returns true if the enrollment currently holds a seat
func (e *Enrollment) IsActive() bool {
	return e.Status == EnrollmentStatusActive
}
