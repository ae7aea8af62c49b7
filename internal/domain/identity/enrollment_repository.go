package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/studyhall/backend/internal/domain/shared"
)

// EnrollmentRepository defines the interface for persisting and querying
// institute enrollments
type EnrollmentRepository interface {
	// Save persists a new enrollment
	Save(ctx context.Context, enrollment *Enrollment) error

	// Update persists changes to an existing enrollment
	Update(ctx context.Context, enrollment *Enrollment) error

	// FindByID retrieves an enrollment by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Enrollment, error)

	// FindActive retrieves the active enrollment of an account in an institute
	FindActive(ctx context.Context, instituteID, accountID uuid.UUID) (*Enrollment, error)

	// FindByInstitute retrieves enrollments for an institute
	FindByInstitute(ctx context.Context, instituteID uuid.UUID, filter shared.Filter) (shared.Paginated[*Enrollment], error)

	// CountActiveByInstitute counts the seats currently held in an institute
	CountActiveByInstitute(ctx context.Context, instituteID uuid.UUID) (int64, error)

	// FindActiveByAccount retrieves all active enrollments of an account
	FindActiveByAccount(ctx context.Context, accountID uuid.UUID) ([]*Enrollment, error)
}
