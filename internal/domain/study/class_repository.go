package study

import (
	"context"

	"github.com/google/uuid"

	"github.com/studyhall/backend/internal/domain/shared"
)

// ClassRepository defines the interface for class persistence
type ClassRepository interface {
	// Save creates a new class
	Save(ctx context.Context, class *Class) error

	// Update updates an existing class
	Update(ctx context.Context, class *Class) error

	// FindByID finds a class by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Class, error)

	// FindByIDForOwner finds a class by ID, scoped to its owner
	FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*Class, error)

	// FindByOwner finds classes owned by a teacher
	FindByOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]Class, error)

	// CountActiveByOwner counts the owner's active (non-archived) classes.
	// This is the authoritative count used for class allowance checks.
	CountActiveByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
}
