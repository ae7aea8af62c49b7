package study

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/studyhall/backend/internal/domain/shared"
)

// QuizRepository defines the interface for quiz persistence
type QuizRepository interface {
	// Save creates a new quiz
	Save(ctx context.Context, quiz *Quiz) error

	// Update updates an existing quiz
	Update(ctx context.Context, quiz *Quiz) error

	// FindByID finds a quiz by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Quiz, error)

	// FindByIDForOwner finds a quiz by ID, scoped to its owner
	FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*Quiz, error)

	// FindByOwner finds quizzes owned by an account
	FindByOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]Quiz, error)

	// FindByBook finds quizzes generated from a book
	FindByBook(ctx context.Context, ownerID, bookID uuid.UUID, filter shared.Filter) ([]Quiz, error)

	// CountByOwnerSince counts quizzes created by an owner since the given
	// time (used for usage reporting)
	CountByOwnerSince(ctx context.Context, ownerID uuid.UUID, since time.Time) (int64, error)
}
