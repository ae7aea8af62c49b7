package library

import (
	"context"

	"github.com/google/uuid"

	"github.com/studyhall/backend/internal/domain/shared"
)

// BookRepository defines the interface for book persistence
type BookRepository interface {
	// Save creates a new book record
	Save(ctx context.Context, book *Book) error

	// Update updates an existing book record
	Update(ctx context.Context, book *Book) error

	// FindByID finds a book by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Book, error)

	// FindByIDForOwner finds a book by ID, scoped to its owner
	FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*Book, error)

	// FindByOwner finds books owned by an account, excluding deleted ones
	FindByOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]Book, error)

	// FindByStorageKey finds a book by its storage key
	FindByStorageKey(ctx context.Context, storageKey string) (*Book, error)

	// CountLiveByOwner counts the owner's books that occupy upload
	// allowance slots: status is not deleted and the book is not flagged
	// as a public library duplicate. This is the authoritative count used
	// for upload allowance checks.
	CountLiveByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)

	// ExistsByStorageKey checks if a book with the given storage key exists
	ExistsByStorageKey(ctx context.Context, storageKey string) (bool, error)
}
