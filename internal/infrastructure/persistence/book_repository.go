package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/studyhall/backend/internal/domain/library"
	"github.com/studyhall/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormBookRepository implements BookRepository using GORM
type GormBookRepository struct {
	db *gorm.DB
}

// NewGormBookRepository creates a new GormBookRepository
func NewGormBookRepository(db *gorm.DB) *GormBookRepository {
	return &GormBookRepository{db: db}
}

// Save creates a new book record
func (r *GormBookRepository) Save(ctx context.Context, book *library.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

// Update updates an existing book record
func (r *GormBookRepository) Update(ctx context.Context, book *library.Book) error {
	result := r.db.WithContext(ctx).Save(book)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a book by its ID
func (r *GormBookRepository) FindByID(ctx context.Context, id uuid.UUID) (*library.Book, error) {
	var book library.Book
	if err := r.db.WithContext(ctx).First(&book, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &book, nil
}

// FindByIDForOwner finds a book by ID, scoped to its owner
func (r *GormBookRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*library.Book, error) {
	var book library.Book
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, id).
		First(&book).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &book, nil
}

// FindByOwner finds books owned by an account, excluding deleted ones
func (r *GormBookRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]library.Book, error) {
	query := r.db.WithContext(ctx).
		Model(&library.Book{}).
		Where("owner_id = ? AND status <> ?", ownerID, library.BookStatusDeleted)

	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR file_name ILIKE ?", searchPattern, searchPattern)
	}

	sortBy := ValidateSortField(filter.OrderBy, BookSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(sortBy + " " + sortOrder)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var books []library.Book
	if err := query.Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

// FindByStorageKey finds a book by its storage key
func (r *GormBookRepository) FindByStorageKey(ctx context.Context, storageKey string) (*library.Book, error) {
	if storageKey == "" {
		return nil, shared.ErrNotFound
	}
	var book library.Book
	if err := r.db.WithContext(ctx).
		Where("storage_key = ?", storageKey).
		First(&book).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &book, nil
}

// CountLiveByOwner counts the owner's books that occupy upload allowance
// slots. Deleted books and public-library duplicates do not count.
func (r *GormBookRepository) CountLiveByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&library.Book{}).
		Where("owner_id = ? AND status <> ? AND duplicate_of_public_library = ?",
			ownerID, library.BookStatusDeleted, false).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByStorageKey checks if a book with the given storage key exists
func (r *GormBookRepository) ExistsByStorageKey(ctx context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&library.Book{}).
		Where("storage_key = ?", storageKey).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormBookRepository implements BookRepository
var _ library.BookRepository = (*GormBookRepository)(nil)
