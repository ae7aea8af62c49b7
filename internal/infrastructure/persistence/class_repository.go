package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/studyhall/backend/internal/domain/shared"
	"github.com/studyhall/backend/internal/domain/study"
	"gorm.io/gorm"
)

// GormClassRepository implements ClassRepository using GORM
type GormClassRepository struct {
	db *gorm.DB
}

// NewGormClassRepository creates a new GormClassRepository
func NewGormClassRepository(db *gorm.DB) *GormClassRepository {
	return &GormClassRepository{db: db}
}

// Save creates a new class
func (r *GormClassRepository) Save(ctx context.Context, class *study.Class) error {
	return r.db.WithContext(ctx).Create(class).Error
}

// Update updates an existing class
func (r *GormClassRepository) Update(ctx context.Context, class *study.Class) error {
	result := r.db.WithContext(ctx).Save(class)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a class by its ID
func (r *GormClassRepository) FindByID(ctx context.Context, id uuid.UUID) (*study.Class, error) {
	var class study.Class
	if err := r.db.WithContext(ctx).First(&class, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &class, nil
}

// FindByIDForOwner finds a class by ID, scoped to its owner
func (r *GormClassRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*study.Class, error) {
	var class study.Class
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, id).
		First(&class).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &class, nil
}

// FindByOwner finds classes owned by a teacher
func (r *GormClassRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]study.Class, error) {
	query := r.db.WithContext(ctx).
		Model(&study.Class{}).
		Where("owner_id = ?", ownerID)

	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR subject ILIKE ?", searchPattern, searchPattern)
	}

	sortBy := ValidateSortField(filter.OrderBy, ClassSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(sortBy + " " + sortOrder)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var classes []study.Class
	if err := query.Find(&classes).Error; err != nil {
		return nil, err
	}
	return classes, nil
}

// CountActiveByOwner counts the owner's active classes. Archived classes
// do not hold an allowance slot.
func (r *GormClassRepository) CountActiveByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&study.Class{}).
		Where("owner_id = ? AND status = ?", ownerID, study.ClassStatusActive).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormClassRepository implements ClassRepository
var _ study.ClassRepository = (*GormClassRepository)(nil)
