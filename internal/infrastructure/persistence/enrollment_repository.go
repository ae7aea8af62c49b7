package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/studyhall/backend/internal/domain/identity"
	"github.com/studyhall/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormEnrollmentRepository implements EnrollmentRepository using GORM
type GormEnrollmentRepository struct {
	db *gorm.DB
}

// NewGormEnrollmentRepository creates a new GormEnrollmentRepository
func NewGormEnrollmentRepository(db *gorm.DB) *GormEnrollmentRepository {
	return &GormEnrollmentRepository{db: db}
}

// Save persists a new enrollment
func (r *GormEnrollmentRepository) Save(ctx context.Context, enrollment *identity.Enrollment) error {
	return r.db.WithContext(ctx).Create(enrollment).Error
}

// Update persists changes to an existing enrollment
func (r *GormEnrollmentRepository) Update(ctx context.Context, enrollment *identity.Enrollment) error {
	result := r.db.WithContext(ctx).Save(enrollment)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID retrieves an enrollment by its ID
func (r *GormEnrollmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Enrollment, error) {
	var enrollment identity.Enrollment
	if err := r.db.WithContext(ctx).First(&enrollment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &enrollment, nil
}

// FindActive retrieves the active enrollment of an account in an institute
func (r *GormEnrollmentRepository) FindActive(ctx context.Context, instituteID, accountID uuid.UUID) (*identity.Enrollment, error) {
	var enrollment identity.Enrollment
	if err := r.db.WithContext(ctx).
		Where("institute_id = ? AND account_id = ? AND status = ?",
			instituteID, accountID, identity.EnrollmentStatusActive).
		First(&enrollment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &enrollment, nil
}

// FindByInstitute retrieves enrollments for an institute
func (r *GormEnrollmentRepository) FindByInstitute(ctx context.Context, instituteID uuid.UUID, filter shared.Filter) (shared.Paginated[*identity.Enrollment], error) {
	query := r.db.WithContext(ctx).
		Model(&identity.Enrollment{}).
		Where("institute_id = ?", instituteID)

	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return shared.Paginated[*identity.Enrollment]{}, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	sortBy := ValidateSortField(filter.OrderBy, EnrollmentSortFields, "joined_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)

	var enrollments []*identity.Enrollment
	if err := query.
		Order(sortBy + " " + sortOrder).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&enrollments).Error; err != nil {
		return shared.Paginated[*identity.Enrollment]{}, err
	}

	return shared.NewPaginated(enrollments, total, page, pageSize), nil
}

// CountActiveByInstitute counts the seats currently held in an institute
func (r *GormEnrollmentRepository) CountActiveByInstitute(ctx context.Context, instituteID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&identity.Enrollment{}).
		Where("institute_id = ? AND status = ?", instituteID, identity.EnrollmentStatusActive).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindActiveByAccount retrieves all active enrollments of an account
func (r *GormEnrollmentRepository) FindActiveByAccount(ctx context.Context, accountID uuid.UUID) ([]*identity.Enrollment, error) {
	var enrollments []*identity.Enrollment
	if err := r.db.WithContext(ctx).
		Where("account_id = ? AND status = ?", accountID, identity.EnrollmentStatusActive).
		Order("joined_at DESC").
		Find(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}

// Ensure GormEnrollmentRepository implements EnrollmentRepository
var _ identity.EnrollmentRepository = (*GormEnrollmentRepository)(nil)
