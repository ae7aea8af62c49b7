package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/studyhall/backend/internal/domain/identity"
	"github.com/studyhall/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormInstituteRepository implements InstituteRepository using GORM.
// Institutes carry their own GORM tags, so they are persisted directly
// without an intermediate model.
type GormInstituteRepository struct {
	db *gorm.DB
}

// NewGormInstituteRepository creates a new GormInstituteRepository
func NewGormInstituteRepository(db *gorm.DB) *GormInstituteRepository {
	return &GormInstituteRepository{db: db}
}

// Save persists a new institute
func (r *GormInstituteRepository) Save(ctx context.Context, institute *identity.Institute) error {
	return r.db.WithContext(ctx).Create(institute).Error
}

// Update persists changes to an existing institute
func (r *GormInstituteRepository) Update(ctx context.Context, institute *identity.Institute) error {
	result := r.db.WithContext(ctx).Save(institute)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID retrieves an institute by its ID
func (r *GormInstituteRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Institute, error) {
	var institute identity.Institute
	if err := r.db.WithContext(ctx).First(&institute, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &institute, nil
}

// FindByCode retrieves an institute by its unique code. Codes are stored
// uppercase, so the lookup normalizes first.
func (r *GormInstituteRepository) FindByCode(ctx context.Context, code string) (*identity.Institute, error) {
	var institute identity.Institute
	if err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(code)).
		First(&institute).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &institute, nil
}

// FindByStripeCustomerID retrieves the institute backing a Stripe customer
func (r *GormInstituteRepository) FindByStripeCustomerID(ctx context.Context, customerID string) (*identity.Institute, error) {
	if customerID == "" {
		return nil, shared.ErrNotFound
	}
	var institute identity.Institute
	if err := r.db.WithContext(ctx).
		Where("stripe_customer_id = ?", customerID).
		First(&institute).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &institute, nil
}

// FindByStripeSubscriptionID retrieves the institute backing a Stripe subscription
func (r *GormInstituteRepository) FindByStripeSubscriptionID(ctx context.Context, subscriptionID string) (*identity.Institute, error) {
	if subscriptionID == "" {
		return nil, shared.ErrNotFound
	}
	var institute identity.Institute
	if err := r.db.WithContext(ctx).
		Where("stripe_subscription_id = ?", subscriptionID).
		First(&institute).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &institute, nil
}

// FindAll retrieves institutes matching the filter
func (r *GormInstituteRepository) FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[*identity.Institute], error) {
	query := r.db.WithContext(ctx).Model(&identity.Institute{})
	query = r.applyFilter(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return shared.Paginated[*identity.Institute]{}, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	sortBy := ValidateSortField(filter.OrderBy, InstituteSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)

	var institutes []*identity.Institute
	if err := query.
		Order(sortBy + " " + sortOrder).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&institutes).Error; err != nil {
		return shared.Paginated[*identity.Institute]{}, err
	}

	return shared.NewPaginated(institutes, total, page, pageSize), nil
}

// Delete removes an institute
func (r *GormInstituteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&identity.Institute{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// applyFilter applies search and filter options to the query
func (r *GormInstituteRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("code ILIKE ? OR name ILIKE ?", searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "tier":
			query = query.Where("tier = ?", value)
		}
	}

	return query
}

// Ensure GormInstituteRepository implements InstituteRepository
var _ identity.InstituteRepository = (*GormInstituteRepository)(nil)
