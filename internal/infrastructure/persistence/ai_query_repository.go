package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/studyhall/backend/internal/domain/shared"
	"github.com/studyhall/backend/internal/domain/study"
	"gorm.io/gorm"
)

// GormAIQueryRepository implements AIQueryRepository using GORM.
// The log is append-only: there are no update or delete paths.
type GormAIQueryRepository struct {
	db *gorm.DB
}

// NewGormAIQueryRepository creates a new GormAIQueryRepository
func NewGormAIQueryRepository(db *gorm.DB) *GormAIQueryRepository {
	return &GormAIQueryRepository{db: db}
}

// Save appends a query record
func (r *GormAIQueryRepository) Save(ctx context.Context, query *study.AIQuery) error {
	return r.db.WithContext(ctx).Create(query).Error
}

// FindByAccount finds query records for an account, newest first
func (r *GormAIQueryRepository) FindByAccount(ctx context.Context, accountID uuid.UUID, filter shared.Filter) ([]study.AIQuery, error) {
	query := r.db.WithContext(ctx).
		Model(&study.AIQuery{}).
		Where("account_id = ?", accountID)

	if bookID, ok := filter.Filters["book_id"]; ok {
		query = query.Where("book_id = ?", bookID)
	}

	sortBy := ValidateSortField(filter.OrderBy, AIQuerySortFields, "asked_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(sortBy + " " + sortOrder)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var queries []study.AIQuery
	if err := query.Find(&queries).Error; err != nil {
		return nil, err
	}
	return queries, nil
}

// CountByAccountSince counts queries asked by an account since the given time
func (r *GormAIQueryRepository) CountByAccountSince(ctx context.Context, accountID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&study.AIQuery{}).
		Where("account_id = ? AND asked_at >= ?", accountID, since).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormAIQueryRepository implements AIQueryRepository
var _ study.AIQueryRepository = (*GormAIQueryRepository)(nil)
