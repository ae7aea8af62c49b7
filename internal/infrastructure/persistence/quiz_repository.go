package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/studyhall/backend/internal/domain/shared"
	"github.com/studyhall/backend/internal/domain/study"
	"gorm.io/gorm"
)

// GormQuizRepository implements QuizRepository using GORM
type GormQuizRepository struct {
	db *gorm.DB
}

// NewGormQuizRepository creates a new GormQuizRepository
func NewGormQuizRepository(db *gorm.DB) *GormQuizRepository {
	return &GormQuizRepository{db: db}
}

// Save creates a new quiz
func (r *GormQuizRepository) Save(ctx context.Context, quiz *study.Quiz) error {
	return r.db.WithContext(ctx).Create(quiz).Error
}

// Update updates an existing quiz
func (r *GormQuizRepository) Update(ctx context.Context, quiz *study.Quiz) error {
	result := r.db.WithContext(ctx).Save(quiz)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a quiz by its ID
func (r *GormQuizRepository) FindByID(ctx context.Context, id uuid.UUID) (*study.Quiz, error) {
	var quiz study.Quiz
	if err := r.db.WithContext(ctx).First(&quiz, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// FindByIDForOwner finds a quiz by ID, scoped to its owner
func (r *GormQuizRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*study.Quiz, error) {
	var quiz study.Quiz
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, id).
		First(&quiz).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// FindByOwner finds quizzes owned by an account
func (r *GormQuizRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]study.Quiz, error) {
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&study.Quiz{}).Where("owner_id = ?", ownerID),
		filter,
	)

	var quizzes []study.Quiz
	if err := query.Find(&quizzes).Error; err != nil {
		return nil, err
	}
	return quizzes, nil
}

// FindByBook finds quizzes generated from a book
func (r *GormQuizRepository) FindByBook(ctx context.Context, ownerID, bookID uuid.UUID, filter shared.Filter) ([]study.Quiz, error) {
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&study.Quiz{}).
			Where("owner_id = ? AND book_id = ?", ownerID, bookID),
		filter,
	)

	var quizzes []study.Quiz
	if err := query.Find(&quizzes).Error; err != nil {
		return nil, err
	}
	return quizzes, nil
}

// CountByOwnerSince counts quizzes created by an owner since the given time
func (r *GormQuizRepository) CountByOwnerSince(ctx context.Context, ownerID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&study.Quiz{}).
		Where("owner_id = ? AND created_at >= ?", ownerID, since).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormQuizRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if filter.Search != "" {
		query = query.Where("title ILIKE ?", "%"+filter.Search+"%")
	}

	sortBy := ValidateSortField(filter.OrderBy, QuizSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(sortBy + " " + sortOrder)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	return query
}

// Ensure GormQuizRepository implements QuizRepository
var _ study.QuizRepository = (*GormQuizRepository)(nil)
