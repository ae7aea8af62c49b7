package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/studyhall/backend/internal/domain/entitlement"
	"github.com/studyhall/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// UsageProfileModel is the GORM model for usage profiles
type UsageProfileModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	PrincipalID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Audience         string    `gorm:"type:varchar(20);not null"`
	PlanID           string    `gorm:"type:varchar(50);not null"`
	BooksUploaded    int64     `gorm:"column:books_uploaded;not null;default:0"`
	MonthlyQuizzes   int64     `gorm:"column:monthly_quizzes;not null;default:0"`
	MonthlyAIQueries int64     `gorm:"column:monthly_ai_queries;not null;default:0"`
	LastMonthlyReset time.Time `gorm:"column:last_monthly_reset;not null;index"`
	Version          int       `gorm:"not null;default:1"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (UsageProfileModel) TableName() string {
	return "usage_profiles"
}

// ToEntity converts the model to a domain entity
func (m *UsageProfileModel) ToEntity() *entitlement.UsageProfile {
	return &entitlement.UsageProfile{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		PrincipalID:      m.PrincipalID,
		Audience:         entitlement.Audience(m.Audience),
		PlanID:           m.PlanID,
		BooksUploaded:    m.BooksUploaded,
		MonthlyQuizzes:   m.MonthlyQuizzes,
		MonthlyAIQueries: m.MonthlyAIQueries,
		LastMonthlyReset: m.LastMonthlyReset,
	}
}

// UsageProfileModelFromEntity creates a model from a domain entity
func UsageProfileModelFromEntity(p *entitlement.UsageProfile) *UsageProfileModel {
	return &UsageProfileModel{
		ID:               p.ID,
		PrincipalID:      p.PrincipalID,
		Audience:         string(p.Audience),
		PlanID:           p.PlanID,
		BooksUploaded:    p.BooksUploaded,
		MonthlyQuizzes:   p.MonthlyQuizzes,
		MonthlyAIQueries: p.MonthlyAIQueries,
		LastMonthlyReset: p.LastMonthlyReset,
		Version:          p.Version,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// counterColumn maps a feature to the profile column backing it.
// Returns "" for live-counted features, which have no profile counter.
func counterColumn(feature entitlement.Feature) string {
	switch feature {
	case entitlement.FeatureBookUpload:
		return "books_uploaded"
	case entitlement.FeatureQuizGeneration:
		return "monthly_quizzes"
	case entitlement.FeatureAIQuery:
		return "monthly_ai_queries"
	default:
		return ""
	}
}

// GormUsageProfileRepository implements entitlement.UsageProfileRepository using GORM.
// Counter mutations are single UPDATE statements so concurrent requests
// cannot lose increments.
type GormUsageProfileRepository struct {
	db *gorm.DB
}

// NewGormUsageProfileRepository creates a new GormUsageProfileRepository
func NewGormUsageProfileRepository(db *gorm.DB) *GormUsageProfileRepository {
	return &GormUsageProfileRepository{db: db}
}

// Save persists a new usage profile
func (r *GormUsageProfileRepository) Save(ctx context.Context, profile *entitlement.UsageProfile) error {
	model := UsageProfileModelFromEntity(profile)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update persists changes to an existing profile
func (r *GormUsageProfileRepository) Update(ctx context.Context, profile *entitlement.UsageProfile) error {
	model := UsageProfileModelFromEntity(profile)
	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID retrieves a profile by its ID
func (r *GormUsageProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*entitlement.UsageProfile, error) {
	var model UsageProfileModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindByPrincipal retrieves the profile owned by a principal
func (r *GormUsageProfileRepository) FindByPrincipal(ctx context.Context, principalID uuid.UUID) (*entitlement.UsageProfile, error) {
	var model UsageProfileModel
	if err := r.db.WithContext(ctx).
		Where("principal_id = ?", principalID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// IncrementCounter atomically adds 1 to the counter backing the feature
func (r *GormUsageProfileRepository) IncrementCounter(ctx context.Context, principalID uuid.UUID, feature entitlement.Feature) error {
	column := counterColumn(feature)
	if column == "" {
		return shared.NewDomainError("NO_PROFILE_COUNTER", "Feature has no profile counter")
	}

	result := r.db.WithContext(ctx).
		Model(&UsageProfileModel{}).
		Where("principal_id = ?", principalID).
		Updates(map[string]any{
			column:       gorm.Expr(column + " + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DecrementBooks atomically lowers the cached lifetime book counter, floored at 0
func (r *GormUsageProfileRepository) DecrementBooks(ctx context.Context, principalID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&UsageProfileModel{}).
		Where("principal_id = ?", principalID).
		Updates(map[string]any{
			"books_uploaded": gorm.Expr("CASE WHEN books_uploaded > 0 THEN books_uploaded - 1 ELSE 0 END"),
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ApplyRollover conditionally zeroes the monthly counters. The guard on
// last_monthly_reset makes the reset idempotent: when two requests race at a
// month boundary, only the first matches the WHERE clause.
func (r *GormUsageProfileRepository) ApplyRollover(ctx context.Context, principalID uuid.UUID, monthStart, resetAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&UsageProfileModel{}).
		Where("principal_id = ? AND last_monthly_reset < ?", principalID, monthStart).
		Updates(map[string]any{
			"monthly_quizzes":    0,
			"monthly_ai_queries": 0,
			"last_monthly_reset": resetAt,
			"updated_at":         resetAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// FindRolloverDue pages through profiles whose monthly counters still belong
// to a month before monthStart
func (r *GormUsageProfileRepository) FindRolloverDue(ctx context.Context, monthStart time.Time, limit int) ([]*entitlement.UsageProfile, error) {
	if limit <= 0 {
		limit = 100
	}

	var profileModels []UsageProfileModel
	err := r.db.WithContext(ctx).
		Where("last_monthly_reset < ?", monthStart).
		Order("last_monthly_reset ASC").
		Limit(limit).
		Find(&profileModels).Error
	if err != nil {
		return nil, err
	}

	profiles := make([]*entitlement.UsageProfile, len(profileModels))
	for i, model := range profileModels {
		profiles[i] = model.ToEntity()
	}
	return profiles, nil
}

// SetPlan moves a principal's profile to a different tier
func (r *GormUsageProfileRepository) SetPlan(ctx context.Context, principalID uuid.UUID, planID string) error {
	result := r.db.WithContext(ctx).
		Model(&UsageProfileModel{}).
		Where("principal_id = ?", principalID).
		Updates(map[string]any{
			"plan_id":    planID,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormUsageProfileRepository implements the interface
var _ entitlement.UsageProfileRepository = (*GormUsageProfileRepository)(nil)
