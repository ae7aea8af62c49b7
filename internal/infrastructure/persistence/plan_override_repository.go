package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/studyhall/backend/internal/domain/entitlement"
	"github.com/studyhall/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlanOverrideModel is the GORM model for per-principal limit overrides.
// LimitValue stores the unlimited sentinel (-1) directly.
type PlanOverrideModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	PrincipalID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_plan_overrides_principal_feature"`
	Feature     string     `gorm:"type:varchar(50);not null;uniqueIndex:idx_plan_overrides_principal_feature"`
	LimitValue  int64      `gorm:"column:limit_value;not null"`
	Note        string     `gorm:"type:text"`
	CreatedBy   *uuid.UUID `gorm:"type:uuid"`
	Version     int        `gorm:"not null;default:1"`
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (PlanOverrideModel) TableName() string {
	return "plan_overrides"
}

// ToEntity converts the model to a domain entity
func (m *PlanOverrideModel) ToEntity() *entitlement.PlanOverride {
	return &entitlement.PlanOverride{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		PrincipalID: m.PrincipalID,
		Feature:     entitlement.Feature(m.Feature),
		Limit:       entitlement.LimitFromStored(m.LimitValue),
		Note:        m.Note,
		CreatedBy:   m.CreatedBy,
	}
}

// PlanOverrideModelFromEntity creates a model from a domain entity
func PlanOverrideModelFromEntity(o *entitlement.PlanOverride) *PlanOverrideModel {
	return &PlanOverrideModel{
		ID:          o.ID,
		PrincipalID: o.PrincipalID,
		Feature:     string(o.Feature),
		LimitValue:  o.Limit.Stored(),
		Note:        o.Note,
		CreatedBy:   o.CreatedBy,
		Version:     o.Version,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

// GormPlanOverrideRepository implements entitlement.PlanOverrideRepository using GORM
type GormPlanOverrideRepository struct {
	db *gorm.DB
}

// NewGormPlanOverrideRepository creates a new GormPlanOverrideRepository
func NewGormPlanOverrideRepository(db *gorm.DB) *GormPlanOverrideRepository {
	return &GormPlanOverrideRepository{db: db}
}

// Save persists an override, replacing any existing one for the same
// principal and feature
func (r *GormPlanOverrideRepository) Save(ctx context.Context, override *entitlement.PlanOverride) error {
	model := PlanOverrideModelFromEntity(override)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "principal_id"}, {Name: "feature"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"limit_value",
			"note",
			"created_by",
			"version",
			"updated_at",
		}),
	}).Create(model).Error
}

// FindByPrincipal retrieves all overrides for a principal
func (r *GormPlanOverrideRepository) FindByPrincipal(ctx context.Context, principalID uuid.UUID) ([]*entitlement.PlanOverride, error) {
	var models []PlanOverrideModel
	if err := r.db.WithContext(ctx).
		Where("principal_id = ?", principalID).
		Order("feature ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	overrides := make([]*entitlement.PlanOverride, len(models))
	for i := range models {
		overrides[i] = models[i].ToEntity()
	}
	return overrides, nil
}

// FindByPrincipalAndFeature retrieves a single override
func (r *GormPlanOverrideRepository) FindByPrincipalAndFeature(ctx context.Context, principalID uuid.UUID, feature entitlement.Feature) (*entitlement.PlanOverride, error) {
	var model PlanOverrideModel
	if err := r.db.WithContext(ctx).
		Where("principal_id = ? AND feature = ?", principalID, string(feature)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// Delete removes an override
func (r *GormPlanOverrideRepository) Delete(ctx context.Context, principalID uuid.UUID, feature entitlement.Feature) error {
	result := r.db.WithContext(ctx).
		Where("principal_id = ? AND feature = ?", principalID, string(feature)).
		Delete(&PlanOverrideModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormPlanOverrideRepository implements the interface
var _ entitlement.PlanOverrideRepository = (*GormPlanOverrideRepository)(nil)
