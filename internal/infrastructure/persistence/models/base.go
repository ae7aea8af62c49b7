package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/studyhall/backend/internal/domain/shared"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AggregateModel provides common persistence fields for aggregate roots.
// It extends BaseModel with version for optimistic locking.
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// FromDomainAggregateRoot populates AggregateModel from domain BaseAggregateRoot
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
}

// InstituteAggregateModel provides common persistence fields for institute-scoped aggregate roots.
// It extends AggregateModel with institute ID and creator info.
type InstituteAggregateModel struct {
	AggregateModel
	InstituteID uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedBy   *uuid.UUID `gorm:"type:uuid;index"`
}

// FromDomainInstituteAggregateRoot populates InstituteAggregateModel from domain InstituteAggregateRoot
func (m *InstituteAggregateModel) FromDomainInstituteAggregateRoot(t shared.InstituteAggregateRoot) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.InstituteID = t.InstituteID
	m.CreatedBy = t.CreatedBy
}

// PopulateInstituteAggregateRoot populates a domain InstituteAggregateRoot from persistence model
func (m *InstituteAggregateModel) PopulateInstituteAggregateRoot(t *shared.InstituteAggregateRoot) {
	t.BaseAggregateRoot.BaseEntity.ID = m.ID
	t.BaseAggregateRoot.BaseEntity.CreatedAt = m.CreatedAt
	t.BaseAggregateRoot.BaseEntity.UpdatedAt = m.UpdatedAt
	t.BaseAggregateRoot.Version = m.Version
	t.InstituteID = m.InstituteID
	t.CreatedBy = m.CreatedBy
}
