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

// SeatPoolModel is the GORM model for seat pools.
// TotalSeats stores the unlimited sentinel (-1) directly; conversion to the
// domain Limit type happens at the ToEntity/FromEntity edge.
type SeatPoolModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	TotalSeats int64     `gorm:"column:total_seats;not null;default:0"`
	UsedSeats  int64     `gorm:"column:used_seats;not null;default:0"`
	Status     string    `gorm:"type:varchar(20);not null;default:'active'"`
	Version    int       `gorm:"not null;default:1"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (SeatPoolModel) TableName() string {
	return "seat_pools"
}

// ToEntity converts the model to a domain entity
func (m *SeatPoolModel) ToEntity() *entitlement.SeatPool {
	return &entitlement.SeatPool{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		OwnerID:    m.OwnerID,
		TotalSeats: entitlement.LimitFromStored(m.TotalSeats),
		UsedSeats:  m.UsedSeats,
		Status:     entitlement.SeatPoolStatus(m.Status),
	}
}

// SeatPoolModelFromEntity creates a model from a domain entity
func SeatPoolModelFromEntity(p *entitlement.SeatPool) *SeatPoolModel {
	return &SeatPoolModel{
		ID:         p.ID,
		OwnerID:    p.OwnerID,
		TotalSeats: p.TotalSeats.Stored(),
		UsedSeats:  p.UsedSeats,
		Status:     string(p.Status),
		Version:    p.Version,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

// GormSeatPoolRepository implements entitlement.SeatPoolRepository using GORM.
// Consume and release are conditional single-statement updates, so the
// capacity and floor invariants hold under concurrent enrollments.
type GormSeatPoolRepository struct {
	db *gorm.DB
}

// NewGormSeatPoolRepository creates a new GormSeatPoolRepository
func NewGormSeatPoolRepository(db *gorm.DB) *GormSeatPoolRepository {
	return &GormSeatPoolRepository{db: db}
}

// Save persists a new seat pool
func (r *GormSeatPoolRepository) Save(ctx context.Context, pool *entitlement.SeatPool) error {
	model := SeatPoolModelFromEntity(pool)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update persists changes to an existing pool
func (r *GormSeatPoolRepository) Update(ctx context.Context, pool *entitlement.SeatPool) error {
	model := SeatPoolModelFromEntity(pool)
	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID retrieves a pool by its ID
func (r *GormSeatPoolRepository) FindByID(ctx context.Context, id uuid.UUID) (*entitlement.SeatPool, error) {
	var model SeatPoolModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindByOwner retrieves the pool owned by a teacher or institute
func (r *GormSeatPoolRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*entitlement.SeatPool, error) {
	var model SeatPoolModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// ConsumeSeat atomically takes one seat if capacity remains. The capacity
// check lives in the WHERE clause, so used_seats can never be written past
// total_seats no matter how many enrollments race.
func (r *GormSeatPoolRepository) ConsumeSeat(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&SeatPoolModel{}).
		Where("owner_id = ? AND status = ? AND (total_seats = ? OR used_seats < total_seats)",
			ownerID, string(entitlement.SeatPoolStatusActive), entitlement.StoredUnlimited).
		Updates(map[string]any{
			"used_seats": gorm.Expr("used_seats + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ReleaseSeat atomically returns one seat, floored at 0. Returns false only
// when the owner has no active pool.
func (r *GormSeatPoolRepository) ReleaseSeat(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&SeatPoolModel{}).
		Where("owner_id = ? AND status = ?", ownerID, string(entitlement.SeatPoolStatusActive)).
		Updates(map[string]any{
			"used_seats": gorm.Expr("CASE WHEN used_seats > 0 THEN used_seats - 1 ELSE 0 END"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Ensure GormSeatPoolRepository implements the interface
var _ entitlement.SeatPoolRepository = (*GormSeatPoolRepository)(nil)
