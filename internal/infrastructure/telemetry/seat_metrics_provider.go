// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSeatMetricsProvider implements SeatMetricsProvider using GORM.
// It queries the seat_pools table directly for aggregated metrics.
type GormSeatMetricsProvider struct {
	db *gorm.DB
}

// NewGormSeatMetricsProvider creates a new GormSeatMetricsProvider.
func NewGormSeatMetricsProvider(db *gorm.DB) *GormSeatMetricsProvider {
	return &GormSeatMetricsProvider{db: db}
}

// GetSeatUsage returns used seats and capacity for an institute's active pool.
// Capacity is -1 for unlimited pools. ok is false when the institute has no pool.
func (p *GormSeatMetricsProvider) GetSeatUsage(ctx context.Context, instituteID uuid.UUID) (used, capacity int64, ok bool, err error) {
	type result struct {
		UsedSeats  int64 `gorm:"column:used_seats"`
		TotalSeats int64 `gorm:"column:total_seats"`
	}

	var r result
	err = p.db.WithContext(ctx).
		Table("seat_pools").
		Select("used_seats, total_seats").
		Where("owner_id = ? AND status = ?", instituteID, "active").
		First(&r).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, err
	}

	return r.UsedSeats, r.TotalSeats, true, nil
}

// GormInstituteProvider implements InstituteProvider using GORM.
type GormInstituteProvider struct {
	db *gorm.DB
}

// NewGormInstituteProvider creates a new GormInstituteProvider.
func NewGormInstituteProvider(db *gorm.DB) *GormInstituteProvider {
	return &GormInstituteProvider{db: db}
}

// GetActiveInstituteIDs returns all active institute IDs.
func (p *GormInstituteProvider) GetActiveInstituteIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := p.db.WithContext(ctx).
		Table("institutes").
		Select("id").
		Where("deleted_at IS NULL AND status = ?", "active").
		Find(&ids).Error

	return ids, err
}
