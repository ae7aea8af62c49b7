// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides business metrics for the platform.
// It tracks entitlement checks, recorded usage, and seat pool health.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	entitlementCheckTotal *Counter
	usageRecordedTotal    *Counter
	seatOperationTotal    *Counter

	// Gauge metrics (point-in-time values)
	seatPoolUsed     *Gauge
	seatPoolCapacity *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data providers for periodic collection
	seatProvider SeatMetricsProvider
}

// SeatMetricsProvider provides seat pool data for periodic metrics collection.
// This interface allows the telemetry layer to query seat state without
// depending on the entitlement domain directly.
type SeatMetricsProvider interface {
	// GetSeatUsage returns used seats and capacity for an institute's pool.
	// Capacity is -1 for unlimited pools. ok is false when no pool exists.
	GetSeatUsage(ctx context.Context, instituteID uuid.UUID) (used, capacity int64, ok bool, err error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	SeatProvider    SeatMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:        cfg.Meter,
		logger:       logger,
		stopChan:     make(chan struct{}),
		seatProvider: cfg.SeatProvider,
	}

	// Initialize counter metrics
	var err error

	// Entitlement metrics
	bm.entitlementCheckTotal, err = NewCounter(
		bm.meter,
		"studyhall_entitlement_check_total",
		"Total number of entitlement checks",
		"{checks}",
	)
	if err != nil {
		return nil, err
	}

	bm.usageRecordedTotal, err = NewCounter(
		bm.meter,
		"studyhall_usage_recorded_total",
		"Total number of recorded usage draws",
		"{draws}",
	)
	if err != nil {
		return nil, err
	}

	bm.seatOperationTotal, err = NewCounter(
		bm.meter,
		"studyhall_seat_operation_total",
		"Total number of seat pool operations",
		"{operations}",
	)
	if err != nil {
		return nil, err
	}

	// Seat pool gauge metrics
	bm.seatPoolUsed, err = NewGauge(
		bm.meter,
		"studyhall_seat_pool_used",
		"Currently consumed seats in a pool",
		"{seats}",
	)
	if err != nil {
		return nil, err
	}

	bm.seatPoolCapacity, err = NewGauge(
		bm.meter,
		"studyhall_seat_pool_capacity",
		"Total seat capacity of a pool (-1 for unlimited)",
		"{seats}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Entitlement Metrics
// =============================================================================

// CheckOutcome represents the outcome of an entitlement check for metrics labeling.
type CheckOutcome string

const (
	CheckOutcomeAllowed CheckOutcome = "allowed"
	CheckOutcomeDenied  CheckOutcome = "denied"
)

// RecordEntitlementCheck records an entitlement decision.
// This should be called from the application layer when a feature is gated.
func (bm *BusinessMetrics) RecordEntitlementCheck(ctx context.Context, feature string, outcome CheckOutcome, denyReason string) {
	if outcome == CheckOutcomeDenied && denyReason != "" {
		bm.entitlementCheckTotal.Inc(ctx,
			AttrFeature.String(feature),
			AttrOutcome.String(string(outcome)),
			AttrDenyReason.String(denyReason),
		)
		return
	}
	bm.entitlementCheckTotal.Inc(ctx,
		AttrFeature.String(feature),
		AttrOutcome.String(string(outcome)),
	)
}

// RecordUsageDraw records a successful usage counter increment for a feature.
func (bm *BusinessMetrics) RecordUsageDraw(ctx context.Context, feature string) {
	bm.usageRecordedTotal.Inc(ctx,
		AttrFeature.String(feature),
	)
}

// =============================================================================
// Seat Metrics
// =============================================================================

// SeatOperation represents a seat pool mutation for metrics labeling.
type SeatOperation string

const (
	SeatOperationConsumed SeatOperation = "consumed"
	SeatOperationReleased SeatOperation = "released"
	SeatOperationDenied   SeatOperation = "denied"
)

// RecordSeatOperation records a seat consume/release attempt.
func (bm *BusinessMetrics) RecordSeatOperation(ctx context.Context, instituteID uuid.UUID, op SeatOperation) {
	bm.seatOperationTotal.Inc(ctx,
		AttrInstituteID.String(instituteID.String()),
		AttrSeatOutcome.String(string(op)),
	)
}

// RecordSeatPoolState records the current occupancy of an institute's seat pool.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordSeatPoolState(ctx context.Context, instituteID uuid.UUID, used, capacity int64) {
	bm.seatPoolUsed.Record(ctx, used,
		AttrInstituteID.String(instituteID.String()),
	)
	bm.seatPoolCapacity.Record(ctx, capacity,
		AttrInstituteID.String(instituteID.String()),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// InstituteProvider provides institute IDs for periodic metrics collection.
type InstituteProvider interface {
	GetActiveInstituteIDs(ctx context.Context) ([]uuid.UUID, error)
}

// StartPeriodicCollection starts periodic collection of gauge metrics.
// It collects seat pool metrics every interval (default: 5 minutes).
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, instituteProvider InstituteProvider, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, instituteProvider, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, instituteProvider InstituteProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.collectSeatMetrics(ctx, instituteProvider)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectSeatMetrics(ctx, instituteProvider)
		}
	}
}

// collectSeatMetrics collects seat pool gauge metrics for all institutes.
func (bm *BusinessMetrics) collectSeatMetrics(ctx context.Context, instituteProvider InstituteProvider) {
	if bm.seatProvider == nil {
		bm.logger.Debug("No seat provider configured, skipping seat metrics collection")
		return
	}

	instituteIDs, err := instituteProvider.GetActiveInstituteIDs(ctx)
	if err != nil {
		bm.logger.Error("Failed to get institute IDs for metrics collection", zap.Error(err))
		return
	}

	for _, instituteID := range instituteIDs {
		used, capacity, ok, err := bm.seatProvider.GetSeatUsage(ctx, instituteID)
		if err != nil {
			bm.logger.Warn("Failed to get seat usage for institute",
				zap.String("institute_id", instituteID.String()),
				zap.Error(err),
			)
			continue
		}
		if !ok {
			continue
		}
		bm.RecordSeatPoolState(ctx, instituteID, used, capacity)
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
