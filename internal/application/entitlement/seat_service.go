package entitlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studyhall/backend/internal/domain/entitlement"
	"github.com/studyhall/backend/internal/domain/shared"
)

// SeatService manages institute seat pools: provisioning when a subscription
// activates, deactivation when it lapses, and the consume/release accounting
// around student joins and departures.
//
// Consume and release are conditional single-statement updates; the capacity
// ceiling and the zero floor hold under concurrent joins and leaves.
type SeatService struct {
	seatPoolRepo entitlement.SeatPoolRepository
	catalog      *entitlement.Catalog
	eventBus     shared.EventPublisher
	logger       *zap.Logger
}

// NewSeatService creates a new SeatService
func NewSeatService(seatPoolRepo entitlement.SeatPoolRepository, catalog *entitlement.Catalog, eventBus shared.EventPublisher, logger *zap.Logger) *SeatService {
	return &SeatService{
		seatPoolRepo: seatPoolRepo,
		catalog:      catalog,
		eventBus:     eventBus,
		logger:       logger,
	}
}

// ConsumeSeat takes one seat from the owner's active pool after a student
// joined. Returns false when no active pool exists or the pool is full; the
// caller decides whether that is fatal (it is not when the join itself was
// pre-checked and already happened).
func (s *SeatService) ConsumeSeat(ctx context.Context, ownerID uuid.UUID) bool {
	ok, err := s.seatPoolRepo.ConsumeSeat(ctx, ownerID)
	if err != nil {
		s.logger.Error("Failed to consume seat",
			zap.String("owner_id", ownerID.String()),
			zap.Error(err))
		return false
	}
	if !ok {
		s.logger.Warn("Seat consume refused: no active pool or pool full",
			zap.String("owner_id", ownerID.String()))
		return false
	}
	s.publishPoolEvent(ctx, ownerID, func(pool *entitlement.SeatPool) shared.DomainEvent {
		return entitlement.NewSeatConsumedEvent(pool)
	})
	return true
}

// ReleaseSeat returns one seat to the owner's active pool after a student
// left. The decrement floors at 0: releasing more times than consumed is a
// defensive no-op, not an error. Returns false only when no active pool
// exists.
func (s *SeatService) ReleaseSeat(ctx context.Context, ownerID uuid.UUID) bool {
	ok, err := s.seatPoolRepo.ReleaseSeat(ctx, ownerID)
	if err != nil {
		s.logger.Error("Failed to release seat",
			zap.String("owner_id", ownerID.String()),
			zap.Error(err))
		return false
	}
	if !ok {
		s.logger.Warn("Seat release refused: no active pool",
			zap.String("owner_id", ownerID.String()))
		return false
	}
	s.publishPoolEvent(ctx, ownerID, func(pool *entitlement.SeatPool) shared.DomainEvent {
		return entitlement.NewSeatReleasedEvent(pool)
	})
	return true
}

// GetPool returns the owner's seat pool
func (s *SeatService) GetPool(ctx context.Context, ownerID uuid.UUID) (*entitlement.SeatPool, error) {
	return s.seatPoolRepo.FindByOwner(ctx, ownerID)
}

// ProvisionPool creates (or reactivates and resizes) the owner's seat pool
// for the given audience and tier, sized from the plan catalog. Used seats
// survive a lapse-and-reactivate cycle; only the capacity follows the plan.
func (s *SeatService) ProvisionPool(ctx context.Context, ownerID uuid.UUID, audience entitlement.Audience, tier string) (*entitlement.SeatPool, error) {
	plan := s.catalog.Resolve(audience, tier)
	total := plan.DefaultSeats

	existing, err := s.seatPoolRepo.FindByOwner(ctx, ownerID)
	if err == nil {
		existing.Resize(total)
		existing.Activate()
		if err := s.seatPoolRepo.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("reactivate seat pool: %w", err)
		}
		s.logger.Info("Reactivated seat pool",
			zap.String("owner_id", ownerID.String()),
			zap.String("tier", plan.ID),
			zap.String("total_seats", total.String()))
		s.publishEvents(ctx, existing)
		return existing, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("find seat pool: %w", err)
	}

	pool, err := entitlement.NewSeatPool(ownerID, total)
	if err != nil {
		return nil, err
	}
	if err := s.seatPoolRepo.Save(ctx, pool); err != nil {
		return nil, fmt.Errorf("save seat pool: %w", err)
	}

	s.logger.Info("Provisioned seat pool",
		zap.String("owner_id", ownerID.String()),
		zap.String("tier", plan.ID),
		zap.String("total_seats", total.String()))
	s.publishEvents(ctx, pool)
	return pool, nil
}

// ResizePool changes the pool's capacity without touching its status.
// Shrinking below current usage keeps existing members seated and refuses
// new enrollments until usage falls under the new bound.
func (s *SeatService) ResizePool(ctx context.Context, ownerID uuid.UUID, total entitlement.Limit) (*entitlement.SeatPool, error) {
	pool, err := s.seatPoolRepo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	pool.Resize(total)
	if err := s.seatPoolRepo.Update(ctx, pool); err != nil {
		return nil, fmt.Errorf("resize seat pool: %w", err)
	}
	return pool, nil
}

// DeactivatePool closes the owner's pool when the subscription lapses.
// The pool and its used-seat count are retained, not deleted; reactivation
// restores the previous state.
func (s *SeatService) DeactivatePool(ctx context.Context, ownerID uuid.UUID) error {
	pool, err := s.seatPoolRepo.FindByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	if !pool.IsActive() {
		return nil
	}
	pool.Deactivate()
	if err := s.seatPoolRepo.Update(ctx, pool); err != nil {
		return fmt.Errorf("deactivate seat pool: %w", err)
	}
	s.logger.Info("Deactivated seat pool", zap.String("owner_id", ownerID.String()))
	s.publishEvents(ctx, pool)
	return nil
}

// publishPoolEvent re-reads the pool to build an event carrying its current
// standing. A read failure only costs the event, never the operation.
func (s *SeatService) publishPoolEvent(ctx context.Context, ownerID uuid.UUID, build func(*entitlement.SeatPool) shared.DomainEvent) {
	if s.eventBus == nil {
		return
	}
	pool, err := s.seatPoolRepo.FindByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Debug("Skipping seat event, pool re-read failed", zap.Error(err))
		return
	}
	if err := s.eventBus.Publish(ctx, build(pool)); err != nil {
		s.logger.Warn("Failed to publish seat event", zap.Error(err))
	}
}

func (s *SeatService) publishEvents(ctx context.Context, pool *entitlement.SeatPool) {
	if s.eventBus == nil {
		return
	}
	events := pool.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish seat pool events", zap.Error(err))
	}
	pool.ClearDomainEvents()
}
