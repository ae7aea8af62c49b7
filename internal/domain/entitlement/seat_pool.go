package entitlement

import (
	"github.com/google/uuid"

	"github.com/studyhall/backend/internal/domain/shared"
)

// SeatPoolStatus represents the lifecycle state of a seat pool
type SeatPoolStatus string

const (
	// SeatPoolStatusActive means the pool accepts enrollments
	SeatPoolStatusActive SeatPoolStatus = "active"

	// SeatPoolStatusInactive means the subscription lapsed; enrollments are refused
	SeatPoolStatusInactive SeatPoolStatus = "inactive"
)

// String returns the string representation of SeatPoolStatus
func (s SeatPoolStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is valid
func (s SeatPoolStatus) IsValid() bool {
	switch s {
	case SeatPoolStatusActive, SeatPoolStatusInactive:
		return true
	}
	return false
}

// SeatPool bounds how many students a teacher or institute subscription
// can hold. used never drops below 0 and, for finite pools, never exceeds
// total; the persistence layer enforces both as conditional updates.
type SeatPool struct {
	shared.BaseAggregateRoot
	OwnerID    uuid.UUID // Teacher account or institute that owns the seats (unique)
	TotalSeats Limit
	UsedSeats  int64
	Status     SeatPoolStatus
}

// NewSeatPool provisions an active pool for a subscription owner
func NewSeatPool(ownerID uuid.UUID, total Limit) (*SeatPool, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner ID cannot be empty")
	}

	pool := &SeatPool{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OwnerID:           ownerID,
		TotalSeats:        total,
		Status:            SeatPoolStatusActive,
	}
	pool.AddDomainEvent(NewSeatPoolProvisionedEvent(pool))
	return pool, nil
}

// IsActive returns true if the pool accepts enrollments
func (p *SeatPool) IsActive() bool {
	return p.Status == SeatPoolStatusActive
}

// HasCapacity returns true if at least one seat can still be consumed
func (p *SeatPool) HasCapacity() bool {
	if !p.IsActive() {
		return false
	}
	return !p.TotalSeats.Reached(p.UsedSeats)
}

// AvailableSeats returns how many seats remain. ok is false for an
// unlimited pool.
func (p *SeatPool) AvailableSeats() (n int64, ok bool) {
	return p.TotalSeats.Remaining(p.UsedSeats)
}

// Consume takes one seat. Fails when the pool is inactive or full.
func (p *SeatPool) Consume() error {
	if !p.IsActive() {
		return shared.ErrInvalidState
	}
	if p.TotalSeats.Reached(p.UsedSeats) {
		return shared.ErrNoSeatsAvailable
	}
	p.UsedSeats++
	p.Touch()
	p.AddDomainEvent(NewSeatConsumedEvent(p))
	return nil
}

// Release returns one seat, floored at 0. Releasing an empty pool is a
// harmless no-op so departure flows never fail on drifted counters.
func (p *SeatPool) Release() {
	if p.UsedSeats > 0 {
		p.UsedSeats--
	}
	p.Touch()
	p.AddDomainEvent(NewSeatReleasedEvent(p))
}

// Resize changes the pool's capacity. Shrinking below current usage is
// allowed; existing members keep their seats and new enrollments are
// refused until usage falls under the new bound.
func (p *SeatPool) Resize(total Limit) {
	p.TotalSeats = total
	p.Touch()
	p.IncrementVersion()
}

// Activate reopens the pool for enrollments
func (p *SeatPool) Activate() {
	p.Status = SeatPoolStatusActive
	p.Touch()
}

// Deactivate closes the pool when the owning subscription lapses.
// Used seats are retained so reactivation restores the previous state.
func (p *SeatPool) Deactivate() {
	p.Status = SeatPoolStatusInactive
	p.Touch()
	p.AddDomainEvent(NewSeatPoolDeactivatedEvent(p))
}
