package entitlement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/studyhall/backend/internal/domain/entitlement"
	"github.com/studyhall/backend/internal/domain/shared"
)

// Mock implementations shared by the service tests in this package

type mockUsageProfileRepository struct {
	mock.Mock
}

func (m *mockUsageProfileRepository) Save(ctx context.Context, profile *entitlement.UsageProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *mockUsageProfileRepository) Update(ctx context.Context, profile *entitlement.UsageProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *mockUsageProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*entitlement.UsageProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entitlement.UsageProfile), args.Error(1)
}

func (m *mockUsageProfileRepository) FindByPrincipal(ctx context.Context, principalID uuid.UUID) (*entitlement.UsageProfile, error) {
	args := m.Called(ctx, principalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entitlement.UsageProfile), args.Error(1)
}

func (m *mockUsageProfileRepository) IncrementCounter(ctx context.Context, principalID uuid.UUID, feature entitlement.Feature) error {
	args := m.Called(ctx, principalID, feature)
	return args.Error(0)
}

func (m *mockUsageProfileRepository) DecrementBooks(ctx context.Context, principalID uuid.UUID) error {
	args := m.Called(ctx, principalID)
	return args.Error(0)
}

func (m *mockUsageProfileRepository) ApplyRollover(ctx context.Context, principalID uuid.UUID, monthStart, resetAt time.Time) (bool, error) {
	args := m.Called(ctx, principalID, monthStart, resetAt)
	return args.Bool(0), args.Error(1)
}

func (m *mockUsageProfileRepository) FindRolloverDue(ctx context.Context, monthStart time.Time, limit int) ([]*entitlement.UsageProfile, error) {
	args := m.Called(ctx, monthStart, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entitlement.UsageProfile), args.Error(1)
}

func (m *mockUsageProfileRepository) SetPlan(ctx context.Context, principalID uuid.UUID, planID string) error {
	args := m.Called(ctx, principalID, planID)
	return args.Error(0)
}

type mockSeatPoolRepository struct {
	mock.Mock
}

func (m *mockSeatPoolRepository) Save(ctx context.Context, pool *entitlement.SeatPool) error {
	args := m.Called(ctx, pool)
	return args.Error(0)
}

func (m *mockSeatPoolRepository) Update(ctx context.Context, pool *entitlement.SeatPool) error {
	args := m.Called(ctx, pool)
	return args.Error(0)
}

func (m *mockSeatPoolRepository) FindByID(ctx context.Context, id uuid.UUID) (*entitlement.SeatPool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entitlement.SeatPool), args.Error(1)
}

func (m *mockSeatPoolRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*entitlement.SeatPool, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entitlement.SeatPool), args.Error(1)
}

func (m *mockSeatPoolRepository) ConsumeSeat(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	args := m.Called(ctx, ownerID)
	return args.Bool(0), args.Error(1)
}

func (m *mockSeatPoolRepository) ReleaseSeat(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	args := m.Called(ctx, ownerID)
	return args.Bool(0), args.Error(1)
}

type mockPlanOverrideRepository struct {
	mock.Mock
}

func (m *mockPlanOverrideRepository) Save(ctx context.Context, override *entitlement.PlanOverride) error {
	args := m.Called(ctx, override)
	return args.Error(0)
}

func (m *mockPlanOverrideRepository) FindByPrincipal(ctx context.Context, principalID uuid.UUID) ([]*entitlement.PlanOverride, error) {
	args := m.Called(ctx, principalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entitlement.PlanOverride), args.Error(1)
}

func (m *mockPlanOverrideRepository) FindByPrincipalAndFeature(ctx context.Context, principalID uuid.UUID, feature entitlement.Feature) (*entitlement.PlanOverride, error) {
	args := m.Called(ctx, principalID, feature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entitlement.PlanOverride), args.Error(1)
}

func (m *mockPlanOverrideRepository) Delete(ctx context.Context, principalID uuid.UUID, feature entitlement.Feature) error {
	args := m.Called(ctx, principalID, feature)
	return args.Error(0)
}

type mockBookCounter struct {
	mock.Mock
}

func (m *mockBookCounter) CountLiveByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(int64), args.Error(1)
}

type mockClassCounter struct {
	mock.Mock
}

func (m *mockClassCounter) CountActiveByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(int64), args.Error(1)
}

type mockEventPublisher struct {
	mock.Mock
}

func (m *mockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}
