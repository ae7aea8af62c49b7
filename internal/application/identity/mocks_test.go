package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/studyhall/backend/internal/domain/entitlement"
	"github.com/studyhall/backend/internal/domain/identity"
	"github.com/studyhall/backend/internal/domain/shared"
)

type mockAccountRepository struct {
	mock.Mock
}

func (m *mockAccountRepository) Save(ctx context.Context, account *identity.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *mockAccountRepository) Update(ctx context.Context, account *identity.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *mockAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Account), args.Error(1)
}

func (m *mockAccountRepository) FindByEmail(ctx context.Context, email string) (*identity.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Account), args.Error(1)
}

func (m *mockAccountRepository) FindByStripeCustomerID(ctx context.Context, customerID string) (*identity.Account, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Account), args.Error(1)
}

func (m *mockAccountRepository) FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[*identity.Account], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(shared.Paginated[*identity.Account]), args.Error(1)
}

func (m *mockAccountRepository) FindByInstitute(ctx context.Context, instituteID uuid.UUID, filter shared.Filter) (shared.Paginated[*identity.Account], error) {
	args := m.Called(ctx, instituteID, filter)
	return args.Get(0).(shared.Paginated[*identity.Account]), args.Error(1)
}

func (m *mockAccountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockAccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockInstituteRepository struct {
	mock.Mock
}

func (m *mockInstituteRepository) Save(ctx context.Context, institute *identity.Institute) error {
	args := m.Called(ctx, institute)
	return args.Error(0)
}

func (m *mockInstituteRepository) Update(ctx context.Context, institute *identity.Institute) error {
	args := m.Called(ctx, institute)
	return args.Error(0)
}

func (m *mockInstituteRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Institute, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Institute), args.Error(1)
}

func (m *mockInstituteRepository) FindByCode(ctx context.Context, code string) (*identity.Institute, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Institute), args.Error(1)
}

func (m *mockInstituteRepository) FindByStripeCustomerID(ctx context.Context, customerID string) (*identity.Institute, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Institute), args.Error(1)
}

func (m *mockInstituteRepository) FindByStripeSubscriptionID(ctx context.Context, subscriptionID string) (*identity.Institute, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Institute), args.Error(1)
}

func (m *mockInstituteRepository) FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[*identity.Institute], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(shared.Paginated[*identity.Institute]), args.Error(1)
}

func (m *mockInstituteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockEnrollmentRepository struct {
	mock.Mock
}

func (m *mockEnrollmentRepository) Save(ctx context.Context, enrollment *identity.Enrollment) error {
	args := m.Called(ctx, enrollment)
	return args.Error(0)
}

func (m *mockEnrollmentRepository) Update(ctx context.Context, enrollment *identity.Enrollment) error {
	args := m.Called(ctx, enrollment)
	return args.Error(0)
}

func (m *mockEnrollmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Enrollment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Enrollment), args.Error(1)
}

func (m *mockEnrollmentRepository) FindActive(ctx context.Context, instituteID, accountID uuid.UUID) (*identity.Enrollment, error) {
	args := m.Called(ctx, instituteID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Enrollment), args.Error(1)
}

func (m *mockEnrollmentRepository) FindByInstitute(ctx context.Context, instituteID uuid.UUID, filter shared.Filter) (shared.Paginated[*identity.Enrollment], error) {
	args := m.Called(ctx, instituteID, filter)
	return args.Get(0).(shared.Paginated[*identity.Enrollment]), args.Error(1)
}

func (m *mockEnrollmentRepository) CountActiveByInstitute(ctx context.Context, instituteID uuid.UUID) (int64, error) {
	args := m.Called(ctx, instituteID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockEnrollmentRepository) FindActiveByAccount(ctx context.Context, accountID uuid.UUID) ([]*identity.Enrollment, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*identity.Enrollment), args.Error(1)
}

type mockSeatGuard struct {
	mock.Mock
}

func (m *mockSeatGuard) CanAddStudentToInstitute(ctx context.Context, instituteID uuid.UUID) entitlement.SeatDecision {
	args := m.Called(ctx, instituteID)
	return args.Get(0).(entitlement.SeatDecision)
}

type mockSeatMutator struct {
	mock.Mock
}

func (m *mockSeatMutator) ConsumeSeat(ctx context.Context, ownerID uuid.UUID) bool {
	args := m.Called(ctx, ownerID)
	return args.Bool(0)
}

func (m *mockSeatMutator) ReleaseSeat(ctx context.Context, ownerID uuid.UUID) bool {
	args := m.Called(ctx, ownerID)
	return args.Bool(0)
}

type mockEventPublisher struct {
	mock.Mock
}

func (m *mockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

type mockTokenBlacklist struct {
	mock.Mock
}

func (m *mockTokenBlacklist) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	args := m.Called(ctx, jti, ttl)
	return args.Error(0)
}

func (m *mockTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}

func (m *mockTokenBlacklist) AddAccountTokensToBlacklist(ctx context.Context, accountID string, ttl time.Duration) error {
	args := m.Called(ctx, accountID, ttl)
	return args.Error(0)
}

func (m *mockTokenBlacklist) IsAccountTokenInvalidated(ctx context.Context, accountID string, tokenIssuedAt time.Time) (bool, error) {
	args := m.Called(ctx, accountID, tokenIssuedAt)
	return args.Bool(0), args.Error(1)
}
