package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	appstudy "github.com/studyhall/backend/internal/application/study"

	"github.com/studyhall/backend/internal/domain/entitlement"
	"github.com/studyhall/backend/internal/domain/identity"
	"github.com/studyhall/backend/internal/domain/library"
	"github.com/studyhall/backend/internal/domain/shared"
	"github.com/studyhall/backend/internal/domain/study"
)

// mockAccountRepository mocks identity.AccountRepository for handler tests
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

// mockUsageProfileRepository mocks entitlement.UsageProfileRepository

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

// mockSeatPoolRepository mocks entitlement.SeatPoolRepository

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

// mockPlanOverrideRepository mocks entitlement.PlanOverrideRepository

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

type mockBookRepository struct {
	mock.Mock
}

func (m *mockBookRepository) Save(ctx context.Context, book *library.Book) error {
	return m.Called(ctx, book).Error(0)
}

func (m *mockBookRepository) Update(ctx context.Context, book *library.Book) error {
	return m.Called(ctx, book).Error(0)
}

func (m *mockBookRepository) FindByID(ctx context.Context, id uuid.UUID) (*library.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*library.Book), args.Error(1)
}

func (m *mockBookRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*library.Book, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*library.Book), args.Error(1)
}

func (m *mockBookRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]library.Book, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]library.Book), args.Error(1)
}

func (m *mockBookRepository) FindByStorageKey(ctx context.Context, storageKey string) (*library.Book, error) {
	args := m.Called(ctx, storageKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*library.Book), args.Error(1)
}

func (m *mockBookRepository) CountLiveByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockBookRepository) ExistsByStorageKey(ctx context.Context, storageKey string) (bool, error) {
	args := m.Called(ctx, storageKey)
	return args.Bool(0), args.Error(1)
}

type mockUploadGuard struct {
	mock.Mock
}

func (m *mockUploadGuard) CanUploadBook(ctx context.Context, principalID uuid.UUID) entitlement.Decision {
	args := m.Called(ctx, principalID)
	return args.Get(0).(entitlement.Decision)
}

type mockUploadRecorder struct {
	mock.Mock
}

func (m *mockUploadRecorder) RecordBookUpload(ctx context.Context, principalID uuid.UUID) bool {
	return m.Called(ctx, principalID).Bool(0)
}

func (m *mockUploadRecorder) ReleaseBookSlot(ctx context.Context, principalID uuid.UUID) bool {
	return m.Called(ctx, principalID).Bool(0)
}

type mockObjectStorage struct {
	mock.Mock
}

func (m *mockObjectStorage) GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, storageKey, contentType, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *mockObjectStorage) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, storageKey, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *mockObjectStorage) DeleteObject(ctx context.Context, storageKey string) error {
	return m.Called(ctx, storageKey).Error(0)
}

func (m *mockObjectStorage) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	args := m.Called(ctx, storageKey)
	return args.Bool(0), args.Error(1)
}

type mockQuizRepository struct {
	mock.Mock
}

func (m *mockQuizRepository) Save(ctx context.Context, quiz *study.Quiz) error {
	return m.Called(ctx, quiz).Error(0)
}

func (m *mockQuizRepository) Update(ctx context.Context, quiz *study.Quiz) error {
	return m.Called(ctx, quiz).Error(0)
}

func (m *mockQuizRepository) FindByID(ctx context.Context, id uuid.UUID) (*study.Quiz, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*study.Quiz), args.Error(1)
}

func (m *mockQuizRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*study.Quiz, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*study.Quiz), args.Error(1)
}

func (m *mockQuizRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]study.Quiz, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]study.Quiz), args.Error(1)
}

func (m *mockQuizRepository) FindByBook(ctx context.Context, ownerID, bookID uuid.UUID, filter shared.Filter) ([]study.Quiz, error) {
	args := m.Called(ctx, ownerID, bookID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]study.Quiz), args.Error(1)
}

func (m *mockQuizRepository) CountByOwnerSince(ctx context.Context, ownerID uuid.UUID, since time.Time) (int64, error) {
	args := m.Called(ctx, ownerID, since)
	return args.Get(0).(int64), args.Error(1)
}

type mockAIQueryRepository struct {
	mock.Mock
}

func (m *mockAIQueryRepository) Save(ctx context.Context, query *study.AIQuery) error {
	return m.Called(ctx, query).Error(0)
}

func (m *mockAIQueryRepository) FindByAccount(ctx context.Context, accountID uuid.UUID, filter shared.Filter) ([]study.AIQuery, error) {
	args := m.Called(ctx, accountID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]study.AIQuery), args.Error(1)
}

func (m *mockAIQueryRepository) CountByAccountSince(ctx context.Context, accountID uuid.UUID, since time.Time) (int64, error) {
	args := m.Called(ctx, accountID, since)
	return args.Get(0).(int64), args.Error(1)
}

type mockClassRepository struct {
	mock.Mock
}

func (m *mockClassRepository) Save(ctx context.Context, class *study.Class) error {
	return m.Called(ctx, class).Error(0)
}

func (m *mockClassRepository) Update(ctx context.Context, class *study.Class) error {
	return m.Called(ctx, class).Error(0)
}

func (m *mockClassRepository) FindByID(ctx context.Context, id uuid.UUID) (*study.Class, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*study.Class), args.Error(1)
}

func (m *mockClassRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*study.Class, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*study.Class), args.Error(1)
}

func (m *mockClassRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]study.Class, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]study.Class), args.Error(1)
}

func (m *mockClassRepository) CountActiveByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(int64), args.Error(1)
}

type mockQuizGuard struct {
	mock.Mock
}

func (m *mockQuizGuard) CanGenerateQuiz(ctx context.Context, principalID uuid.UUID) entitlement.Decision {
	return m.Called(ctx, principalID).Get(0).(entitlement.Decision)
}

type mockTutorGuard struct {
	mock.Mock
}

func (m *mockTutorGuard) CanMakeAIQuery(ctx context.Context, principalID uuid.UUID) entitlement.Decision {
	return m.Called(ctx, principalID).Get(0).(entitlement.Decision)
}

type mockClassGuard struct {
	mock.Mock
}

func (m *mockClassGuard) CanCreateClass(ctx context.Context, principalID uuid.UUID) entitlement.Decision {
	return m.Called(ctx, principalID).Get(0).(entitlement.Decision)
}

type mockQuizUsageRecorder struct {
	mock.Mock
}

func (m *mockQuizUsageRecorder) RecordQuizGeneration(ctx context.Context, principalID uuid.UUID) bool {
	return m.Called(ctx, principalID).Bool(0)
}

type mockTutorUsageRecorder struct {
	mock.Mock
}

func (m *mockTutorUsageRecorder) RecordAIQuery(ctx context.Context, principalID uuid.UUID) bool {
	return m.Called(ctx, principalID).Bool(0)
}

type mockQuizGenerator struct {
	mock.Mock
}

func (m *mockQuizGenerator) Generate(ctx context.Context, input appstudy.QuizGenerationInput) (*appstudy.QuizGenerationOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appstudy.QuizGenerationOutput), args.Error(1)
}

type mockAnswerProvider struct {
	mock.Mock
}

func (m *mockAnswerProvider) Answer(ctx context.Context, input appstudy.TutorQuestionInput) (*appstudy.TutorAnswer, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appstudy.TutorAnswer), args.Error(1)
}

type mockInstituteRepository struct {
	mock.Mock
}

func (m *mockInstituteRepository) Save(ctx context.Context, institute *identity.Institute) error {
	return m.Called(ctx, institute).Error(0)
}

func (m *mockInstituteRepository) Update(ctx context.Context, institute *identity.Institute) error {
	return m.Called(ctx, institute).Error(0)
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
	return m.Called(ctx, id).Error(0)
}

type mockEnrollmentRepository struct {
	mock.Mock
}

func (m *mockEnrollmentRepository) Save(ctx context.Context, enrollment *identity.Enrollment) error {
	return m.Called(ctx, enrollment).Error(0)
}

func (m *mockEnrollmentRepository) Update(ctx context.Context, enrollment *identity.Enrollment) error {
	return m.Called(ctx, enrollment).Error(0)
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
	return m.Called(ctx, instituteID).Get(0).(entitlement.SeatDecision)
}

type mockSeatMutator struct {
	mock.Mock
}

func (m *mockSeatMutator) ConsumeSeat(ctx context.Context, ownerID uuid.UUID) bool {
	return m.Called(ctx, ownerID).Bool(0)
}

func (m *mockSeatMutator) ReleaseSeat(ctx context.Context, ownerID uuid.UUID) bool {
	return m.Called(ctx, ownerID).Bool(0)
}

type mockPDFRenderer struct {
	mock.Mock
}

func (m *mockPDFRenderer) RenderHTML(ctx context.Context, title, html string) ([]byte, error) {
	args := m.Called(ctx, title, html)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
