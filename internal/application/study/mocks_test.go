package study

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/studyhall/backend/internal/domain/entitlement"
	"github.com/studyhall/backend/internal/domain/library"
	"github.com/studyhall/backend/internal/domain/shared"
	"github.com/studyhall/backend/internal/domain/study"
)

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

func (m *mockQuizGenerator) Generate(ctx context.Context, input QuizGenerationInput) (*QuizGenerationOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*QuizGenerationOutput), args.Error(1)
}

type mockAnswerProvider struct {
	mock.Mock
}

func (m *mockAnswerProvider) Answer(ctx context.Context, input TutorQuestionInput) (*TutorAnswer, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*TutorAnswer), args.Error(1)
}

type mockEventPublisher struct {
	mock.Mock
}

func (m *mockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return m.Called(ctx, events).Error(0)
}
