package study

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appentitlement "github.com/studyhall/backend/internal/application/entitlement"
	"github.com/studyhall/backend/internal/domain/entitlement"
	"github.com/studyhall/backend/internal/domain/library"
	"github.com/studyhall/backend/internal/domain/shared"
	"github.com/studyhall/backend/internal/domain/study"
)

// QuizGenerator is the seam to the external question generator. The
// platform stores what comes back; generating the questions themselves is
// not its business.
type QuizGenerator interface {
	// Generate produces questions for a stored book. QuestionsJSON is a
	// JSON array; the generator may return fewer questions than requested.
	Generate(ctx context.Context, input QuizGenerationInput) (*QuizGenerationOutput, error)
}

// QuizGenerationInput describes the source material for the generator
type QuizGenerationInput struct {
	BookID        uuid.UUID
	StorageKey    string
	Title         string
	QuestionCount int
}

// QuizGenerationOutput is the generator's result
type QuizGenerationOutput struct {
	QuestionsJSON string
	QuestionCount int
}

// QuizGuard answers whether an account may generate another quiz this month.
// Implemented by the entitlement application service.
type QuizGuard interface {
	CanGenerateQuiz(ctx context.Context, principalID uuid.UUID) entitlement.Decision
}

// QuizUsageRecorder draws down the monthly quiz allowance.
// Implemented by the entitlement usage recorder.
type QuizUsageRecorder interface {
	RecordQuizGeneration(ctx context.Context, principalID uuid.UUID) bool
}

// QuizService handles quiz generation and retrieval. The monthly allowance
// is drawn when generation is requested; a failed generation keeps the draw,
// matching how the generator seam is billed.
type QuizService struct {
	quizRepo  study.QuizRepository
	bookRepo  library.BookRepository
	guard     QuizGuard
	usage     QuizUsageRecorder
	generator QuizGenerator
	eventBus  shared.EventPublisher
	logger    *zap.Logger
}

// NewQuizService creates a new QuizService
func NewQuizService(
	quizRepo study.QuizRepository,
	bookRepo library.BookRepository,
	guard QuizGuard,
	usage QuizUsageRecorder,
	generator QuizGenerator,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *QuizService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuizService{
		quizRepo:  quizRepo,
		bookRepo:  bookRepo,
		guard:     guard,
		usage:     usage,
		generator: generator,
		eventBus:  eventBus,
		logger:    logger,
	}
}

// Generate checks the quiz allowance, draws one generation from it and runs
// the generator against one of the caller's ready books. Generation is
// synchronous; the returned quiz is either ready or failed, never pending.
func (s *QuizService) Generate(ctx context.Context, ownerID uuid.UUID, input GenerateQuizInput) (*QuizDTO, error) {
	decision := s.guard.CanGenerateQuiz(ctx, ownerID)
	if !decision.Allowed {
		return nil, appentitlement.NewLimitReachedError(decision)
	}

	book, err := s.bookRepo.FindByIDForOwner(ctx, ownerID, input.BookID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("BOOK_NOT_FOUND", "Book not found")
		}
		return nil, err
	}
	if !book.IsReady() {
		return nil, shared.NewDomainError("BOOK_NOT_READY", "Book upload has not been completed")
	}

	quiz, err := study.NewQuiz(ownerID, book.ID, input.Title, input.QuestionCount)
	if err != nil {
		return nil, err
	}

	if err := s.quizRepo.Save(ctx, quiz); err != nil {
		return nil, err
	}

	// The allowance is drawn here, before the generator runs. A failed
	// generation does not refund it.
	if !s.usage.RecordQuizGeneration(ctx, ownerID) {
		s.logger.Warn("Quiz counter not recorded",
			zap.String("quiz_id", quiz.ID.String()),
			zap.String("owner_id", ownerID.String()))
	}

	output, genErr := s.generator.Generate(ctx, QuizGenerationInput{
		BookID:        book.ID,
		StorageKey:    book.StorageKey,
		Title:         input.Title,
		QuestionCount: input.QuestionCount,
	})
	if genErr != nil {
		s.logger.Error("Quiz generation failed",
			zap.String("quiz_id", quiz.ID.String()),
			zap.String("book_id", book.ID.String()),
			zap.Error(genErr))
		if err := quiz.MarkFailed("quiz generation failed"); err != nil {
			return nil, err
		}
	} else {
		if err := quiz.MarkReady(output.QuestionsJSON, output.QuestionCount); err != nil {
			return nil, err
		}
	}

	if err := s.quizRepo.Update(ctx, quiz); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, quiz)

	dto := toQuizDTO(quiz)
	return &dto, nil
}

// GetByID retrieves a quiz owned by the account
func (s *QuizService) GetByID(ctx context.Context, ownerID, quizID uuid.UUID) (*QuizDTO, error) {
	quiz, err := s.quizRepo.FindByIDForOwner(ctx, ownerID, quizID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("QUIZ_NOT_FOUND", "Quiz not found")
		}
		return nil, err
	}

	dto := toQuizDTO(quiz)
	return &dto, nil
}

// List returns the account's quizzes
func (s *QuizService) List(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]QuizDTO, error) {
	quizzes, err := s.quizRepo.FindByOwner(ctx, ownerID, filter)
	if err != nil {
		return nil, err
	}
	return toQuizDTOs(quizzes), nil
}

// ListByBook returns the account's quizzes generated from one book
func (s *QuizService) ListByBook(ctx context.Context, ownerID, bookID uuid.UUID, filter shared.Filter) ([]QuizDTO, error) {
	quizzes, err := s.quizRepo.FindByBook(ctx, ownerID, bookID, filter)
	if err != nil {
		return nil, err
	}
	return toQuizDTOs(quizzes), nil
}

func toQuizDTOs(quizzes []study.Quiz) []QuizDTO {
	dtos := make([]QuizDTO, len(quizzes))
	for i := range quizzes {
		dtos[i] = toQuizDTO(&quizzes[i])
	}
	return dtos
}

func (s *QuizService) publishEvents(ctx context.Context, quiz *study.Quiz) {
	events := quiz.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	quiz.ClearDomainEvents()
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish quiz events",
			zap.String("quiz_id", quiz.ID.String()),
			zap.Error(err))
	}
}
