package study

import (
	"context"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appentitlement "github.com/studyhall/backend/internal/application/entitlement"
	"github.com/studyhall/backend/internal/domain/entitlement"
	"github.com/studyhall/backend/internal/domain/shared"
	"github.com/studyhall/backend/internal/domain/study"
)

// AnswerProvider is the seam to the external AI tutor. The platform gates
// and counts questions; producing the answers is not its business.
type AnswerProvider interface {
	Answer(ctx context.Context, input TutorQuestionInput) (*TutorAnswer, error)
}

// TutorQuestionInput is the question forwarded to the provider
type TutorQuestionInput struct {
	AccountID uuid.UUID
	Question  string
	BookID    *uuid.UUID
}

// TutorAnswer is the provider's response
type TutorAnswer struct {
	Answer   string
	ModelTag string
}

// TutorGuard answers whether an account may ask another AI question this
// month. Implemented by the entitlement application service.
type TutorGuard interface {
	CanMakeAIQuery(ctx context.Context, principalID uuid.UUID) entitlement.Decision
}

// TutorUsageRecorder draws down the monthly AI query allowance.
// Implemented by the entitlement usage recorder.
type TutorUsageRecorder interface {
	RecordAIQuery(ctx context.Context, principalID uuid.UUID) bool
}

// AIService handles AI tutor questions. The monthly allowance is drawn when
// the question is accepted; a provider failure keeps the draw. The query log
// stores prompt and answer lengths only, never the text.
type AIService struct {
	queryRepo study.AIQueryRepository
	guard     TutorGuard
	usage     TutorUsageRecorder
	provider  AnswerProvider
	logger    *zap.Logger
}

// NewAIService creates a new AIService
func NewAIService(
	queryRepo study.AIQueryRepository,
	guard TutorGuard,
	usage TutorUsageRecorder,
	provider AnswerProvider,
	logger *zap.Logger,
) *AIService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AIService{
		queryRepo: queryRepo,
		guard:     guard,
		usage:     usage,
		provider:  provider,
		logger:    logger,
	}
}

// Ask checks the AI allowance, draws one query from it and forwards the
// question to the provider. The append-only log is best effort: a failed
// log write is reported in the result but never withholds the answer.
func (s *AIService) Ask(ctx context.Context, accountID uuid.UUID, input AskInput) (*AskResult, error) {
	decision := s.guard.CanMakeAIQuery(ctx, accountID)
	if !decision.Allowed {
		return nil, appentitlement.NewLimitReachedError(decision)
	}

	if !s.usage.RecordAIQuery(ctx, accountID) {
		s.logger.Warn("AI query counter not recorded",
			zap.String("account_id", accountID.String()))
	}

	answer, err := s.provider.Answer(ctx, TutorQuestionInput{
		AccountID: accountID,
		Question:  input.Question,
		BookID:    input.BookID,
	})
	if err != nil {
		s.logger.Error("AI provider failed",
			zap.String("account_id", accountID.String()),
			zap.Error(err))
		return nil, shared.NewDomainError("AI_PROVIDER_FAILED", "The tutor could not answer right now")
	}

	record, err := study.NewAIQuery(accountID, utf8.RuneCountInString(input.Question), answer.ModelTag)
	if err != nil {
		return nil, err
	}
	if input.BookID != nil {
		record.WithBook(*input.BookID)
	}
	record.RecordAnswer(utf8.RuneCountInString(answer.Answer))

	recorded := true
	if err := s.queryRepo.Save(ctx, record); err != nil {
		recorded = false
		s.logger.Error("Failed to append AI query log",
			zap.String("account_id", accountID.String()),
			zap.Error(err))
	}

	return &AskResult{
		Answer:   answer.Answer,
		ModelTag: answer.ModelTag,
		AskedAt:  record.AskedAt,
		Recorded: recorded,
	}, nil
}

// ListQueries returns the account's query log, newest first
func (s *AIService) ListQueries(ctx context.Context, accountID uuid.UUID, filter shared.Filter) ([]AIQueryDTO, error) {
	queries, err := s.queryRepo.FindByAccount(ctx, accountID, filter)
	if err != nil {
		return nil, err
	}

	dtos := make([]AIQueryDTO, len(queries))
	for i := range queries {
		dtos[i] = toAIQueryDTO(&queries[i])
	}
	return dtos, nil
}
