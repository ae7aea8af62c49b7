package study

import (
	"github.com/google/uuid"

	"github.com/studyhall/backend/internal/domain/shared"
)

// Aggregate type constant for Quiz
const AggregateTypeQuiz = "Quiz"

// Event type constants for Quiz
const (
	EventTypeQuizRequested        = "QuizRequested"
	EventTypeQuizGenerated        = "QuizGenerated"
	EventTypeQuizGenerationFailed = "QuizGenerationFailed"
)

// QuizRequestedEvent is published when quiz generation is requested
type QuizRequestedEvent struct {
	shared.BaseDomainEvent
	QuizID             uuid.UUID `json:"quiz_id"`
	OwnerID            uuid.UUID `json:"owner_id"`
	BookID             uuid.UUID `json:"book_id"`
	Title              string    `json:"title"`
	RequestedQuestions int       `json:"requested_questions"`
}

// NewQuizRequestedEvent creates a new QuizRequestedEvent
func NewQuizRequestedEvent(quiz *Quiz, requestedQuestions int) *QuizRequestedEvent {
	return &QuizRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeQuizRequested,
			AggregateTypeQuiz,
			quiz.ID,
			uuid.Nil,
		),
		QuizID:             quiz.ID,
		OwnerID:            quiz.OwnerID,
		BookID:             quiz.BookID,
		Title:              quiz.Title,
		RequestedQuestions: requestedQuestions,
	}
}

// QuizGeneratedEvent is published when quiz generation completes
type QuizGeneratedEvent struct {
	shared.BaseDomainEvent
	QuizID        uuid.UUID `json:"quiz_id"`
	OwnerID       uuid.UUID `json:"owner_id"`
	BookID        uuid.UUID `json:"book_id"`
	QuestionCount int       `json:"question_count"`
}

// NewQuizGeneratedEvent creates a new QuizGeneratedEvent
func NewQuizGeneratedEvent(quiz *Quiz) *QuizGeneratedEvent {
	return &QuizGeneratedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeQuizGenerated,
			AggregateTypeQuiz,
			quiz.ID,
			uuid.Nil,
		),
		QuizID:        quiz.ID,
		OwnerID:       quiz.OwnerID,
		BookID:        quiz.BookID,
		QuestionCount: quiz.QuestionCount,
	}
}

// QuizGenerationFailedEvent is published when quiz generation fails
type QuizGenerationFailedEvent struct {
	shared.BaseDomainEvent
	QuizID  uuid.UUID `json:"quiz_id"`
	OwnerID uuid.UUID `json:"owner_id"`
	BookID  uuid.UUID `json:"book_id"`
	Reason  string    `json:"reason"`
}

// NewQuizGenerationFailedEvent creates a new QuizGenerationFailedEvent
func NewQuizGenerationFailedEvent(quiz *Quiz) *QuizGenerationFailedEvent {
	return &QuizGenerationFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeQuizGenerationFailed,
			AggregateTypeQuiz,
			quiz.ID,
			uuid.Nil,
		),
		QuizID:  quiz.ID,
		OwnerID: quiz.OwnerID,
		BookID:  quiz.BookID,
		Reason:  quiz.FailureReason,
	}
}
