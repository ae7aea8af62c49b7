package study

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/studyhall/backend/internal/domain/shared"
)

// MaxQuizQuestions is the maximum number of questions a single quiz may hold
const MaxQuizQuestions = 50

// QuizStatus represents the generation status of a quiz
type QuizStatus string

const (
	// QuizStatusPending means generation has been requested but the
	// generated questions have not been stored yet.
	QuizStatusPending QuizStatus = "pending"
	QuizStatusReady   QuizStatus = "ready"
	QuizStatusFailed  QuizStatus = "failed"
)

// IsValid checks if the quiz status is valid
func (s QuizStatus) IsValid() bool {
	switch s {
	case QuizStatusPending, QuizStatusReady, QuizStatusFailed:
		return true
	default:
		return false
	}
}

// Quiz represents a quiz generated from one of the owner's books.
// Quiz generation draws down the owner's monthly quiz allowance at request
// time; a failed generation does not refund the draw.
type Quiz struct {
	shared.BaseAggregateRoot
	OwnerID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	BookID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	Title         string     `gorm:"type:varchar(300);not null"`
	QuestionCount int        `gorm:"not null;default:0"`
	Status        QuizStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	FailureReason string     `gorm:"type:varchar(500)"`
	Questions     string     `gorm:"type:jsonb"` // JSON storage for generated questions
}

// TableName returns the table name for GORM
func (Quiz) TableName() string {
	return "quizzes"
}

// NewQuiz creates a new quiz in pending status.
// requestedQuestions is the number of questions asked of the generator; the
// stored QuestionCount is set when generation completes.
func NewQuiz(ownerID, bookID uuid.UUID, title string, requestedQuestions int) (*Quiz, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER_ID", "Owner ID cannot be empty")
	}
	if bookID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BOOK_ID", "Book ID cannot be empty")
	}
	if err := validateQuizTitle(title); err != nil {
		return nil, err
	}
	if requestedQuestions <= 0 {
		return nil, shared.NewDomainError("INVALID_QUESTION_COUNT", "Question count must be greater than 0")
	}
	if requestedQuestions > MaxQuizQuestions {
		return nil, shared.NewDomainError("INVALID_QUESTION_COUNT", "Question count cannot exceed 50")
	}

	quiz := &Quiz{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OwnerID:           ownerID,
		BookID:            bookID,
		Title:             strings.TrimSpace(title),
		Status:            QuizStatusPending,
		Questions:         "[]",
	}

	quiz.AddDomainEvent(NewQuizRequestedEvent(quiz, requestedQuestions))

	return quiz, nil
}

// MarkReady stores the generated questions and marks the quiz as ready.
// questionsJSON is the generator output serialized as a JSON array; the
// generator may return fewer questions than requested.
func (q *Quiz) MarkReady(questionsJSON string, questionCount int) error {
	if q.Status != QuizStatusPending {
		return shared.NewDomainError("INVALID_QUIZ_STATE", "Only pending quizzes can be marked ready")
	}
	if questionCount <= 0 {
		return shared.NewDomainError("INVALID_QUESTION_COUNT", "Generated quiz must contain at least one question")
	}
	if strings.TrimSpace(questionsJSON) == "" {
		return shared.NewDomainError("INVALID_QUESTIONS", "Generated questions cannot be empty")
	}

	q.Status = QuizStatusReady
	q.Questions = questionsJSON
	q.QuestionCount = questionCount
	q.UpdatedAt = time.Now()
	q.IncrementVersion()

	q.AddDomainEvent(NewQuizGeneratedEvent(q))

	return nil
}

// MarkFailed records a generation failure.
// The reason is shown to the owner, so it must not leak provider internals.
func (q *Quiz) MarkFailed(reason string) error {
	if q.Status != QuizStatusPending {
		return shared.NewDomainError("INVALID_QUIZ_STATE", "Only pending quizzes can be marked failed")
	}

	if len(reason) > 500 {
		reason = reason[:500]
	}
	q.Status = QuizStatusFailed
	q.FailureReason = reason
	q.UpdatedAt = time.Now()
	q.IncrementVersion()

	q.AddDomainEvent(NewQuizGenerationFailedEvent(q))

	return nil
}

// IsPending returns true if generation is still in flight
func (q *Quiz) IsPending() bool {
	return q.Status == QuizStatusPending
}

// IsReady returns true if the quiz is generated and playable
func (q *Quiz) IsReady() bool {
	return q.Status == QuizStatusReady
}

// IsFailed returns true if generation failed
func (q *Quiz) IsFailed() bool {
	return q.Status == QuizStatusFailed
}

func validateQuizTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return shared.NewDomainError("INVALID_TITLE", "Quiz title cannot be empty")
	}
	if len(trimmed) > 300 {
		return shared.NewDomainError("INVALID_TITLE", "Quiz title cannot exceed 300 characters")
	}
	return nil
}
