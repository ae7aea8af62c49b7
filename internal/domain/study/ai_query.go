package study

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/studyhall/backend/internal/domain/shared"
)

// AIQuery represents an immutable record of a single AI tutor question.
// Once created, query records cannot be modified; the log stores the prompt
// length rather than the prompt text, so tutoring content never reaches the
// database.
type AIQuery struct {
	shared.BaseEntity
	AccountID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	BookID      *uuid.UUID `gorm:"type:uuid;index"` // Book the question was asked about (optional)
	PromptChars int        `gorm:"not null"`
	AnswerChars int        `gorm:"not null;default:0"`
	ModelTag    string     `gorm:"type:varchar(100);not null"`
	AskedAt     time.Time  `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AIQuery) TableName() string {
	return "ai_queries"
}

// NewAIQuery creates a new AI query log record
func NewAIQuery(accountID uuid.UUID, promptChars int, modelTag string) (*AIQuery, error) {
	if accountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_ID", "Account ID cannot be empty")
	}
	if promptChars <= 0 {
		return nil, shared.NewDomainError("INVALID_PROMPT", "Prompt length must be greater than 0")
	}
	if strings.TrimSpace(modelTag) == "" {
		return nil, shared.NewDomainError("INVALID_MODEL_TAG", "Model tag cannot be empty")
	}
	if len(modelTag) > 100 {
		return nil, shared.NewDomainError("INVALID_MODEL_TAG", "Model tag cannot exceed 100 characters")
	}

	return &AIQuery{
		BaseEntity:  shared.NewBaseEntity(),
		AccountID:   accountID,
		PromptChars: promptChars,
		ModelTag:    strings.TrimSpace(modelTag),
		AskedAt:     time.Now(),
	}, nil
}

// WithBook associates the query with the book it was asked about
func (q *AIQuery) WithBook(bookID uuid.UUID) *AIQuery {
	if bookID != uuid.Nil {
		q.BookID = &bookID
	}
	return q
}

// RecordAnswer stores the answer length once the provider responds
func (q *AIQuery) RecordAnswer(answerChars int) {
	if answerChars < 0 {
		answerChars = 0
	}
	q.AnswerChars = answerChars
}
