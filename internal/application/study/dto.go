package study

import (
	"time"

	"github.com/google/uuid"

	"github.com/studyhall/backend/internal/domain/study"
)

// GenerateQuizInput requests a quiz generated from one of the caller's books
type GenerateQuizInput struct {
	BookID        uuid.UUID `json:"book_id" binding:"required"`
	Title         string    `json:"title" binding:"required,max=300"`
	QuestionCount int       `json:"question_count" binding:"required,gt=0,max=50"`
}

// QuizDTO is the API representation of a quiz
type QuizDTO struct {
	ID            uuid.UUID `json:"id"`
	BookID        uuid.UUID `json:"book_id"`
	Title         string    `json:"title"`
	Status        string    `json:"status"`
	QuestionCount int       `json:"question_count"`
	FailureReason string    `json:"failure_reason,omitempty"`
	Questions     string    `json:"questions,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AskInput is a question for the AI tutor, optionally about a specific book
type AskInput struct {
	Question string     `json:"question" binding:"required,max=4000"`
	BookID   *uuid.UUID `json:"book_id,omitempty"`
}

// AskResult carries the tutor's answer. Recorded reports whether the query
// made it into the usage log; a false value never blocks the answer.
type AskResult struct {
	Answer   string    `json:"answer"`
	ModelTag string    `json:"model_tag"`
	AskedAt  time.Time `json:"asked_at"`
	Recorded bool      `json:"recorded"`
}

// AIQueryDTO is one row of the account's AI query log
type AIQueryDTO struct {
	ID          uuid.UUID  `json:"id"`
	BookID      *uuid.UUID `json:"book_id,omitempty"`
	PromptChars int        `json:"prompt_chars"`
	AnswerChars int        `json:"answer_chars"`
	ModelTag    string     `json:"model_tag"`
	AskedAt     time.Time  `json:"asked_at"`
}

// CreateClassInput creates a new class for a teacher
type CreateClassInput struct {
	Name    string `json:"name" binding:"required,max=200"`
	Subject string `json:"subject" binding:"max=100"`
}

// UpdateClassInput updates a class's basic information
type UpdateClassInput struct {
	Name        string `json:"name" binding:"required,max=200"`
	Subject     string `json:"subject" binding:"max=100"`
	Description string `json:"description" binding:"max=2000"`
}

// ClassDTO is the API representation of a class
type ClassDTO struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Subject     string     `json:"subject,omitempty"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toQuizDTO(quiz *study.Quiz) QuizDTO {
	dto := QuizDTO{
		ID:            quiz.ID,
		BookID:        quiz.BookID,
		Title:         quiz.Title,
		Status:        string(quiz.Status),
		QuestionCount: quiz.QuestionCount,
		FailureReason: quiz.FailureReason,
		CreatedAt:     quiz.CreatedAt,
		UpdatedAt:     quiz.UpdatedAt,
	}
	if quiz.IsReady() {
		dto.Questions = quiz.Questions
	}
	return dto
}

func toAIQueryDTO(query *study.AIQuery) AIQueryDTO {
	return AIQueryDTO{
		ID:          query.ID,
		BookID:      query.BookID,
		PromptChars: query.PromptChars,
		AnswerChars: query.AnswerChars,
		ModelTag:    query.ModelTag,
		AskedAt:     query.AskedAt,
	}
}

func toClassDTO(class *study.Class) ClassDTO {
	return ClassDTO{
		ID:          class.ID,
		Name:        class.Name,
		Subject:     class.Subject,
		Description: class.Description,
		Status:      string(class.Status),
		ArchivedAt:  class.ArchivedAt,
		CreatedAt:   class.CreatedAt,
		UpdatedAt:   class.UpdatedAt,
	}
}
