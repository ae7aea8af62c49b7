// Package tutoring holds the outbound adapters for the AI tutor and the
// quiz generator. Only stub adapters ship in this repository; production
// deployments swap in adapters for the real model endpoints.
package tutoring

import (
	"context"
	"encoding/json"
	"fmt"

	appstudy "github.com/studyhall/backend/internal/application/study"
)

// StubQuizGenerator is a placeholder implementation of the quiz generator
// seam. It fabricates deterministic questions from the book title.
// Use this for development until a real generation backend is configured.
type StubQuizGenerator struct{}

// NewStubQuizGenerator creates a new StubQuizGenerator
func NewStubQuizGenerator() *StubQuizGenerator {
	return &StubQuizGenerator{}
}

// Ensure StubQuizGenerator implements the application seam
var _ appstudy.QuizGenerator = (*StubQuizGenerator)(nil)

type stubQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   int      `json:"answer"`
}

// Generate produces the requested number of placeholder questions
func (g *StubQuizGenerator) Generate(ctx context.Context, input appstudy.QuizGenerationInput) (*appstudy.QuizGenerationOutput, error) {
	if input.QuestionCount <= 0 {
		return nil, fmt.Errorf("generate: question count must be positive")
	}

	questions := make([]stubQuestion, 0, input.QuestionCount)
	for i := 1; i <= input.QuestionCount; i++ {
		questions = append(questions, stubQuestion{
			Question: fmt.Sprintf("Placeholder question %d about %q", i, input.Title),
			Options:  []string{"Option A", "Option B", "Option C", "Option D"},
			Answer:   i % 4,
		})
	}

	payload, err := json.Marshal(questions)
	if err != nil {
		return nil, fmt.Errorf("generate: failed to marshal questions: %w", err)
	}

	return &appstudy.QuizGenerationOutput{
		QuestionsJSON: string(payload),
		QuestionCount: len(questions),
	}, nil
}

// StubAnswerProvider is a placeholder implementation of the AI tutor seam.
// It echoes a canned answer so the request pipeline can be exercised
// end to end without a model endpoint.
type StubAnswerProvider struct {
	// ModelTag is reported on every answer. Defaults to "stub-tutor".
	ModelTag string
}

// NewStubAnswerProvider creates a new StubAnswerProvider
func NewStubAnswerProvider() *StubAnswerProvider {
	return &StubAnswerProvider{ModelTag: "stub-tutor"}
}

// Ensure StubAnswerProvider implements the application seam
var _ appstudy.AnswerProvider = (*StubAnswerProvider)(nil)

// Answer returns a canned response for the question
func (p *StubAnswerProvider) Answer(ctx context.Context, input appstudy.TutorQuestionInput) (*appstudy.TutorAnswer, error) {
	if input.Question == "" {
		return nil, fmt.Errorf("answer: question is empty")
	}

	tag := p.ModelTag
	if tag == "" {
		tag = "stub-tutor"
	}

	return &appstudy.TutorAnswer{
		Answer:   "This is a placeholder answer. Connect a real tutoring backend to get actual responses.",
		ModelTag: tag,
	}, nil
}
