package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appstudy "github.com/studyhall/backend/internal/application/study"
	"github.com/studyhall/backend/internal/domain/entitlement"
	"github.com/studyhall/backend/internal/domain/study"
	"github.com/studyhall/backend/internal/interfaces/http/dto"
)

type studyHandlerFixture struct {
	router     *gin.Engine
	accountID  uuid.UUID
	quizRepo   *mockQuizRepository
	bookRepo   *mockBookRepository
	queryRepo  *mockAIQueryRepository
	classRepo  *mockClassRepository
	quizGuard  *mockQuizGuard
	tutorGuard *mockTutorGuard
	classGuard *mockClassGuard
	quizUsage  *mockQuizUsageRecorder
	tutorUsage *mockTutorUsageRecorder
	generator  *mockQuizGenerator
	provider   *mockAnswerProvider
	eventBus   *mockEventPublisher
}

func newStudyHandlerFixture(t *testing.T, role string) *studyHandlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &studyHandlerFixture{
		accountID:  uuid.New(),
		quizRepo:   new(mockQuizRepository),
		bookRepo:   new(mockBookRepository),
		queryRepo:  new(mockAIQueryRepository),
		classRepo:  new(mockClassRepository),
		quizGuard:  new(mockQuizGuard),
		tutorGuard: new(mockTutorGuard),
		classGuard: new(mockClassGuard),
		quizUsage:  new(mockQuizUsageRecorder),
		tutorUsage: new(mockTutorUsageRecorder),
		generator:  new(mockQuizGenerator),
		provider:   new(mockAnswerProvider),
		eventBus:   new(mockEventPublisher),
	}

	logger := zap.NewNop()
	quizService := appstudy.NewQuizService(
		f.quizRepo, f.bookRepo, f.quizGuard, f.quizUsage, f.generator, f.eventBus, logger)
	aiService := appstudy.NewAIService(
		f.queryRepo, f.tutorGuard, f.tutorUsage, f.provider, logger)
	classService := appstudy.NewClassService(f.classRepo, f.classGuard, f.eventBus, logger)

	handler := NewStudyHandler(quizService, aiService, classService)

	f.router = gin.New()
	group := f.router.Group("/api/v1")
	group.Use(principalContext(f.accountID, nil, role))
	handler.RegisterRoutes(group)
	return f
}

func TestStudyHandler_GenerateQuiz(t *testing.T) {
	f := newStudyHandlerFixture(t, "student")

	book := readyTestBook(t, f.accountID)
	f.quizGuard.On("CanGenerateQuiz", mock.Anything, f.accountID).
		Return(entitlement.Allow(entitlement.FeatureQuizGeneration, 3, entitlement.Limited(10)))
	f.bookRepo.On("FindByIDForOwner", mock.Anything, f.accountID, book.ID).Return(book, nil)
	f.quizRepo.On("Save", mock.Anything, mock.AnythingOfType("*study.Quiz")).Return(nil)
	f.quizUsage.On("RecordQuizGeneration", mock.Anything, f.accountID).Return(true)
	f.generator.On("Generate", mock.Anything, mock.AnythingOfType("study.QuizGenerationInput")).
		Return(&appstudy.QuizGenerationOutput{
			QuestionsJSON: `[{"q":"What is a functional group?"}]`,
			QuestionCount: 1,
		}, nil)
	f.quizRepo.On("Update", mock.Anything, mock.AnythingOfType("*study.Quiz")).Return(nil)
	f.eventBus.On("Publish", mock.Anything, mock.Anything).Return(nil)

	body, _ := json.Marshal(appstudy.GenerateQuizInput{
		BookID:        book.ID,
		Title:         "Chapter 3 Review",
		QuestionCount: 10,
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/study/quizzes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp dto.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	require.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "Chapter 3 Review", data["title"])
	assert.Equal(t, "ready", data["status"])
	assert.NotEmpty(t, data["questions"])
	f.quizUsage.AssertExpectations(t)
}

func TestStudyHandler_GenerateQuiz_LimitReached(t *testing.T) {
	f := newStudyHandlerFixture(t, "student")

	f.quizGuard.On("CanGenerateQuiz", mock.Anything, f.accountID).
		Return(entitlement.DenyLimitReached(entitlement.FeatureQuizGeneration, 10, entitlement.Limited(10)))

	body, _ := json.Marshal(appstudy.GenerateQuizInput{
		BookID:        uuid.New(),
		Title:         "One More Quiz",
		QuestionCount: 5,
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/study/quizzes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)

	var resp dto.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeLimitReached, resp.Error.Code)
	assert.Equal(t, "quiz generation limit reached", resp.Error.Message)
	assert.True(t, resp.Error.LimitReached)
	f.quizRepo.AssertNotCalled(t, "Save")
}

func TestStudyHandler_GenerateQuiz_BookNotReady(t *testing.T) {
	f := newStudyHandlerFixture(t, "student")

	pending := pendingTestBook(t, f.accountID)
	f.quizGuard.On("CanGenerateQuiz", mock.Anything, f.accountID).
		Return(entitlement.Allow(entitlement.FeatureQuizGeneration, 0, entitlement.Limited(10)))
	f.bookRepo.On("FindByIDForOwner", mock.Anything, f.accountID, pending.ID).Return(pending, nil)

	body, _ := json.Marshal(appstudy.GenerateQuizInput{
		BookID:        pending.ID,
		Title:         "Too Soon",
		QuestionCount: 5,
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/study/quizzes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	f.quizUsage.AssertNotCalled(t, "RecordQuizGeneration")
}

func TestStudyHandler_ListQuizzes_ByBook(t *testing.T) {
	f := newStudyHandlerFixture(t, "student")

	bookID := uuid.New()
	quiz, err := study.NewQuiz(f.accountID, bookID, "Midterm Prep", 12)
	require.NoError(t, err)

	f.quizRepo.On("FindByBook", mock.Anything, f.accountID, bookID, mock.AnythingOfType("shared.Filter")).
		Return([]study.Quiz{*quiz}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/study/quizzes?book_id="+bookID.String(), nil)
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	err = json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	quizzes := resp.Data.([]interface{})
	require.Len(t, quizzes, 1)
	assert.Equal(t, "Midterm Prep", quizzes[0].(map[string]interface{})["title"])
}

func TestStudyHandler_Ask(t *testing.T) {
	f := newStudyHandlerFixture(t, "student")

	f.tutorGuard.On("CanMakeAIQuery", mock.Anything, f.accountID).
		Return(entitlement.Allow(entitlement.FeatureAIQuery, 12, entitlement.Limited(50)))
	f.tutorUsage.On("RecordAIQuery", mock.Anything, f.accountID).Return(true)
	f.provider.On("Answer", mock.Anything, mock.AnythingOfType("study.TutorQuestionInput")).
		Return(&appstudy.TutorAnswer{
			Answer:   "A derivative measures the instantaneous rate of change.",
			ModelTag: "tutor-v2",
		}, nil)
	f.queryRepo.On("Save", mock.Anything, mock.AnythingOfType("*study.AIQuery")).Return(nil)

	body, _ := json.Marshal(appstudy.AskInput{Question: "What is a derivative?"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/study/ai/queries", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "A derivative measures the instantaneous rate of change.", data["answer"])
	assert.Equal(t, "tutor-v2", data["model_tag"])
	assert.Equal(t, true, data["recorded"])
}

func TestStudyHandler_Ask_LimitReached(t *testing.T) {
	f := newStudyHandlerFixture(t, "student")

	f.tutorGuard.On("CanMakeAIQuery", mock.Anything, f.accountID).
		Return(entitlement.DenyLimitReached(entitlement.FeatureAIQuery, 50, entitlement.Limited(50)))

	body, _ := json.Marshal(appstudy.AskInput{Question: "One more question?"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/study/ai/queries", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)

	var resp dto.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ai query limit reached", resp.Error.Message)
	f.provider.AssertNotCalled(t, "Answer")
}

func TestStudyHandler_CreateClass(t *testing.T) {
	f := newStudyHandlerFixture(t, "teacher")

	f.classGuard.On("CanCreateClass", mock.Anything, f.accountID).
		Return(entitlement.Allow(entitlement.FeatureClassCreation, 1, entitlement.Limited(5)))
	f.classRepo.On("Save", mock.Anything, mock.AnythingOfType("*study.Class")).Return(nil)
	f.eventBus.On("Publish", mock.Anything, mock.Anything).Return(nil)

	body, _ := json.Marshal(appstudy.CreateClassInput{Name: "AP Biology", Subject: "biology"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/study/classes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp dto.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "AP Biology", data["name"])
	assert.Equal(t, "active", data["status"])
}

func TestStudyHandler_CreateClass_ForbiddenForStudent(t *testing.T) {
	f := newStudyHandlerFixture(t, "student")

	body, _ := json.Marshal(appstudy.CreateClassInput{Name: "Sneaky Class"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/study/classes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	f.classGuard.AssertNotCalled(t, "CanCreateClass")
}

func TestStudyHandler_ArchiveClass(t *testing.T) {
	f := newStudyHandlerFixture(t, "teacher")

	class, err := study.NewClass(f.accountID, "World History", "history")
	require.NoError(t, err)
	class.ClearDomainEvents()

	f.classRepo.On("FindByIDForOwner", mock.Anything, f.accountID, class.ID).Return(class, nil)
	f.classRepo.On("Update", mock.Anything, class).Return(nil)
	f.eventBus.On("Publish", mock.Anything, mock.Anything).Return(nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost,
		"/api/v1/study/classes/"+class.ID.String()+"/archive", nil)
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	err = json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "archived", data["status"])
	assert.NotNil(t, data["archived_at"])
}
