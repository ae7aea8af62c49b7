package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	applibrary "github.com/studyhall/backend/internal/application/library"
	"github.com/studyhall/backend/internal/domain/entitlement"
	"github.com/studyhall/backend/internal/domain/library"
	"github.com/studyhall/backend/internal/domain/shared"
	"github.com/studyhall/backend/internal/interfaces/http/dto"
)

type bookHandlerFixture struct {
	router   *gin.Engine
	ownerID  uuid.UUID
	bookRepo *mockBookRepository
	guard    *mockUploadGuard
	usage    *mockUploadRecorder
	storage  *mockObjectStorage
	eventBus *mockEventPublisher
}

func newBookHandlerFixture(t *testing.T, role string) *bookHandlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &bookHandlerFixture{
		ownerID:  uuid.New(),
		bookRepo: new(mockBookRepository),
		guard:    new(mockUploadGuard),
		usage:    new(mockUploadRecorder),
		storage:  new(mockObjectStorage),
		eventBus: new(mockEventPublisher),
	}

	service := applibrary.NewBookService(f.bookRepo, f.guard, f.usage, f.storage, f.eventBus, zap.NewNop())
	handler := NewBookHandler(service)

	f.router = gin.New()
	group := f.router.Group("/api/v1")
	group.Use(principalContext(f.ownerID, nil, role))
	handler.RegisterRoutes(group)
	return f
}

func readyTestBook(t *testing.T, ownerID uuid.UUID) *library.Book {
	t.Helper()
	book, err := library.NewBook(ownerID, "Organic Chemistry",
		"organic-chemistry.pdf", 6_000_000, "application/pdf",
		"accounts/"+ownerID.String()+"/books/"+uuid.New().String()+".pdf")
	require.NoError(t, err)
	require.NoError(t, book.CompleteUpload(512))
	book.ClearDomainEvents()
	return book
}

func pendingTestBook(t *testing.T, ownerID uuid.UUID) *library.Book {
	t.Helper()
	book, err := library.NewBook(ownerID, "Intro to Statistics",
		"intro-stats.pdf", 2_500_000, "application/pdf",
		"accounts/"+ownerID.String()+"/books/"+uuid.New().String()+".pdf")
	require.NoError(t, err)
	book.ClearDomainEvents()
	return book
}

func TestBookHandler_InitiateUpload(t *testing.T) {
	f := newBookHandlerFixture(t, "student")
	expiresAt := time.Now().Add(15 * time.Minute)

	f.guard.On("CanUploadBook", mock.Anything, f.ownerID).
		Return(entitlement.Allow(entitlement.FeatureBookUpload, 2, entitlement.Limited(20)))
	f.bookRepo.On("Save", mock.Anything, mock.AnythingOfType("*library.Book")).Return(nil)
	f.usage.On("RecordBookUpload", mock.Anything, f.ownerID).Return(true)
	f.storage.On("GenerateUploadURL", mock.Anything, mock.AnythingOfType("string"),
		"application/pdf", 15*time.Minute).
		Return("https://storage.example.com/put/xyz", expiresAt, nil)
	f.eventBus.On("Publish", mock.Anything, mock.Anything).Return(nil)

	body, _ := json.Marshal(applibrary.InitiateUploadInput{
		Title:       "Number Theory",
		FileName:    "number-theory.pdf",
		FileSize:    3_000_000,
		ContentType: "application/pdf",
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/library/books", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp dto.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	require.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "https://storage.example.com/put/xyz", data["upload_url"])

	book := data["book"].(map[string]interface{})
	assert.Equal(t, "Number Theory", book["title"])
	assert.Equal(t, "pending", book["status"])
	f.bookRepo.AssertExpectations(t)
}

func TestBookHandler_InitiateUpload_LimitReached(t *testing.T) {
	f := newBookHandlerFixture(t, "student")

	f.guard.On("CanUploadBook", mock.Anything, f.ownerID).
		Return(entitlement.DenyLimitReached(entitlement.FeatureBookUpload, 20, entitlement.Limited(20)))

	body, _ := json.Marshal(applibrary.InitiateUploadInput{
		Title:       "One Book Too Many",
		FileName:    "extra.pdf",
		FileSize:    1_000_000,
		ContentType: "application/pdf",
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/library/books", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)

	var resp dto.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeLimitReached, resp.Error.Code)
	assert.Equal(t, "book upload limit reached", resp.Error.Message)
	assert.True(t, resp.Error.LimitReached)
	assert.Equal(t, int64(20), *resp.Error.Current)
	assert.Equal(t, int64(20), *resp.Error.Limit)
	f.bookRepo.AssertNotCalled(t, "Save")
}

func TestBookHandler_InitiateUpload_InvalidBody(t *testing.T) {
	f := newBookHandlerFixture(t, "student")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/library/books",
		bytes.NewReader([]byte(`{"title":""}`)))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookHandler_List(t *testing.T) {
	f := newBookHandlerFixture(t, "student")

	book := readyTestBook(t, f.ownerID)
	f.bookRepo.On("FindByOwner", mock.Anything, f.ownerID, mock.AnythingOfType("shared.Filter")).
		Return([]library.Book{*book}, nil)
	f.storage.On("GenerateDownloadURL", mock.Anything, book.StorageKey, time.Hour).
		Return("https://storage.example.com/get/xyz", time.Now().Add(time.Hour), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/library/books?page=1&page_size=10", nil)
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	books := resp.Data.([]interface{})
	require.Len(t, books, 1)

	row := books[0].(map[string]interface{})
	assert.Equal(t, "Organic Chemistry", row["title"])
	assert.Equal(t, "ready", row["status"])
	assert.Equal(t, "https://storage.example.com/get/xyz", row["download_url"])
}

func TestBookHandler_GetByID_NotFound(t *testing.T) {
	f := newBookHandlerFixture(t, "student")

	bookID := uuid.New()
	f.bookRepo.On("FindByIDForOwner", mock.Anything, f.ownerID, bookID).
		Return(nil, shared.ErrNotFound)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/library/books/"+bookID.String(), nil)
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookHandler_ConfirmUpload(t *testing.T) {
	f := newBookHandlerFixture(t, "student")

	book, err := library.NewBook(f.ownerID, "Pending Upload",
		"pending.pdf", 2_000_000, "application/pdf",
		"accounts/"+f.ownerID.String()+"/books/"+uuid.New().String()+".pdf")
	require.NoError(t, err)
	book.ClearDomainEvents()

	f.bookRepo.On("FindByIDForOwner", mock.Anything, f.ownerID, book.ID).Return(book, nil)
	f.storage.On("ObjectExists", mock.Anything, book.StorageKey).Return(true, nil)
	f.bookRepo.On("Update", mock.Anything, book).Return(nil)
	f.eventBus.On("Publish", mock.Anything, mock.Anything).Return(nil)
	f.storage.On("GenerateDownloadURL", mock.Anything, book.StorageKey, time.Hour).
		Return("https://storage.example.com/get/fresh", time.Now().Add(time.Hour), nil)

	body, _ := json.Marshal(applibrary.ConfirmUploadInput{PageCount: 120})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost,
		"/api/v1/library/books/"+book.ID.String()+"/complete", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	err = json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "ready", data["status"])
	assert.Equal(t, float64(120), data["page_count"])
}

func TestBookHandler_ConfirmUpload_FileMissing(t *testing.T) {
	f := newBookHandlerFixture(t, "student")

	book, err := library.NewBook(f.ownerID, "Ghost Upload",
		"ghost.pdf", 2_000_000, "application/pdf",
		"accounts/"+f.ownerID.String()+"/books/"+uuid.New().String()+".pdf")
	require.NoError(t, err)
	book.ClearDomainEvents()

	f.bookRepo.On("FindByIDForOwner", mock.Anything, f.ownerID, book.ID).Return(book, nil)
	f.storage.On("ObjectExists", mock.Anything, book.StorageKey).Return(false, nil)

	body, _ := json.Marshal(applibrary.ConfirmUploadInput{PageCount: 0})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost,
		"/api/v1/library/books/"+book.ID.String()+"/complete", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	f.bookRepo.AssertNotCalled(t, "Update")
}

func TestBookHandler_GetDownloadURL_NotReady(t *testing.T) {
	f := newBookHandlerFixture(t, "student")

	book, err := library.NewBook(f.ownerID, "Still Uploading",
		"uploading.pdf", 2_000_000, "application/pdf",
		"accounts/"+f.ownerID.String()+"/books/"+uuid.New().String()+".pdf")
	require.NoError(t, err)

	f.bookRepo.On("FindByIDForOwner", mock.Anything, f.ownerID, book.ID).Return(book, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/library/books/"+book.ID.String()+"/download-url", nil)
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestBookHandler_Delete(t *testing.T) {
	f := newBookHandlerFixture(t, "student")

	book := readyTestBook(t, f.ownerID)
	f.bookRepo.On("FindByIDForOwner", mock.Anything, f.ownerID, book.ID).Return(book, nil)
	f.bookRepo.On("Update", mock.Anything, book).Return(nil)
	f.usage.On("ReleaseBookSlot", mock.Anything, f.ownerID).Return(true)
	f.storage.On("DeleteObject", mock.Anything, book.StorageKey).Return(nil)
	f.eventBus.On("Publish", mock.Anything, mock.Anything).Return(nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/library/books/"+book.ID.String(), nil)
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	f.usage.AssertExpectations(t)
}

func TestBookHandler_FlagDuplicate_RequiresAdmin(t *testing.T) {
	f := newBookHandlerFixture(t, "student")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost,
		"/api/v1/admin/library/books/"+uuid.New().String()+"/flag-duplicate", nil)
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	f.bookRepo.AssertNotCalled(t, "FindByID")
}

func TestBookHandler_FlagDuplicate(t *testing.T) {
	f := newBookHandlerFixture(t, "admin")

	ownerID := uuid.New()
	book := readyTestBook(t, ownerID)
	f.bookRepo.On("FindByID", mock.Anything, book.ID).Return(book, nil)
	f.bookRepo.On("Update", mock.Anything, book).Return(nil)
	f.usage.On("ReleaseBookSlot", mock.Anything, ownerID).Return(true)
	f.eventBus.On("Publish", mock.Anything, mock.Anything).Return(nil)
	f.storage.On("GenerateDownloadURL", mock.Anything, book.StorageKey, time.Hour).
		Return("https://storage.example.com/get/dup", time.Now().Add(time.Hour), nil).Maybe()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost,
		"/api/v1/admin/library/books/"+book.ID.String()+"/flag-duplicate", nil)
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, true, data["duplicate_of_public_library"])
}
