package library

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appentitlement "github.com/studyhall/backend/internal/application/entitlement"
	"github.com/studyhall/backend/internal/domain/entitlement"
	"github.com/studyhall/backend/internal/domain/library"
	"github.com/studyhall/backend/internal/domain/shared"
)

// ObjectStorageService defines the interface for object storage operations.
// This interface is implemented by the infrastructure layer (S3, RustFS, etc.)
type ObjectStorageService interface {
	// GenerateUploadURL generates a presigned URL for uploading a file
	// Returns the upload URL and expiration time
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)

	// GenerateDownloadURL generates a presigned URL for downloading a file
	// Returns the download URL and expiration time
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)

	// DeleteObject deletes an object from storage
	DeleteObject(ctx context.Context, storageKey string) error

	// ObjectExists checks if an object exists in storage
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}

// UploadGuard answers whether an account may upload another book.
// Implemented by the entitlement application service.
type UploadGuard interface {
	CanUploadBook(ctx context.Context, principalID uuid.UUID) entitlement.Decision
}

// UploadRecorder keeps the cached book counter in step with the library.
// Implemented by the entitlement usage recorder.
type UploadRecorder interface {
	RecordBookUpload(ctx context.Context, principalID uuid.UUID) bool
	ReleaseBookSlot(ctx context.Context, principalID uuid.UUID) bool
}

// BookServiceConfig holds configuration for the book service
type BookServiceConfig struct {
	// UploadURLExpiry is the duration for which presigned upload URLs are valid
	UploadURLExpiry time.Duration
	// DownloadURLExpiry is the duration for which presigned download URLs are valid
	DownloadURLExpiry time.Duration
}

// DefaultBookServiceConfig returns the default configuration
func DefaultBookServiceConfig() BookServiceConfig {
	return BookServiceConfig{
		UploadURLExpiry:   15 * time.Minute,
		DownloadURLExpiry: 1 * time.Hour,
	}
}

// BookService handles personal library operations. Uploads are gated by the
// book upload allowance: the guard is consulted before a record is created,
// and the allowance slot is taken while the book is still pending so two
// in-flight uploads cannot both slip under the limit.
type BookService struct {
	bookRepo library.BookRepository
	guard    UploadGuard
	usage    UploadRecorder
	storage  ObjectStorageService
	eventBus shared.EventPublisher
	config   BookServiceConfig
	logger   *zap.Logger
}

// NewBookService creates a new BookService
func NewBookService(
	bookRepo library.BookRepository,
	guard UploadGuard,
	usage UploadRecorder,
	storage ObjectStorageService,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *BookService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookService{
		bookRepo: bookRepo,
		guard:    guard,
		usage:    usage,
		storage:  storage,
		eventBus: eventBus,
		config:   DefaultBookServiceConfig(),
		logger:   logger,
	}
}

// SetConfig sets the service configuration
func (s *BookService) SetConfig(config BookServiceConfig) {
	s.config = config
}

// InitiateUpload checks the upload allowance, creates a pending book record
// and returns a presigned upload URL. The pending record already occupies an
// allowance slot; ConfirmUpload only flips the status once the file is in
// storage.
func (s *BookService) InitiateUpload(
	ctx context.Context,
	ownerID uuid.UUID,
	input InitiateUploadInput,
) (*InitiateUploadResult, error) {
	decision := s.guard.CanUploadBook(ctx, ownerID)
	if !decision.Allowed {
		return nil, appentitlement.NewLimitReachedError(decision)
	}

	storageKey := s.generateStorageKey(ownerID, input.FileName)

	book, err := library.NewBook(
		ownerID,
		input.Title,
		input.FileName,
		input.FileSize,
		input.ContentType,
		storageKey,
	)
	if err != nil {
		return nil, err
	}

	if err := s.bookRepo.Save(ctx, book); err != nil {
		return nil, err
	}

	// The pending record holds its slot; the live recount already sees it,
	// this keeps the cached counter in step.
	if !s.usage.RecordBookUpload(ctx, ownerID) {
		s.logger.Warn("Book counter not recorded for pending upload",
			zap.String("book_id", book.ID.String()),
			zap.String("owner_id", ownerID.String()))
	}

	uploadURL, expiresAt, err := s.storage.GenerateUploadURL(
		ctx,
		storageKey,
		input.ContentType,
		s.config.UploadURLExpiry,
	)
	if err != nil {
		// Roll the pending record back so the slot is not lost.
		if delErr := book.Delete(); delErr == nil {
			if updErr := s.bookRepo.Update(ctx, book); updErr != nil {
				s.logger.Error("Failed to roll back pending book after presign failure",
					zap.String("book_id", book.ID.String()),
					zap.Error(updErr))
			}
		}
		s.usage.ReleaseBookSlot(ctx, ownerID)
		return nil, shared.NewDomainError("UPLOAD_URL_FAILED", "Failed to generate upload URL")
	}

	s.publishEvents(ctx, book)

	return &InitiateUploadResult{
		Book:            toBookDTO(book),
		UploadURL:       uploadURL,
		UploadExpiresAt: expiresAt,
	}, nil
}

// ConfirmUpload verifies the file landed in storage and marks the book ready
func (s *BookService) ConfirmUpload(
	ctx context.Context,
	ownerID, bookID uuid.UUID,
	input ConfirmUploadInput,
) (*BookDTO, error) {
	book, err := s.findForOwner(ctx, ownerID, bookID)
	if err != nil {
		return nil, err
	}

	exists, err := s.storage.ObjectExists(ctx, book.StorageKey)
	if err != nil {
		return nil, shared.NewDomainError("STORAGE_CHECK_FAILED", "Failed to verify upload")
	}
	if !exists {
		return nil, shared.NewDomainError("UPLOAD_NOT_FOUND",
			"File not found in storage. Please upload the file first.")
	}

	if err := book.CompleteUpload(input.PageCount); err != nil {
		return nil, err
	}

	if err := s.bookRepo.Update(ctx, book); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, book)

	dto := toBookDTO(book)
	s.enrichWithDownloadURL(ctx, &dto, book)
	return &dto, nil
}

// GetByID retrieves a book owned by the account
func (s *BookService) GetByID(ctx context.Context, ownerID, bookID uuid.UUID) (*BookDTO, error) {
	book, err := s.findForOwner(ctx, ownerID, bookID)
	if err != nil {
		return nil, err
	}

	dto := toBookDTO(book)
	s.enrichWithDownloadURL(ctx, &dto, book)
	return &dto, nil
}

// List returns the account's books, excluding deleted ones
func (s *BookService) List(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]BookDTO, error) {
	books, err := s.bookRepo.FindByOwner(ctx, ownerID, filter)
	if err != nil {
		return nil, err
	}

	dtos := make([]BookDTO, len(books))
	for i := range books {
		dtos[i] = toBookDTO(&books[i])
		s.enrichWithDownloadURL(ctx, &dtos[i], &books[i])
	}
	return dtos, nil
}

// GetDownloadURL returns a presigned GET URL for a ready book
func (s *BookService) GetDownloadURL(ctx context.Context, ownerID, bookID uuid.UUID) (*DownloadURLResult, error) {
	book, err := s.findForOwner(ctx, ownerID, bookID)
	if err != nil {
		return nil, err
	}
	if !book.IsReady() {
		return nil, shared.NewDomainError("BOOK_NOT_READY", "Book upload has not been completed")
	}

	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, book.StorageKey, s.config.DownloadURLExpiry)
	if err != nil {
		return nil, shared.NewDomainError("DOWNLOAD_URL_FAILED", "Failed to generate download URL")
	}

	return &DownloadURLResult{DownloadURL: url, ExpiresAt: expiresAt}, nil
}

// Rename updates a book's title
func (s *BookService) Rename(ctx context.Context, ownerID, bookID uuid.UUID, input RenameInput) (*BookDTO, error) {
	book, err := s.findForOwner(ctx, ownerID, bookID)
	if err != nil {
		return nil, err
	}

	if err := book.Rename(input.Title); err != nil {
		return nil, err
	}

	if err := s.bookRepo.Update(ctx, book); err != nil {
		return nil, err
	}

	dto := toBookDTO(book)
	s.enrichWithDownloadURL(ctx, &dto, book)
	return &dto, nil
}

// Delete soft-deletes a book and frees its allowance slot. The stored file
// is removed best effort; a failed object delete never blocks the operation.
func (s *BookService) Delete(ctx context.Context, ownerID, bookID uuid.UUID) error {
	book, err := s.findForOwner(ctx, ownerID, bookID)
	if err != nil {
		return err
	}

	heldSlot := book.CountsAgainstAllowance()

	if err := book.Delete(); err != nil {
		return err
	}

	if err := s.bookRepo.Update(ctx, book); err != nil {
		return err
	}

	if heldSlot {
		s.usage.ReleaseBookSlot(ctx, ownerID)
	}

	if err := s.storage.DeleteObject(ctx, book.StorageKey); err != nil {
		s.logger.Warn("Failed to delete book file from storage",
			zap.String("book_id", book.ID.String()),
			zap.String("storage_key", book.StorageKey),
			zap.Error(err))
	}

	s.publishEvents(ctx, book)
	return nil
}

// FlagDuplicate marks a book as a duplicate of a public library title and
// frees its allowance slot. Called by the deduplication job, not by owners.
func (s *BookService) FlagDuplicate(ctx context.Context, bookID uuid.UUID) (*BookDTO, error) {
	book, err := s.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("BOOK_NOT_FOUND", "Book not found")
		}
		return nil, err
	}

	if err := book.FlagDuplicate(); err != nil {
		return nil, err
	}

	if err := s.bookRepo.Update(ctx, book); err != nil {
		return nil, err
	}

	s.usage.ReleaseBookSlot(ctx, book.OwnerID)
	s.publishEvents(ctx, book)

	dto := toBookDTO(book)
	return &dto, nil
}

func (s *BookService) findForOwner(ctx context.Context, ownerID, bookID uuid.UUID) (*library.Book, error) {
	book, err := s.bookRepo.FindByIDForOwner(ctx, ownerID, bookID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("BOOK_NOT_FOUND", "Book not found")
		}
		return nil, err
	}
	return book, nil
}

// generateStorageKey generates a unique storage key for a book file
func (s *BookService) generateStorageKey(ownerID uuid.UUID, fileName string) string {
	ext := filepath.Ext(fileName)
	return fmt.Sprintf("accounts/%s/books/%s%s", ownerID.String(), uuid.New().String(), ext)
}

func (s *BookService) enrichWithDownloadURL(ctx context.Context, dto *BookDTO, book *library.Book) {
	if !book.IsReady() {
		return
	}
	url, _, err := s.storage.GenerateDownloadURL(ctx, book.StorageKey, s.config.DownloadURLExpiry)
	if err == nil {
		dto.DownloadURL = url
	}
}

func (s *BookService) publishEvents(ctx context.Context, book *library.Book) {
	events := book.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	book.ClearDomainEvents()
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish book events",
			zap.String("book_id", book.ID.String()),
			zap.Error(err))
	}
}
