package library

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/studyhall/backend/internal/domain/shared"
)

// MaxBookFileSize is the maximum allowed upload size for a book file (200MB)
const MaxBookFileSize = 200 * 1024 * 1024

// BookStatus represents the lifecycle status of an uploaded book
type BookStatus string

const (
	// BookStatusPending means the record exists but the file upload has not
	// been confirmed yet (the client holds a presigned upload URL).
	BookStatusPending BookStatus = "pending"
	BookStatusReady   BookStatus = "ready"
	BookStatusDeleted BookStatus = "deleted"
)

// IsValid checks if the book status is valid
func (s BookStatus) IsValid() bool {
	switch s {
	case BookStatusPending, BookStatusReady, BookStatusDeleted:
		return true
	default:
		return false
	}
}

// supportedContentTypes lists the MIME types accepted for book uploads
var supportedContentTypes = map[string]bool{
	"application/pdf":      true,
	"application/epub+zip": true,
	"text/plain":           true,
}

// IsSupportedContentType returns true if the MIME type is accepted for book uploads
func IsSupportedContentType(contentType string) bool {
	return supportedContentTypes[contentType]
}

// Book represents a book uploaded by an account into its personal library.
// It is the aggregate root for library operations.
//
// Pending books count against the owner's upload allowance just like ready
// ones; only deleted books and books flagged as duplicates of the public
// library are excluded.
type Book struct {
	shared.BaseAggregateRoot
	OwnerID                  uuid.UUID  `gorm:"type:uuid;not null;index"`
	Title                    string     `gorm:"type:varchar(300);not null"`
	Status                   BookStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	FileName                 string     `gorm:"type:varchar(255);not null"`
	FileSize                 int64      `gorm:"not null"`
	ContentType              string     `gorm:"type:varchar(100);not null"`
	StorageKey               string     `gorm:"type:varchar(500);not null;uniqueIndex"`
	PageCount                int        `gorm:"not null;default:0"`
	DuplicateOfPublicLibrary bool       `gorm:"not null;default:false;index"`
}

// TableName returns the table name for GORM
func (Book) TableName() string {
	return "books"
}

// NewBook creates a new book record in pending status.
// The file itself is uploaded out of band against a presigned URL; call
// CompleteUpload once the upload is confirmed.
func NewBook(ownerID uuid.UUID, title, fileName string, fileSize int64, contentType, storageKey string) (*Book, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER_ID", "Owner ID cannot be empty")
	}
	if err := validateBookTitle(title); err != nil {
		return nil, err
	}
	if err := validateFileName(fileName); err != nil {
		return nil, err
	}
	if err := validateFileSize(fileSize); err != nil {
		return nil, err
	}
	if err := validateContentType(contentType); err != nil {
		return nil, err
	}
	if err := validateStorageKey(storageKey); err != nil {
		return nil, err
	}

	book := &Book{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OwnerID:           ownerID,
		Title:             strings.TrimSpace(title),
		Status:            BookStatusPending,
		FileName:          fileName,
		FileSize:          fileSize,
		ContentType:       contentType,
		StorageKey:        storageKey,
	}

	book.AddDomainEvent(NewBookCreatedEvent(book))

	return book, nil
}

// CompleteUpload confirms the upload and marks the book as ready.
// This should be called after the file is successfully uploaded to storage.
// A zero page count means the count could not be determined.
func (b *Book) CompleteUpload(pageCount int) error {
	if b.Status == BookStatusReady {
		return shared.NewDomainError("ALREADY_COMPLETED", "Book upload is already completed")
	}
	if b.Status == BookStatusDeleted {
		return shared.NewDomainError("CANNOT_COMPLETE_DELETED", "Cannot complete a deleted book")
	}
	if pageCount < 0 {
		return shared.NewDomainError("INVALID_PAGE_COUNT", "Page count cannot be negative")
	}

	b.Status = BookStatusReady
	b.PageCount = pageCount
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	b.AddDomainEvent(NewBookUploadCompletedEvent(b))

	return nil
}

// FlagDuplicate marks the book as a duplicate of a public library title.
// Flagged books stop counting against the owner's upload allowance but stay
// readable in the owner's library.
func (b *Book) FlagDuplicate() error {
	if b.Status == BookStatusDeleted {
		return shared.NewDomainError("CANNOT_UPDATE_DELETED", "Cannot flag a deleted book")
	}
	if b.DuplicateOfPublicLibrary {
		return shared.NewDomainError("ALREADY_FLAGGED", "Book is already flagged as a public library duplicate")
	}

	b.DuplicateOfPublicLibrary = true
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	b.AddDomainEvent(NewBookFlaggedDuplicateEvent(b))

	return nil
}

// Delete marks the book as deleted (soft delete).
// The stored file is removed asynchronously by the storage layer.
func (b *Book) Delete() error {
	if b.Status == BookStatusDeleted {
		return shared.NewDomainError("ALREADY_DELETED", "Book is already deleted")
	}

	oldStatus := b.Status
	b.Status = BookStatusDeleted
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	b.AddDomainEvent(NewBookDeletedEvent(b, oldStatus))

	return nil
}

// Rename updates the book's title
func (b *Book) Rename(title string) error {
	if b.Status == BookStatusDeleted {
		return shared.NewDomainError("CANNOT_UPDATE_DELETED", "Cannot rename a deleted book")
	}
	if err := validateBookTitle(title); err != nil {
		return err
	}

	b.Title = strings.TrimSpace(title)
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	return nil
}

// IsPending returns true if the book upload has not been confirmed yet
func (b *Book) IsPending() bool {
	return b.Status == BookStatusPending
}

// IsReady returns true if the book is uploaded and readable
func (b *Book) IsReady() bool {
	return b.Status == BookStatusReady
}

// IsDeleted returns true if the book is deleted
func (b *Book) IsDeleted() bool {
	return b.Status == BookStatusDeleted
}

// CountsAgainstAllowance returns true if this book occupies one slot of the
// owner's book upload allowance. Deleted books and public library duplicates
// do not count.
func (b *Book) CountsAgainstAllowance() bool {
	return b.Status != BookStatusDeleted && !b.DuplicateOfPublicLibrary
}

// validation functions

func validateBookTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return shared.NewDomainError("INVALID_TITLE", "Book title cannot be empty")
	}
	if len(trimmed) > 300 {
		return shared.NewDomainError("INVALID_TITLE", "Book title cannot exceed 300 characters")
	}
	return nil
}

func validateFileName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_FILE_NAME", "File name cannot be empty")
	}
	if len(name) > 255 {
		return shared.NewDomainError("INVALID_FILE_NAME", "File name cannot exceed 255 characters")
	}
	// Check for dangerous characters (control characters)
	for _, r := range name {
		if r < 32 || r == 127 {
			return shared.NewDomainError("INVALID_FILE_NAME", "File name contains invalid characters")
		}
	}
	// Prevent path separators in filename
	if strings.Contains(name, "/") || strings.Contains(name, "\\") {
		return shared.NewDomainError("INVALID_FILE_NAME", "File name cannot contain path separators")
	}
	return nil
}

func validateFileSize(size int64) error {
	if size <= 0 {
		return shared.NewDomainError("INVALID_FILE_SIZE", "File size must be greater than 0")
	}
	if size > MaxBookFileSize {
		return shared.NewDomainError("FILE_TOO_LARGE", "File size cannot exceed 200MB")
	}
	return nil
}

func validateContentType(contentType string) error {
	if contentType == "" {
		return shared.NewDomainError("INVALID_CONTENT_TYPE", "Content type cannot be empty")
	}
	if !IsSupportedContentType(contentType) {
		return shared.NewDomainError("UNSUPPORTED_CONTENT_TYPE", "Content type is not supported for book uploads")
	}
	return nil
}

func validateStorageKey(key string) error {
	if key == "" {
		return shared.NewDomainError("INVALID_STORAGE_KEY", "Storage key cannot be empty")
	}
	if len(key) > 500 {
		return shared.NewDomainError("INVALID_STORAGE_KEY", "Storage key cannot exceed 500 characters")
	}
	// Prevent path traversal attacks
	if strings.Contains(key, "..") {
		return shared.NewDomainError("INVALID_STORAGE_KEY", "Storage key cannot contain path traversal sequences")
	}
	// Prevent absolute paths (must be relative within bucket)
	if strings.HasPrefix(key, "/") {
		return shared.NewDomainError("INVALID_STORAGE_KEY", "Storage key must be a relative path")
	}
	return nil
}
