package library

import (
	"github.com/google/uuid"

	"github.com/studyhall/backend/internal/domain/shared"
)

// Aggregate type constant for Book
const AggregateTypeBook = "Book"

// Event type constants for Book
const (
	EventTypeBookCreated          = "BookCreated"
	EventTypeBookUploadCompleted  = "BookUploadCompleted"
	EventTypeBookFlaggedDuplicate = "BookFlaggedDuplicate"
	EventTypeBookDeleted          = "BookDeleted"
)

// BookCreatedEvent is published when a new book record is created
type BookCreatedEvent struct {
	shared.BaseDomainEvent
	BookID      uuid.UUID `json:"book_id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Title       string    `json:"title"`
	FileName    string    `json:"file_name"`
	FileSize    int64     `json:"file_size"`
	ContentType string    `json:"content_type"`
	StorageKey  string    `json:"storage_key"`
}

// NewBookCreatedEvent creates a new BookCreatedEvent
func NewBookCreatedEvent(book *Book) *BookCreatedEvent {
	return &BookCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeBookCreated,
			AggregateTypeBook,
			book.ID,
			uuid.Nil,
		),
		BookID:      book.ID,
		OwnerID:     book.OwnerID,
		Title:       book.Title,
		FileName:    book.FileName,
		FileSize:    book.FileSize,
		ContentType: book.ContentType,
		StorageKey:  book.StorageKey,
	}
}

// BookUploadCompletedEvent is published when a book upload is confirmed
type BookUploadCompletedEvent struct {
	shared.BaseDomainEvent
	BookID     uuid.UUID `json:"book_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	StorageKey string    `json:"storage_key"`
	PageCount  int       `json:"page_count"`
}

// NewBookUploadCompletedEvent creates a new BookUploadCompletedEvent
func NewBookUploadCompletedEvent(book *Book) *BookUploadCompletedEvent {
	return &BookUploadCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeBookUploadCompleted,
			AggregateTypeBook,
			book.ID,
			uuid.Nil,
		),
		BookID:     book.ID,
		OwnerID:    book.OwnerID,
		StorageKey: book.StorageKey,
		PageCount:  book.PageCount,
	}
}

// BookFlaggedDuplicateEvent is published when a book is flagged as a
// duplicate of a public library title
type BookFlaggedDuplicateEvent struct {
	shared.BaseDomainEvent
	BookID  uuid.UUID `json:"book_id"`
	OwnerID uuid.UUID `json:"owner_id"`
	Title   string    `json:"title"`
}

// NewBookFlaggedDuplicateEvent creates a new BookFlaggedDuplicateEvent
func NewBookFlaggedDuplicateEvent(book *Book) *BookFlaggedDuplicateEvent {
	return &BookFlaggedDuplicateEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeBookFlaggedDuplicate,
			AggregateTypeBook,
			book.ID,
			uuid.Nil,
		),
		BookID:  book.ID,
		OwnerID: book.OwnerID,
		Title:   book.Title,
	}
}

// BookDeletedEvent is published when a book is deleted
type BookDeletedEvent struct {
	shared.BaseDomainEvent
	BookID     uuid.UUID  `json:"book_id"`
	OwnerID    uuid.UUID  `json:"owner_id"`
	StorageKey string     `json:"storage_key"`
	OldStatus  BookStatus `json:"old_status"`
}

// NewBookDeletedEvent creates a new BookDeletedEvent
func NewBookDeletedEvent(book *Book, oldStatus BookStatus) *BookDeletedEvent {
	return &BookDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeBookDeleted,
			AggregateTypeBook,
			book.ID,
			uuid.Nil,
		),
		BookID:     book.ID,
		OwnerID:    book.OwnerID,
		StorageKey: book.StorageKey,
		OldStatus:  oldStatus,
	}
}
