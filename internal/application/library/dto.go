package library

import (
	"time"

	"github.com/google/uuid"

	"github.com/studyhall/backend/internal/domain/library"
)

// InitiateUploadInput carries the metadata of a file the client wants to
// upload. The file itself never passes through the API server.
type InitiateUploadInput struct {
	Title       string `json:"title" binding:"required,max=300"`
	FileName    string `json:"file_name" binding:"required,max=255"`
	FileSize    int64  `json:"file_size" binding:"required,gt=0"`
	ContentType string `json:"content_type" binding:"required"`
}

// InitiateUploadResult returns the pending book record together with a
// presigned PUT URL the client uploads the file against.
type InitiateUploadResult struct {
	Book            BookDTO   `json:"book"`
	UploadURL       string    `json:"upload_url"`
	UploadExpiresAt time.Time `json:"upload_expires_at"`
}

// ConfirmUploadInput confirms that the presigned upload finished.
type ConfirmUploadInput struct {
	PageCount int `json:"page_count" binding:"min=0"`
}

// RenameInput updates a book's title.
type RenameInput struct {
	Title string `json:"title" binding:"required,max=300"`
}

// BookDTO is the API representation of a book in an account's library.
type BookDTO struct {
	ID                       uuid.UUID `json:"id"`
	Title                    string    `json:"title"`
	Status                   string    `json:"status"`
	FileName                 string    `json:"file_name"`
	FileSize                 int64     `json:"file_size"`
	ContentType              string    `json:"content_type"`
	PageCount                int       `json:"page_count"`
	DuplicateOfPublicLibrary bool      `json:"duplicate_of_public_library"`
	DownloadURL              string    `json:"download_url,omitempty"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

// DownloadURLResult carries a presigned GET URL for a ready book.
type DownloadURLResult struct {
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func toBookDTO(book *library.Book) BookDTO {
	return BookDTO{
		ID:                       book.ID,
		Title:                    book.Title,
		Status:                   string(book.Status),
		FileName:                 book.FileName,
		FileSize:                 book.FileSize,
		ContentType:              book.ContentType,
		PageCount:                book.PageCount,
		DuplicateOfPublicLibrary: book.DuplicateOfPublicLibrary,
		CreatedAt:                book.CreatedAt,
		UpdatedAt:                book.UpdatedAt,
	}
}
