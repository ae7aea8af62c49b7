package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	applibrary "github.com/studyhall/backend/internal/application/library"
	"github.com/studyhall/backend/internal/domain/shared"
	"github.com/studyhall/backend/internal/interfaces/http/middleware"
)

// BookHandler handles personal library HTTP requests. Upload gating lives in
// the service; the handler only translates between HTTP and the service API.
type BookHandler struct {
	BaseHandler
	bookService *applibrary.BookService
}

// NewBookHandler creates a new book handler
func NewBookHandler(bookService *applibrary.BookService) *BookHandler {
	return &BookHandler{bookService: bookService}
}

// RegisterRoutes registers library routes under the given router group
func (h *BookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	books := rg.Group("/library/books")
	{
		books.POST("", h.InitiateUpload)
		books.GET("", h.List)
		books.GET("/:id", h.GetByID)
		books.POST("/:id/complete", h.ConfirmUpload)
		books.GET("/:id/download-url", h.GetDownloadURL)
		books.PUT("/:id/title", h.Rename)
		books.DELETE("/:id", h.Delete)
	}

	// Deduplication is a back office operation, not something owners invoke
	rg.POST("/admin/library/books/:id/flag-duplicate", middleware.RequireAdmin(), h.FlagDuplicate)
}

// ListBooksQuery holds query parameters for listing books
type ListBooksQuery struct {
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=pending ready deleted"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size" binding:"omitempty,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// InitiateUpload godoc
//
//	@ID				initiateBookUpload
//	@Summary		Start a book upload
//	@Description	Check the upload allowance, create a pending book record and return a presigned upload URL.
//	@Description	The client uploads the file directly against the returned URL, then confirms completion.
//	@Tags			library
//	@Accept			json
//	@Produce		json
//	@Param			request	body		library.InitiateUploadInput	true	"File metadata"
//	@Success		201		{object}	APIResponse[library.InitiateUploadResult]
//	@Failure		400		{object}	dto.ErrorResponse
//	@Failure		401		{object}	dto.ErrorResponse
//	@Failure		403		{object}	dto.ErrorResponse	"Upload allowance exhausted"
//	@Security		BearerAuth
//	@Router			/library/books [post]
func (h *BookHandler) InitiateUpload(c *gin.Context) {
	ownerID, err := getAccountID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var input applibrary.InitiateUploadInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.bookService.InitiateUpload(c.Request.Context(), ownerID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// ConfirmUpload godoc
//
//	@ID				confirmBookUpload
//	@Summary		Confirm a finished upload
//	@Description	Verify the file landed in storage and mark the book ready for use
//	@Tags			library
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Book ID"	format(uuid)
//	@Param			request	body		library.ConfirmUploadInput	true	"Upload confirmation"
//	@Success		200		{object}	APIResponse[library.BookDTO]
//	@Failure		400		{object}	dto.ErrorResponse
//	@Failure		401		{object}	dto.ErrorResponse
//	@Failure		404		{object}	dto.ErrorResponse
//	@Failure		422		{object}	dto.ErrorResponse	"File not found in storage"
//	@Security		BearerAuth
//	@Router			/library/books/{id}/complete [post]
func (h *BookHandler) ConfirmUpload(c *gin.Context) {
	ownerID, bookID, ok := h.ownerAndBookID(c)
	if !ok {
		return
	}

	var input applibrary.ConfirmUploadInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	book, err := h.bookService.ConfirmUpload(c.Request.Context(), ownerID, bookID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, book)
}

// List godoc
//
//	@ID				listBooks
//	@Summary		List books
//	@Description	Retrieve the account's library, excluding deleted books
//	@Tags			library
//	@Produce		json
//	@Param			search		query		string	false	"Search term (title, file name)"
//	@Param			status		query		string	false	"Book status"	Enums(pending, ready, deleted)
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)	maximum(100)
//	@Param			order_by	query		string	false	"Order by field"
//	@Param			order_dir	query		string	false	"Order direction"	Enums(asc, desc)
//	@Success		200			{object}	APIResponse[[]library.BookDTO]
//	@Failure		400			{object}	dto.ErrorResponse
//	@Failure		401			{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/library/books [get]
func (h *BookHandler) List(c *gin.Context) {
	ownerID, err := getAccountID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var query ListBooksQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := shared.DefaultFilter()
	if query.Page > 0 {
		filter.Page = query.Page
	}
	if query.PageSize > 0 {
		filter.PageSize = query.PageSize
	}
	filter.Search = query.Search
	filter.OrderBy = query.OrderBy
	filter.OrderDir = query.OrderDir
	if query.Status != "" {
		filter.Filters = map[string]interface{}{"status": query.Status}
	}

	books, err := h.bookService.List(c.Request.Context(), ownerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, books)
}

// GetByID godoc
//
//	@ID				getBook
//	@Summary		Get a book
//	@Description	Retrieve a single book from the account's library
//	@Tags			library
//	@Produce		json
//	@Param			id	path		string	true	"Book ID"	format(uuid)
//	@Success		200	{object}	APIResponse[library.BookDTO]
//	@Failure		400	{object}	dto.ErrorResponse
//	@Failure		401	{object}	dto.ErrorResponse
//	@Failure		404	{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/library/books/{id} [get]
func (h *BookHandler) GetByID(c *gin.Context) {
	ownerID, bookID, ok := h.ownerAndBookID(c)
	if !ok {
		return
	}

	book, err := h.bookService.GetByID(c.Request.Context(), ownerID, bookID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, book)
}

// GetDownloadURL godoc
//
//	@ID				getBookDownloadURL
//	@Summary		Get a download URL
//	@Description	Return a fresh presigned GET URL for a ready book
//	@Tags			library
//	@Produce		json
//	@Param			id	path		string	true	"Book ID"	format(uuid)
//	@Success		200	{object}	APIResponse[library.DownloadURLResult]
//	@Failure		400	{object}	dto.ErrorResponse
//	@Failure		401	{object}	dto.ErrorResponse
//	@Failure		404	{object}	dto.ErrorResponse
//	@Failure		422	{object}	dto.ErrorResponse	"Upload not completed"
//	@Security		BearerAuth
//	@Router			/library/books/{id}/download-url [get]
func (h *BookHandler) GetDownloadURL(c *gin.Context) {
	ownerID, bookID, ok := h.ownerAndBookID(c)
	if !ok {
		return
	}

	result, err := h.bookService.GetDownloadURL(c.Request.Context(), ownerID, bookID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Rename godoc
//
//	@ID				renameBook
//	@Summary		Rename a book
//	@Tags			library
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Book ID"	format(uuid)
//	@Param			request	body		library.RenameInput	true	"New title"
//	@Success		200		{object}	APIResponse[library.BookDTO]
//	@Failure		400		{object}	dto.ErrorResponse
//	@Failure		401		{object}	dto.ErrorResponse
//	@Failure		404		{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/library/books/{id}/title [put]
func (h *BookHandler) Rename(c *gin.Context) {
	ownerID, bookID, ok := h.ownerAndBookID(c)
	if !ok {
		return
	}

	var input applibrary.RenameInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	book, err := h.bookService.Rename(c.Request.Context(), ownerID, bookID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, book)
}

// Delete godoc
//
//	@ID				deleteBook
//	@Summary		Delete a book
//	@Description	Soft-delete a book and free its upload allowance slot
//	@Tags			library
//	@Produce		json
//	@Param			id	path	string	true	"Book ID"	format(uuid)
//	@Success		204
//	@Failure		400	{object}	dto.ErrorResponse
//	@Failure		401	{object}	dto.ErrorResponse
//	@Failure		404	{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/library/books/{id} [delete]
func (h *BookHandler) Delete(c *gin.Context) {
	ownerID, bookID, ok := h.ownerAndBookID(c)
	if !ok {
		return
	}

	if err := h.bookService.Delete(c.Request.Context(), ownerID, bookID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// FlagDuplicate godoc
//
//	@ID				flagBookDuplicate
//	@Summary		Flag a book as a public library duplicate
//	@Description	Mark a book as duplicating a public library title and free its allowance slot
//	@Tags			library
//	@Produce		json
//	@Param			id	path		string	true	"Book ID"	format(uuid)
//	@Success		200	{object}	APIResponse[library.BookDTO]
//	@Failure		400	{object}	dto.ErrorResponse
//	@Failure		401	{object}	dto.ErrorResponse
//	@Failure		403	{object}	dto.ErrorResponse
//	@Failure		404	{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/library/books/{id}/flag-duplicate [post]
func (h *BookHandler) FlagDuplicate(c *gin.Context) {
	bookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid book ID format")
		return
	}

	book, err := h.bookService.FlagDuplicate(c.Request.Context(), bookID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, book)
}

func (h *BookHandler) ownerAndBookID(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	ownerID, err := getAccountID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return uuid.Nil, uuid.Nil, false
	}

	bookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid book ID format")
		return uuid.Nil, uuid.Nil, false
	}

	return ownerID, bookID, true
}
