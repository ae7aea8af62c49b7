package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appstudy "github.com/studyhall/backend/internal/application/study"
	"github.com/studyhall/backend/internal/domain/shared"
	"github.com/studyhall/backend/internal/interfaces/http/middleware"
)

// StudyHandler handles quiz generation, AI tutor and class HTTP requests.
// Allowance gating happens inside the services; denials surface as 403
// responses with the limit payload.
type StudyHandler struct {
	BaseHandler
	quizService  *appstudy.QuizService
	aiService    *appstudy.AIService
	classService *appstudy.ClassService
}

// NewStudyHandler creates a new study handler
func NewStudyHandler(
	quizService *appstudy.QuizService,
	aiService *appstudy.AIService,
	classService *appstudy.ClassService,
) *StudyHandler {
	return &StudyHandler{
		quizService:  quizService,
		aiService:    aiService,
		classService: classService,
	}
}

// RegisterRoutes registers study routes under the given router group
func (h *StudyHandler) RegisterRoutes(rg *gin.RouterGroup) {
	study := rg.Group("/study")
	{
		study.POST("/quizzes", h.GenerateQuiz)
		study.GET("/quizzes", h.ListQuizzes)
		study.GET("/quizzes/:id", h.GetQuiz)

		study.POST("/ai/queries", h.Ask)
		study.GET("/ai/queries", h.ListAIQueries)

		classes := study.Group("/classes", middleware.RequireTeacher())
		{
			classes.POST("", h.CreateClass)
			classes.GET("", h.ListClasses)
			classes.GET("/:id", h.GetClass)
			classes.PUT("/:id", h.UpdateClass)
			classes.POST("/:id/archive", h.ArchiveClass)
		}
	}
}

// ListStudyQuery holds the common list query parameters
type ListStudyQuery struct {
	Search   string `form:"search"`
	BookID   string `form:"book_id" binding:"omitempty,uuid"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size" binding:"omitempty,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

func (q ListStudyQuery) toFilter() shared.Filter {
	filter := shared.DefaultFilter()
	if q.Page > 0 {
		filter.Page = q.Page
	}
	if q.PageSize > 0 {
		filter.PageSize = q.PageSize
	}
	filter.Search = q.Search
	filter.OrderBy = q.OrderBy
	filter.OrderDir = q.OrderDir
	return filter
}

// GenerateQuiz godoc
//
//	@ID				generateQuiz
//	@Summary		Generate a quiz from a book
//	@Description	Consume one quiz generation from the monthly allowance and produce a quiz for the given book
//	@Tags			study
//	@Accept			json
//	@Produce		json
//	@Param			request	body		study.GenerateQuizInput	true	"Quiz parameters"
//	@Success		201		{object}	APIResponse[study.QuizDTO]
//	@Failure		400		{object}	dto.ErrorResponse
//	@Failure		401		{object}	dto.ErrorResponse
//	@Failure		403		{object}	dto.ErrorResponse	"Monthly allowance exhausted"
//	@Failure		404		{object}	dto.ErrorResponse	"Book not found or not ready"
//	@Security		BearerAuth
//	@Router			/study/quizzes [post]
func (h *StudyHandler) GenerateQuiz(c *gin.Context) {
	ownerID, err := getAccountID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var input appstudy.GenerateQuizInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	quiz, err := h.quizService.Generate(c.Request.Context(), ownerID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, quiz)
}

// ListQuizzes godoc
//
//	@ID				listQuizzes
//	@Summary		List quizzes
//	@Description	Retrieve the account's quizzes, optionally filtered to one book
//	@Tags			study
//	@Produce		json
//	@Param			book_id		query		string	false	"Only quizzes generated from this book"	format(uuid)
//	@Param			page		query		int		false	"Page number"							default(1)
//	@Param			page_size	query		int		false	"Page size"								default(20)	maximum(100)
//	@Success		200			{object}	APIResponse[[]study.QuizDTO]
//	@Failure		400			{object}	dto.ErrorResponse
//	@Failure		401			{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/study/quizzes [get]
func (h *StudyHandler) ListQuizzes(c *gin.Context) {
	ownerID, err := getAccountID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var query ListStudyQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var quizzes []appstudy.QuizDTO
	if query.BookID != "" {
		bookID, parseErr := uuid.Parse(query.BookID)
		if parseErr != nil {
			h.BadRequest(c, "Invalid book ID format")
			return
		}
		quizzes, err = h.quizService.ListByBook(c.Request.Context(), ownerID, bookID, query.toFilter())
	} else {
		quizzes, err = h.quizService.List(c.Request.Context(), ownerID, query.toFilter())
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, quizzes)
}

// GetQuiz godoc
//
//	@ID				getQuiz
//	@Summary		Get a quiz
//	@Tags			study
//	@Produce		json
//	@Param			id	path		string	true	"Quiz ID"	format(uuid)
//	@Success		200	{object}	APIResponse[study.QuizDTO]
//	@Failure		400	{object}	dto.ErrorResponse
//	@Failure		401	{object}	dto.ErrorResponse
//	@Failure		404	{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/study/quizzes/{id} [get]
func (h *StudyHandler) GetQuiz(c *gin.Context) {
	ownerID, err := getAccountID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	quizID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid quiz ID format")
		return
	}

	quiz, err := h.quizService.GetByID(c.Request.Context(), ownerID, quizID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, quiz)
}

// Ask godoc
//
//	@ID				askAITutor
//	@Summary		Ask the AI tutor
//	@Description	Consume one AI query from the monthly allowance and return the tutor's answer
//	@Tags			study
//	@Accept			json
//	@Produce		json
//	@Param			request	body		study.AskInput	true	"Question"
//	@Success		200		{object}	APIResponse[study.AskResult]
//	@Failure		400		{object}	dto.ErrorResponse
//	@Failure		401		{object}	dto.ErrorResponse
//	@Failure		403		{object}	dto.ErrorResponse	"Monthly allowance exhausted"
//	@Security		BearerAuth
//	@Router			/study/ai/queries [post]
func (h *StudyHandler) Ask(c *gin.Context) {
	accountID, err := getAccountID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var input appstudy.AskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.aiService.Ask(c.Request.Context(), accountID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ListAIQueries godoc
//
//	@ID				listAIQueries
//	@Summary		List AI query log
//	@Description	Retrieve the account's AI query log. Prompts and answers are stored as character counts only.
//	@Tags			study
//	@Produce		json
//	@Param			page		query		int	false	"Page number"	default(1)
//	@Param			page_size	query		int	false	"Page size"		default(20)	maximum(100)
//	@Success		200			{object}	APIResponse[[]study.AIQueryDTO]
//	@Failure		400			{object}	dto.ErrorResponse
//	@Failure		401			{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/study/ai/queries [get]
func (h *StudyHandler) ListAIQueries(c *gin.Context) {
	accountID, err := getAccountID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var query ListStudyQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	queries, err := h.aiService.ListQueries(c.Request.Context(), accountID, query.toFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, queries)
}

// CreateClass godoc
//
//	@ID				createClass
//	@Summary		Create a class
//	@Description	Create a class, gated by the teacher's active class allowance
//	@Tags			study
//	@Accept			json
//	@Produce		json
//	@Param			request	body		study.CreateClassInput	true	"Class details"
//	@Success		201		{object}	APIResponse[study.ClassDTO]
//	@Failure		400		{object}	dto.ErrorResponse
//	@Failure		401		{object}	dto.ErrorResponse
//	@Failure		403		{object}	dto.ErrorResponse	"Not a teacher or class allowance exhausted"
//	@Security		BearerAuth
//	@Router			/study/classes [post]
func (h *StudyHandler) CreateClass(c *gin.Context) {
	ownerID, err := getAccountID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var input appstudy.CreateClassInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	class, err := h.classService.Create(c.Request.Context(), ownerID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, class)
}

// ListClasses godoc
//
//	@ID				listClasses
//	@Summary		List classes
//	@Tags			study
//	@Produce		json
//	@Param			search		query		string	false	"Search term (name, subject)"
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)	maximum(100)
//	@Success		200			{object}	APIResponse[[]study.ClassDTO]
//	@Failure		400			{object}	dto.ErrorResponse
//	@Failure		401			{object}	dto.ErrorResponse
//	@Failure		403			{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/study/classes [get]
func (h *StudyHandler) ListClasses(c *gin.Context) {
	ownerID, err := getAccountID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var query ListStudyQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	classes, err := h.classService.List(c.Request.Context(), ownerID, query.toFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, classes)
}

// GetClass godoc
//
//	@ID				getClass
//	@Summary		Get a class
//	@Tags			study
//	@Produce		json
//	@Param			id	path		string	true	"Class ID"	format(uuid)
//	@Success		200	{object}	APIResponse[study.ClassDTO]
//	@Failure		400	{object}	dto.ErrorResponse
//	@Failure		401	{object}	dto.ErrorResponse
//	@Failure		403	{object}	dto.ErrorResponse
//	@Failure		404	{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/study/classes/{id} [get]
func (h *StudyHandler) GetClass(c *gin.Context) {
	ownerID, classID, ok := h.ownerAndClassID(c)
	if !ok {
		return
	}

	class, err := h.classService.GetByID(c.Request.Context(), ownerID, classID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, class)
}

// UpdateClass godoc
//
//	@ID				updateClass
//	@Summary		Update a class
//	@Tags			study
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Class ID"	format(uuid)
//	@Param			request	body		study.UpdateClassInput	true	"Updated details"
//	@Success		200		{object}	APIResponse[study.ClassDTO]
//	@Failure		400		{object}	dto.ErrorResponse
//	@Failure		401		{object}	dto.ErrorResponse
//	@Failure		403		{object}	dto.ErrorResponse
//	@Failure		404		{object}	dto.ErrorResponse
//	@Failure		422		{object}	dto.ErrorResponse	"Class is archived"
//	@Security		BearerAuth
//	@Router			/study/classes/{id} [put]
func (h *StudyHandler) UpdateClass(c *gin.Context) {
	ownerID, classID, ok := h.ownerAndClassID(c)
	if !ok {
		return
	}

	var input appstudy.UpdateClassInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	class, err := h.classService.Update(c.Request.Context(), ownerID, classID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, class)
}

// ArchiveClass godoc
//
//	@ID				archiveClass
//	@Summary		Archive a class
//	@Description	Archive a class, freeing its slot in the active class allowance
//	@Tags			study
//	@Produce		json
//	@Param			id	path		string	true	"Class ID"	format(uuid)
//	@Success		200	{object}	APIResponse[study.ClassDTO]
//	@Failure		400	{object}	dto.ErrorResponse
//	@Failure		401	{object}	dto.ErrorResponse
//	@Failure		403	{object}	dto.ErrorResponse
//	@Failure		404	{object}	dto.ErrorResponse
//	@Failure		422	{object}	dto.ErrorResponse	"Already archived"
//	@Security		BearerAuth
//	@Router			/study/classes/{id}/archive [post]
func (h *StudyHandler) ArchiveClass(c *gin.Context) {
	ownerID, classID, ok := h.ownerAndClassID(c)
	if !ok {
		return
	}

	class, err := h.classService.Archive(c.Request.Context(), ownerID, classID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, class)
}

func (h *StudyHandler) ownerAndClassID(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	ownerID, err := getAccountID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return uuid.Nil, uuid.Nil, false
	}

	classID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid class ID format")
		return uuid.Nil, uuid.Nil, false
	}

	return ownerID, classID, true
}
