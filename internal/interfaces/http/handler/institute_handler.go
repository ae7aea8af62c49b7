package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appidentity "github.com/studyhall/backend/internal/application/identity"
	"github.com/studyhall/backend/internal/application/reporting"
	"github.com/studyhall/backend/internal/domain/shared"
	"github.com/studyhall/backend/internal/interfaces/http/middleware"
)

// InstituteHandler handles institute administration, student enrollment
// and the operator usage report
type InstituteHandler struct {
	BaseHandler
	instituteService *appidentity.InstituteService
	reportService    *reporting.UsageReportService
}

// NewInstituteHandler creates a new institute handler
func NewInstituteHandler(
	instituteService *appidentity.InstituteService,
	reportService *reporting.UsageReportService,
) *InstituteHandler {
	return &InstituteHandler{
		instituteService: instituteService,
		reportService:    reportService,
	}
}

// RegisterRoutes registers institute routes under the given router group.
// Lifecycle management is admin-only; enrollment and the usage report are
// open to members of the institute (teachers and admins act on behalf of it).
func (h *InstituteHandler) RegisterRoutes(rg *gin.RouterGroup) {
	admin := rg.Group("/admin/institutes", middleware.RequireAdmin())
	{
		admin.POST("", h.Create)
		admin.GET("", h.List)
		admin.PUT("/:id", h.Update)
		admin.POST("/:id/suspend", h.Suspend)
		admin.POST("/:id/activate", h.Activate)
		admin.POST("/:id/deactivate", h.Deactivate)
	}

	member := rg.Group("/institutes/:id", middleware.RequireInstituteMember())
	{
		member.GET("", h.GetByID)
		member.GET("/students", h.ListStudents)
		member.POST("/students", h.EnrollStudent)
		member.DELETE("/students/:account_id", h.RemoveStudent)
		member.GET("/usage-report.pdf", h.UsageReportPDF)
	}
}

// CreateInstituteRequest represents an institute creation request
type CreateInstituteRequest struct {
	Code         string `json:"code" binding:"required,min=3,max=50" example:"NORTHRIDGE-HS"`
	Name         string `json:"name" binding:"required,max=200" example:"Northridge High School"`
	ContactName  string `json:"contact_name" binding:"max=100"`
	ContactPhone string `json:"contact_phone" binding:"max=30"`
	ContactEmail string `json:"contact_email" binding:"omitempty,email,max=200"`
	Address      string `json:"address" binding:"max=300"`
	TrialDays    int    `json:"trial_days" binding:"min=0,max=365"`
}

// UpdateInstituteRequest represents an institute update request
type UpdateInstituteRequest struct {
	Name         *string `json:"name" binding:"omitempty,max=200"`
	ContactName  *string `json:"contact_name" binding:"omitempty,max=100"`
	ContactPhone *string `json:"contact_phone" binding:"omitempty,max=30"`
	ContactEmail *string `json:"contact_email" binding:"omitempty,email,max=200"`
	Address      *string `json:"address" binding:"omitempty,max=300"`
}

// EnrollStudentRequest identifies the student account to enroll
type EnrollStudentRequest struct {
	AccountID uuid.UUID `json:"account_id" binding:"required"`
}

// ListInstitutesQuery holds pagination and search parameters
type ListInstitutesQuery struct {
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// Create godoc
//
//	@ID				createInstitute
//	@Summary		Create an institute
//	@Tags			institutes
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateInstituteRequest	true	"Institute details"
//	@Success		201		{object}	APIResponse[identity.InstituteDTO]
//	@Failure		400		{object}	dto.ErrorResponse
//	@Failure		409		{object}	dto.ErrorResponse	"Code already in use"
//	@Security		BearerAuth
//	@Router			/admin/institutes [post]
func (h *InstituteHandler) Create(c *gin.Context) {
	var req CreateInstituteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	institute, err := h.instituteService.Create(c.Request.Context(), appidentity.CreateInstituteInput{
		Code:         req.Code,
		Name:         req.Name,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		ContactEmail: req.ContactEmail,
		Address:      req.Address,
		TrialDays:    req.TrialDays,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, institute)
}

// List godoc
//
//	@ID				listInstitutes
//	@Summary		List institutes
//	@Tags			institutes
//	@Produce		json
//	@Param			search		query		string	false	"Search term (code, name)"
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)	maximum(100)
//	@Success		200			{object}	APIResponse[[]identity.InstituteDTO]
//	@Failure		401			{object}	dto.ErrorResponse
//	@Failure		403			{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/institutes [get]
func (h *InstituteHandler) List(c *gin.Context) {
	filter := h.listFilter(c)

	result, err := h.instituteService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Institutes, result.Total, result.Page, result.PageSize)
}

// GetByID godoc
//
//	@ID				getInstitute
//	@Summary		Get an institute
//	@Tags			institutes
//	@Produce		json
//	@Param			id	path		string	true	"Institute ID"	format(uuid)
//	@Success		200	{object}	APIResponse[identity.InstituteDTO]
//	@Failure		401	{object}	dto.ErrorResponse
//	@Failure		403	{object}	dto.ErrorResponse
//	@Failure		404	{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/institutes/{id} [get]
func (h *InstituteHandler) GetByID(c *gin.Context) {
	id, ok := h.instituteParam(c)
	if !ok {
		return
	}

	institute, err := h.instituteService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, institute)
}

// Update godoc
//
//	@ID				updateInstitute
//	@Summary		Update an institute
//	@Tags			institutes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Institute ID"	format(uuid)
//	@Param			request	body		UpdateInstituteRequest	true	"Fields to update"
//	@Success		200		{object}	APIResponse[identity.InstituteDTO]
//	@Failure		400		{object}	dto.ErrorResponse
//	@Failure		404		{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/institutes/{id} [put]
func (h *InstituteHandler) Update(c *gin.Context) {
	id, ok := h.instituteParam(c)
	if !ok {
		return
	}

	var req UpdateInstituteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	institute, err := h.instituteService.Update(c.Request.Context(), appidentity.UpdateInstituteInput{
		ID:           id,
		Name:         req.Name,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		ContactEmail: req.ContactEmail,
		Address:      req.Address,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, institute)
}

// Suspend godoc
//
//	@ID				suspendInstitute
//	@Summary		Suspend an institute
//	@Tags			institutes
//	@Produce		json
//	@Param			id	path		string	true	"Institute ID"	format(uuid)
//	@Success		200	{object}	APIResponse[identity.InstituteDTO]
//	@Failure		404	{object}	dto.ErrorResponse
//	@Failure		422	{object}	dto.ErrorResponse	"Already suspended"
//	@Security		BearerAuth
//	@Router			/admin/institutes/{id}/suspend [post]
func (h *InstituteHandler) Suspend(c *gin.Context) {
	h.transition(c, h.instituteService.Suspend)
}

// Activate godoc
//
//	@ID				activateInstitute
//	@Summary		Activate an institute
//	@Tags			institutes
//	@Produce		json
//	@Param			id	path		string	true	"Institute ID"	format(uuid)
//	@Success		200	{object}	APIResponse[identity.InstituteDTO]
//	@Failure		404	{object}	dto.ErrorResponse
//	@Failure		422	{object}	dto.ErrorResponse	"Already active"
//	@Security		BearerAuth
//	@Router			/admin/institutes/{id}/activate [post]
func (h *InstituteHandler) Activate(c *gin.Context) {
	h.transition(c, h.instituteService.Activate)
}

// Deactivate godoc
//
//	@ID				deactivateInstitute
//	@Summary		Deactivate an institute
//	@Tags			institutes
//	@Produce		json
//	@Param			id	path		string	true	"Institute ID"	format(uuid)
//	@Success		200	{object}	APIResponse[identity.InstituteDTO]
//	@Failure		404	{object}	dto.ErrorResponse
//	@Failure		422	{object}	dto.ErrorResponse	"Already deactivated"
//	@Security		BearerAuth
//	@Router			/admin/institutes/{id}/deactivate [post]
func (h *InstituteHandler) Deactivate(c *gin.Context) {
	h.transition(c, h.instituteService.Deactivate)
}

// EnrollStudent godoc
//
//	@ID				enrollStudent
//	@Summary		Enroll a student
//	@Description	Add a student account to the institute, consuming one seat
//	@Tags			institutes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Institute ID"	format(uuid)
//	@Param			request	body		EnrollStudentRequest	true	"Student to enroll"
//	@Success		201		{object}	APIResponse[identity.EnrollmentDTO]
//	@Failure		400		{object}	dto.ErrorResponse
//	@Failure		403		{object}	dto.ErrorResponse	"No seats available"
//	@Failure		404		{object}	dto.ErrorResponse
//	@Failure		409		{object}	dto.ErrorResponse	"Already enrolled"
//	@Security		BearerAuth
//	@Router			/institutes/{id}/students [post]
func (h *InstituteHandler) EnrollStudent(c *gin.Context) {
	id, ok := h.instituteParam(c)
	if !ok {
		return
	}

	var req EnrollStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	enrollment, err := h.instituteService.EnrollStudent(c.Request.Context(), id, req.AccountID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, enrollment)
}

// RemoveStudent godoc
//
//	@ID				removeStudent
//	@Summary		Remove a student
//	@Description	Remove a student from the institute, releasing their seat
//	@Tags			institutes
//	@Param			id			path	string	true	"Institute ID"	format(uuid)
//	@Param			account_id	path	string	true	"Account ID"	format(uuid)
//	@Success		204
//	@Failure		400	{object}	dto.ErrorResponse
//	@Failure		404	{object}	dto.ErrorResponse
//	@Failure		422	{object}	dto.ErrorResponse	"Already removed"
//	@Security		BearerAuth
//	@Router			/institutes/{id}/students/{account_id} [delete]
func (h *InstituteHandler) RemoveStudent(c *gin.Context) {
	id, ok := h.instituteParam(c)
	if !ok {
		return
	}

	accountID, err := uuid.Parse(c.Param("account_id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	if err := h.instituteService.RemoveStudent(c.Request.Context(), id, accountID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// ListStudents godoc
//
//	@ID				listInstituteStudents
//	@Summary		List institute enrollments
//	@Tags			institutes
//	@Produce		json
//	@Param			id			path		string	true	"Institute ID"	format(uuid)
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)	maximum(100)
//	@Success		200			{object}	APIResponse[[]identity.EnrollmentDTO]
//	@Failure		401			{object}	dto.ErrorResponse
//	@Failure		403			{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/institutes/{id}/students [get]
func (h *InstituteHandler) ListStudents(c *gin.Context) {
	id, ok := h.instituteParam(c)
	if !ok {
		return
	}

	result, err := h.instituteService.ListEnrollments(c.Request.Context(), id, h.listFilter(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Enrollments, result.Total, result.Page, result.PageSize)
}

// UsageReportPDF godoc
//
//	@ID				instituteUsageReport
//	@Summary		Download the institute usage report
//	@Description	Seat pool standing and per-student allowance usage, rendered as PDF
//	@Tags			institutes
//	@Produce		application/pdf
//	@Param			id	path	string	true	"Institute ID"	format(uuid)
//	@Success		200	{file}	binary
//	@Failure		401	{object}	dto.ErrorResponse
//	@Failure		403	{object}	dto.ErrorResponse
//	@Failure		404	{object}	dto.ErrorResponse
//	@Failure		500	{object}	dto.ErrorResponse	"Rendering failed"
//	@Security		BearerAuth
//	@Router			/institutes/{id}/usage-report.pdf [get]
func (h *InstituteHandler) UsageReportPDF(c *gin.Context) {
	id, ok := h.instituteParam(c)
	if !ok {
		return
	}

	pdf, err := h.reportService.RenderPDF(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	filename := fmt.Sprintf("usage-report-%s-%s.pdf", id, time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (h *InstituteHandler) transition(c *gin.Context, op func(context.Context, uuid.UUID) (*appidentity.InstituteDTO, error)) {
	id, ok := h.instituteParam(c)
	if !ok {
		return
	}

	institute, err := op(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, institute)
}

func (h *InstituteHandler) instituteParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid institute ID format")
		return uuid.Nil, false
	}
	return id, true
}

func (h *InstituteHandler) listFilter(c *gin.Context) shared.Filter {
	var query ListInstitutesQuery
	_ = c.ShouldBindQuery(&query)

	filter := shared.DefaultFilter()
	if query.Page > 0 {
		filter.Page = query.Page
	}
	if query.PageSize > 0 && query.PageSize <= 100 {
		filter.PageSize = query.PageSize
	}
	filter.Search = query.Search
	return filter
}
