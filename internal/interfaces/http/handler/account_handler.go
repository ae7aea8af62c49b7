package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appidentity "github.com/studyhall/backend/internal/application/identity"
	"github.com/studyhall/backend/internal/domain/shared"
	"github.com/studyhall/backend/internal/interfaces/http/middleware"
)

// AccountHandler handles account registration and administration
type AccountHandler struct {
	BaseHandler
	accountService *appidentity.AccountService
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accountService *appidentity.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// RegisterRoutes registers account routes under the given router group.
// Registration is open; the rest is admin-only.
func (h *AccountHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/accounts", h.Register)

	admin := rg.Group("/admin/accounts", middleware.RequireAdmin())
	{
		admin.GET("", h.List)
		admin.GET("/:id", h.GetByID)
		admin.PUT("/:id", h.Update)
		admin.POST("/:id/deactivate", h.Deactivate)
		admin.POST("/:id/unlock", h.Unlock)
		admin.POST("/:id/reset-password", h.ResetPassword)
	}
}

// RegisterAccountRequest represents a self-service registration request
//
//	@Description	Request to register a new student or teacher account
type RegisterAccountRequest struct {
	Email       string `json:"email" binding:"required,email,max=200" example:"student@example.edu"`
	Password    string `json:"password" binding:"required,min=8,max=128" example:"SecurePass123"`
	Role        string `json:"role" binding:"required,oneof=student teacher" example:"student"`
	DisplayName string `json:"display_name" binding:"max=100" example:"Jamie Rivera"`
}

// UpdateAccountRequest represents an admin profile update
type UpdateAccountRequest struct {
	DisplayName *string `json:"display_name" binding:"omitempty,max=100"`
}

// ResetPasswordRequest represents an admin password reset
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
}

// ListAccountsQuery holds query parameters for listing accounts
type ListAccountsQuery struct {
	Search   string `form:"search"`
	Role     string `form:"role" binding:"omitempty,oneof=student teacher admin"`
	Status   string `form:"status" binding:"omitempty,oneof=pending active locked deactivated"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size" binding:"omitempty,max=100"`
}

// Register godoc
//
//	@ID				registerAccount
//	@Summary		Register an account
//	@Description	Create a new student or teacher account on the free tier
//	@Tags			accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RegisterAccountRequest	true	"Registration details"
//	@Success		201		{object}	APIResponse[identity.AccountDTO]
//	@Failure		400		{object}	dto.ErrorResponse
//	@Failure		409		{object}	dto.ErrorResponse	"Email already registered"
//	@Router			/accounts [post]
func (h *AccountHandler) Register(c *gin.Context) {
	var req RegisterAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	account, err := h.accountService.Register(c.Request.Context(), appidentity.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		Role:        req.Role,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, account)
}

// List godoc
//
//	@ID				listAccounts
//	@Summary		List accounts
//	@Tags			accounts
//	@Produce		json
//	@Param			search		query		string	false	"Search term (email, display name)"
//	@Param			role		query		string	false	"Role"		Enums(student, teacher, admin)
//	@Param			status		query		string	false	"Status"	Enums(pending, active, locked, deactivated)
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)	maximum(100)
//	@Success		200			{object}	APIResponse[[]identity.AccountDTO]
//	@Failure		400			{object}	dto.ErrorResponse
//	@Failure		401			{object}	dto.ErrorResponse
//	@Failure		403			{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/accounts [get]
func (h *AccountHandler) List(c *gin.Context) {
	var query ListAccountsQuery
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
	filters := map[string]interface{}{}
	if query.Role != "" {
		filters["role"] = query.Role
	}
	if query.Status != "" {
		filters["status"] = query.Status
	}
	if len(filters) > 0 {
		filter.Filters = filters
	}

	result, err := h.accountService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Accounts, result.Total, result.Page, result.PageSize)
}

// GetByID godoc
//
//	@ID				getAccount
//	@Summary		Get an account
//	@Tags			accounts
//	@Produce		json
//	@Param			id	path		string	true	"Account ID"	format(uuid)
//	@Success		200	{object}	APIResponse[identity.AccountDTO]
//	@Failure		400	{object}	dto.ErrorResponse
//	@Failure		401	{object}	dto.ErrorResponse
//	@Failure		403	{object}	dto.ErrorResponse
//	@Failure		404	{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/accounts/{id} [get]
func (h *AccountHandler) GetByID(c *gin.Context) {
	id, ok := h.accountParam(c)
	if !ok {
		return
	}

	account, err := h.accountService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, account)
}

// Update godoc
//
//	@ID				updateAccount
//	@Summary		Update an account profile
//	@Tags			accounts
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Account ID"	format(uuid)
//	@Param			request	body		UpdateAccountRequest	true	"Fields to update"
//	@Success		200		{object}	APIResponse[identity.AccountDTO]
//	@Failure		400		{object}	dto.ErrorResponse
//	@Failure		401		{object}	dto.ErrorResponse
//	@Failure		403		{object}	dto.ErrorResponse
//	@Failure		404		{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/accounts/{id} [put]
func (h *AccountHandler) Update(c *gin.Context) {
	id, ok := h.accountParam(c)
	if !ok {
		return
	}

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	account, err := h.accountService.Update(c.Request.Context(), appidentity.UpdateAccountInput{
		ID:          id,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, account)
}

// Deactivate godoc
//
//	@ID				deactivateAccount
//	@Summary		Deactivate an account
//	@Tags			accounts
//	@Produce		json
//	@Param			id	path		string	true	"Account ID"	format(uuid)
//	@Success		200	{object}	APIResponse[identity.AccountDTO]
//	@Failure		400	{object}	dto.ErrorResponse
//	@Failure		401	{object}	dto.ErrorResponse
//	@Failure		403	{object}	dto.ErrorResponse
//	@Failure		404	{object}	dto.ErrorResponse
//	@Failure		422	{object}	dto.ErrorResponse	"Already deactivated"
//	@Security		BearerAuth
//	@Router			/admin/accounts/{id}/deactivate [post]
func (h *AccountHandler) Deactivate(c *gin.Context) {
	id, ok := h.accountParam(c)
	if !ok {
		return
	}

	account, err := h.accountService.Deactivate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, account)
}

// Unlock godoc
//
//	@ID				unlockAccount
//	@Summary		Unlock a locked account
//	@Description	Clear the failed-login lock so the owner can sign in again
//	@Tags			accounts
//	@Produce		json
//	@Param			id	path		string	true	"Account ID"	format(uuid)
//	@Success		200	{object}	APIResponse[identity.AccountDTO]
//	@Failure		400	{object}	dto.ErrorResponse
//	@Failure		401	{object}	dto.ErrorResponse
//	@Failure		403	{object}	dto.ErrorResponse
//	@Failure		404	{object}	dto.ErrorResponse
//	@Failure		422	{object}	dto.ErrorResponse	"Account is not locked"
//	@Security		BearerAuth
//	@Router			/admin/accounts/{id}/unlock [post]
func (h *AccountHandler) Unlock(c *gin.Context) {
	id, ok := h.accountParam(c)
	if !ok {
		return
	}

	account, err := h.accountService.Unlock(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, account)
}

// ResetPassword godoc
//
//	@ID				resetAccountPassword
//	@Summary		Reset an account's password
//	@Tags			accounts
//	@Accept			json
//	@Produce		json
//	@Param			id		path	string					true	"Account ID"	format(uuid)
//	@Param			request	body	ResetPasswordRequest	true	"New password"
//	@Success		204
//	@Failure		400	{object}	dto.ErrorResponse
//	@Failure		401	{object}	dto.ErrorResponse
//	@Failure		403	{object}	dto.ErrorResponse
//	@Failure		404	{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/accounts/{id}/reset-password [post]
func (h *AccountHandler) ResetPassword(c *gin.Context) {
	id, ok := h.accountParam(c)
	if !ok {
		return
	}

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.accountService.ResetPassword(c.Request.Context(), id, req.NewPassword); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

func (h *AccountHandler) accountParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return uuid.Nil, false
	}
	return id, true
}
