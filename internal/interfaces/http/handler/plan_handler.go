package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appentitlement "github.com/studyhall/backend/internal/application/entitlement"
	"github.com/studyhall/backend/internal/interfaces/http/middleware"
)

// PlanHandler exposes the plan catalog and the admin-managed per-principal
// limit overrides
type PlanHandler struct {
	BaseHandler
	planService *appentitlement.PlanService
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(planService *appentitlement.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// RegisterRoutes registers plan routes under the given router group
func (h *PlanHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/plans", h.ListPlans)

	admin := rg.Group("/admin", middleware.RequireAdmin())
	{
		admin.GET("/overrides/:principal_id", h.GetOverrides)
		admin.PUT("/overrides/:principal_id", h.SetOverride)
		admin.DELETE("/overrides/:principal_id/:feature", h.DeleteOverride)
	}
}

// SetOverrideRequest represents a request to set a per-principal limit override
//
//	@Description	Request to set a per-account feature limit override
type SetOverrideRequest struct {
	Feature string `json:"feature" binding:"required" example:"QUIZ_GENERATION"`
	Limit   int64  `json:"limit" binding:"min=-1" example:"500"`
	Note    string `json:"note" binding:"max=500" example:"pilot program allowance"`
}

// PlanListResponse represents the plan catalog
//
//	@Description	List of available subscription plans
type PlanListResponse struct {
	Plans []appentitlement.PlanDTO `json:"plans"`
}

// OverrideListResponse represents all overrides set for one account
//
//	@Description	List of limit overrides for an account
type OverrideListResponse struct {
	PrincipalID string                       `json:"principal_id"`
	Overrides   []appentitlement.OverrideDTO `json:"overrides"`
}

// ListPlans godoc
//
//	@ID				listPlans
//	@Summary		List subscription plans
//	@Description	Get the plan catalog, optionally filtered to one audience
//	@Tags			plans
//	@Produce		json
//	@Param			audience	query		string	false	"Audience filter"	Enums(student, teacher, institute)
//	@Success		200			{object}	APIResponse[PlanListResponse]
//	@Failure		400			{object}	dto.ErrorResponse
//	@Router			/plans [get]
func (h *PlanHandler) ListPlans(c *gin.Context) {
	plans, err := h.planService.ListPlans(c.Query("audience"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, PlanListResponse{Plans: plans})
}

// GetOverrides godoc
//
//	@ID				getPlanOverrides
//	@Summary		List limit overrides for an account
//	@Description	Get all per-feature limit overrides set for the given account
//	@Tags			plans
//	@Produce		json
//	@Param			principal_id	path		string	true	"Account ID"
//	@Success		200				{object}	APIResponse[OverrideListResponse]
//	@Failure		400				{object}	dto.ErrorResponse
//	@Failure		401				{object}	dto.ErrorResponse
//	@Failure		403				{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/overrides/{principal_id} [get]
func (h *PlanHandler) GetOverrides(c *gin.Context) {
	principalID, err := uuid.Parse(c.Param("principal_id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	overrides, err := h.planService.GetOverrides(c.Request.Context(), principalID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, OverrideListResponse{
		PrincipalID: principalID.String(),
		Overrides:   overrides,
	})
}

// SetOverride godoc
//
//	@ID				setPlanOverride
//	@Summary		Set a limit override for an account
//	@Description	Create or replace a per-feature limit override. A limit of -1 means unlimited.
//	@Tags			plans
//	@Accept			json
//	@Produce		json
//	@Param			principal_id	path		string				true	"Account ID"
//	@Param			request			body		SetOverrideRequest	true	"Override to set"
//	@Success		200				{object}	APIResponse[appentitlement.OverrideDTO]
//	@Failure		400				{object}	dto.ErrorResponse
//	@Failure		401				{object}	dto.ErrorResponse
//	@Failure		403				{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/overrides/{principal_id} [put]
func (h *PlanHandler) SetOverride(c *gin.Context) {
	principalID, err := uuid.Parse(c.Param("principal_id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	var req SetOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	setBy, _ := getAccountID(c)

	override, err := h.planService.SetOverride(c.Request.Context(), appentitlement.SetOverrideInput{
		PrincipalID: principalID,
		Feature:     req.Feature,
		Limit:       req.Limit,
		Note:        req.Note,
		SetBy:       setBy,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, override)
}

// DeleteOverride godoc
//
//	@ID				deletePlanOverride
//	@Summary		Remove a limit override
//	@Description	Delete a per-feature limit override, restoring the plan's default limit
//	@Tags			plans
//	@Produce		json
//	@Param			principal_id	path	string	true	"Account ID"
//	@Param			feature			path	string	true	"Feature name"	Enums(BOOK_UPLOAD, QUIZ_GENERATION, AI_QUERY, CLASS_CREATION)
//	@Success		204
//	@Failure		400	{object}	dto.ErrorResponse
//	@Failure		401	{object}	dto.ErrorResponse
//	@Failure		403	{object}	dto.ErrorResponse
//	@Failure		404	{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/overrides/{principal_id}/{feature} [delete]
func (h *PlanHandler) DeleteOverride(c *gin.Context) {
	principalID, err := uuid.Parse(c.Param("principal_id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	if err := h.planService.DeleteOverride(c.Request.Context(), principalID, c.Param("feature")); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
