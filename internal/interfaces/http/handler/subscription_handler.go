package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/studyhall/backend/internal/application/subscription"
	"github.com/studyhall/backend/internal/interfaces/http/middleware"
)

// SubscriptionHandler handles subscription-related HTTP requests. Tier
// changes do not land here; they arrive through the Stripe webhook once
// payment is confirmed.
type SubscriptionHandler struct {
	BaseHandler
	subscriptionService *subscription.SubscriptionService
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(subscriptionService *subscription.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
	}
}

// RegisterRoutes registers subscription routes
func (h *SubscriptionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	billing := rg.Group("/billing")
	{
		billing.POST("/subscriptions", h.SubscribeAccount)
		billing.POST("/institutes/:id/subscriptions",
			middleware.RequireInstituteMember(), h.SubscribeInstitute)
		billing.DELETE("/institutes/:id/subscriptions",
			middleware.RequireInstituteMember(), h.CancelInstituteSubscription)
	}
}

// SubscribeRequest represents a request to start a paid subscription
//
//	@Description	Request body for starting a subscription
type SubscribeRequest struct {
	Tier          string `json:"tier" binding:"required,max=50" example:"premium"`
	PaymentMethod string `json:"payment_method" binding:"required" example:"pm_1234567890"`
	TrialDays     int    `json:"trial_days" binding:"omitempty,min=0,max=90" example:"14"`
}

// CancelSubscriptionRequest represents a request to cancel a subscription
//
//	@Description	Request body for cancelling a subscription
type CancelSubscriptionRequest struct {
	AtPeriodEnd bool   `json:"at_period_end" example:"true"`
	Reason      string `json:"reason" binding:"max=500" example:"switching plans"`
}

// SubscribeAccount godoc
//
//	@ID				subscribeAccount
//	@Summary		Start a personal subscription
//	@Description	Start a paid subscription for the authenticated account
//	@Tags			billing
//	@Accept			json
//	@Produce		json
//	@Param			request	body		SubscribeRequest	true	"Subscription request"
//	@Success		201		{object}	APIResponse[subscription.SubscribeOutput]
//	@Failure		400		{object}	dto.ErrorResponse
//	@Failure		401		{object}	dto.ErrorResponse
//	@Failure		422		{object}	dto.ErrorResponse
//	@Failure		500		{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/billing/subscriptions [post]
func (h *SubscriptionHandler) SubscribeAccount(c *gin.Context) {
	accountID, err := getAccountID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.subscriptionService.SubscribeAccount(c.Request.Context(), accountID, subscription.SubscribeInput{
		Tier:          req.Tier,
		PaymentMethod: req.PaymentMethod,
		TrialDays:     req.TrialDays,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// SubscribeInstitute godoc
//
//	@ID				subscribeInstitute
//	@Summary		Start an institute subscription
//	@Description	Start a paid seat-pool subscription for an institute
//	@Tags			billing
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Institute ID"	format(uuid)
//	@Param			request	body		SubscribeRequest	true	"Subscription request"
//	@Success		201		{object}	APIResponse[subscription.SubscribeOutput]
//	@Failure		400		{object}	dto.ErrorResponse
//	@Failure		401		{object}	dto.ErrorResponse
//	@Failure		403		{object}	dto.ErrorResponse
//	@Failure		422		{object}	dto.ErrorResponse
//	@Failure		500		{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/billing/institutes/{id}/subscriptions [post]
func (h *SubscriptionHandler) SubscribeInstitute(c *gin.Context) {
	instituteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid institute ID format")
		return
	}

	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.subscriptionService.SubscribeInstitute(c.Request.Context(), instituteID, subscription.SubscribeInput{
		Tier:          req.Tier,
		PaymentMethod: req.PaymentMethod,
		TrialDays:     req.TrialDays,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// CancelInstituteSubscription godoc
//
//	@ID				cancelInstituteSubscription
//	@Summary		Cancel an institute subscription
//	@Description	Cancel the institute's seat-pool subscription, immediately or at period end
//	@Tags			billing
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Institute ID"	format(uuid)
//	@Param			request	body		CancelSubscriptionRequest	false	"Cancellation options"
//	@Success		204		{object}	nil
//	@Failure		400		{object}	dto.ErrorResponse
//	@Failure		401		{object}	dto.ErrorResponse
//	@Failure		403		{object}	dto.ErrorResponse
//	@Failure		404		{object}	dto.ErrorResponse
//	@Failure		500		{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/billing/institutes/{id}/subscriptions [delete]
func (h *SubscriptionHandler) CancelInstituteSubscription(c *gin.Context) {
	instituteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid institute ID format")
		return
	}

	var req CancelSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		h.BadRequest(c, err.Error())
		return
	}

	err = h.subscriptionService.CancelInstituteSubscription(c.Request.Context(), instituteID, req.AtPeriodEnd, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
