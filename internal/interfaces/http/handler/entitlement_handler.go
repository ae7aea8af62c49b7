package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appentitlement "github.com/studyhall/backend/internal/application/entitlement"
	"github.com/studyhall/backend/internal/domain/entitlement"
	"github.com/studyhall/backend/internal/interfaces/http/middleware"
)

// EntitlementHandler exposes the quota engine: usage summaries, feature
// checks, and seat pool status. Checks are read-only; they never consume
// quota and always answer 200 with the decision inside.
type EntitlementHandler struct {
	BaseHandler
	entitlementService *appentitlement.EntitlementService
}

// NewEntitlementHandler creates a new entitlement handler
func NewEntitlementHandler(entitlementService *appentitlement.EntitlementService) *EntitlementHandler {
	return &EntitlementHandler{
		entitlementService: entitlementService,
	}
}

// RegisterRoutes registers entitlement routes
func (h *EntitlementHandler) RegisterRoutes(rg *gin.RouterGroup) {
	entitlements := rg.Group("/entitlements")
	{
		entitlements.GET("/summary", h.GetSummary)
		entitlements.GET("/checks/book-upload", h.CheckBookUpload)
		entitlements.GET("/checks/quiz-generation", h.CheckQuizGeneration)
		entitlements.GET("/checks/ai-query", h.CheckAIQuery)
		entitlements.GET("/checks/class-creation", h.CheckClassCreation)
	}

	rg.GET("/institutes/:id/seats", middleware.RequireInstituteMember(), h.GetSeatStatus)
}

// FeatureUsageResponse is one row of the usage summary
//
//	@Description	Usage standing for a single feature
type FeatureUsageResponse struct {
	Feature     string `json:"feature" example:"QUIZ_GENERATION"`
	Used        int64  `json:"used" example:"3"`
	Limit       int64  `json:"limit" example:"10"` // -1 when unlimited
	Remaining   int64  `json:"remaining" example:"7"`
	Unlimited   bool   `json:"unlimited" example:"false"`
	ResetPeriod string `json:"reset_period" example:"monthly"`
}

// EntitlementSummaryResponse is the full usage summary for the caller
//
//	@Description	Per-feature usage and limits for the authenticated principal
type EntitlementSummaryResponse struct {
	Audience string                 `json:"audience" example:"student"`
	PlanID   string                 `json:"plan_id" example:"student-free"`
	Features []FeatureUsageResponse `json:"features"`
}

// EntitlementCheckResponse is a single feature decision
//
//	@Description	Whether the caller may perform the gated action right now
type EntitlementCheckResponse struct {
	Feature      string `json:"feature" example:"BOOK_UPLOAD"`
	Allowed      bool   `json:"allowed" example:"true"`
	Reason       string `json:"reason,omitempty" example:"book upload limit reached"`
	LimitReached bool   `json:"limit_reached,omitempty" example:"false"`
	Current      int64  `json:"current" example:"4"`
	Limit        int64  `json:"limit" example:"20"` // -1 when unlimited
	Unlimited    bool   `json:"unlimited" example:"false"`
	Remaining    int64  `json:"remaining" example:"16"`
}

// SeatStatusResponse is the institute seat pool standing
//
//	@Description	Seat pool status for an institute
type SeatStatusResponse struct {
	Available      bool   `json:"available" example:"true"`
	Reason         string `json:"reason,omitempty" example:"no seats available"`
	UsedSeats      int64  `json:"used_seats" example:"24"`
	TotalSeats     int64  `json:"total_seats" example:"30"` // -1 when unlimited
	Unlimited      bool   `json:"unlimited" example:"false"`
	AvailableSeats int64  `json:"available_seats" example:"6"`
}

// GetSummary godoc
//
//	@ID				getEntitlementSummary
//	@Summary		Get usage summary
//	@Description	Report used/limit/remaining for every gated feature of the caller
//	@Tags			entitlements
//	@Produce		json
//	@Success		200	{object}	APIResponse[EntitlementSummaryResponse]
//	@Failure		401	{object}	dto.ErrorResponse
//	@Failure		404	{object}	dto.ErrorResponse
//	@Failure		500	{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/entitlements/summary [get]
func (h *EntitlementHandler) GetSummary(c *gin.Context) {
	principalID, err := getAccountID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	audience, planID, usages, err := h.entitlementService.Summary(c.Request.Context(), principalID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	features := make([]FeatureUsageResponse, 0, len(usages))
	for _, u := range usages {
		features = append(features, FeatureUsageResponse{
			Feature:     string(u.Feature),
			Used:        u.Current,
			Limit:       u.Limit.Stored(),
			Remaining:   u.Remaining,
			Unlimited:   u.Limit.IsUnlimited(),
			ResetPeriod: string(u.ResetPeriod),
		})
	}

	h.Success(c, EntitlementSummaryResponse{
		Audience: string(audience),
		PlanID:   planID,
		Features: features,
	})
}

// CheckBookUpload godoc
//
//	@ID				checkBookUpload
//	@Summary		Check book upload entitlement
//	@Description	Report whether the caller may upload another book right now
//	@Tags			entitlements
//	@Produce		json
//	@Success		200	{object}	APIResponse[EntitlementCheckResponse]
//	@Failure		401	{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/entitlements/checks/book-upload [get]
func (h *EntitlementHandler) CheckBookUpload(c *gin.Context) {
	h.respondWithCheck(c, h.entitlementService.CanUploadBook)
}

// CheckQuizGeneration godoc
//
//	@ID				checkQuizGeneration
//	@Summary		Check quiz generation entitlement
//	@Description	Report whether the caller may generate another quiz this month
//	@Tags			entitlements
//	@Produce		json
//	@Success		200	{object}	APIResponse[EntitlementCheckResponse]
//	@Failure		401	{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/entitlements/checks/quiz-generation [get]
func (h *EntitlementHandler) CheckQuizGeneration(c *gin.Context) {
	h.respondWithCheck(c, h.entitlementService.CanGenerateQuiz)
}

// CheckAIQuery godoc
//
//	@ID				checkAIQuery
//	@Summary		Check AI query entitlement
//	@Description	Report whether the caller may make another AI query this month
//	@Tags			entitlements
//	@Produce		json
//	@Success		200	{object}	APIResponse[EntitlementCheckResponse]
//	@Failure		401	{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/entitlements/checks/ai-query [get]
func (h *EntitlementHandler) CheckAIQuery(c *gin.Context) {
	h.respondWithCheck(c, h.entitlementService.CanMakeAIQuery)
}

// CheckClassCreation godoc
//
//	@ID				checkClassCreation
//	@Summary		Check class creation entitlement
//	@Description	Report whether the caller may create another active class
//	@Tags			entitlements
//	@Produce		json
//	@Success		200	{object}	APIResponse[EntitlementCheckResponse]
//	@Failure		401	{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/entitlements/checks/class-creation [get]
func (h *EntitlementHandler) CheckClassCreation(c *gin.Context) {
	h.respondWithCheck(c, h.entitlementService.CanCreateClass)
}

// GetSeatStatus godoc
//
//	@ID				getSeatStatus
//	@Summary		Get institute seat status
//	@Description	Report the institute seat pool's total, used, and available seats
//	@Tags			entitlements
//	@Produce		json
//	@Param			id	path		string	true	"Institute ID"	format(uuid)
//	@Success		200	{object}	APIResponse[SeatStatusResponse]
//	@Failure		400	{object}	dto.ErrorResponse
//	@Failure		401	{object}	dto.ErrorResponse
//	@Failure		403	{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/institutes/{id}/seats [get]
func (h *EntitlementHandler) GetSeatStatus(c *gin.Context) {
	instituteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid institute ID format")
		return
	}

	decision := h.entitlementService.CanAddStudentToInstitute(c.Request.Context(), instituteID)

	h.Success(c, SeatStatusResponse{
		Available:      decision.Allowed,
		Reason:         decision.Reason,
		UsedSeats:      decision.UsedSeats,
		TotalSeats:     decision.TotalSeats.Stored(),
		Unlimited:      decision.TotalSeats.IsUnlimited(),
		AvailableSeats: decision.AvailableSeats,
	})
}

func (h *EntitlementHandler) respondWithCheck(c *gin.Context, check func(ctx context.Context, principalID uuid.UUID) entitlement.Decision) {
	principalID, err := getAccountID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	decision := check(c.Request.Context(), principalID)
	remaining, _ := decision.Remaining()

	h.Success(c, EntitlementCheckResponse{
		Feature:      string(decision.Feature),
		Allowed:      decision.Allowed,
		Reason:       decision.Reason,
		LimitReached: decision.LimitReached,
		Current:      decision.CurrentUsage,
		Limit:        decision.Limit.Stored(),
		Unlimited:    decision.Limit.IsUnlimited(),
		Remaining:    remaining,
	})
}
