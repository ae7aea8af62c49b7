package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appentitlement "github.com/studyhall/backend/internal/application/entitlement"
	"github.com/studyhall/backend/internal/domain/entitlement"
	"github.com/studyhall/backend/internal/domain/shared"
	"github.com/studyhall/backend/internal/interfaces/http/middleware"
)

// SeatPoolHandler exposes seat pool administration. Routine provisioning
// happens through subscription webhooks; these endpoints are the manual
// override for support work.
type SeatPoolHandler struct {
	BaseHandler
	seatService *appentitlement.SeatService
}

// NewSeatPoolHandler creates a new seat pool handler
func NewSeatPoolHandler(seatService *appentitlement.SeatService) *SeatPoolHandler {
	return &SeatPoolHandler{seatService: seatService}
}

// RegisterRoutes registers seat pool routes (admin only)
func (h *SeatPoolHandler) RegisterRoutes(rg *gin.RouterGroup) {
	admin := rg.Group("/admin/institutes/:id/seat-pool", middleware.RequireAdmin())
	{
		admin.GET("", h.GetPool)
		admin.POST("", h.ProvisionPool)
		admin.PUT("", h.ResizePool)
		admin.DELETE("", h.DeactivatePool)
	}
}

// ProvisionPoolRequest selects the plan the pool is sized from
type ProvisionPoolRequest struct {
	Tier string `json:"tier" binding:"required,max=50" example:"institute_basic"`
}

// ResizePoolRequest carries the new capacity; -1 means unlimited
type ResizePoolRequest struct {
	TotalSeats int64 `json:"total_seats" binding:"min=-1" example:"50"`
}

// SeatPoolData represents a seat pool in responses
//
//	@Description	Seat pool standing for an institute
type SeatPoolData struct {
	OwnerID        uuid.UUID `json:"owner_id"`
	Status         string    `json:"status" example:"active"`
	TotalSeats     int64     `json:"total_seats" example:"30"` // -1 means unlimited
	UsedSeats      int64     `json:"used_seats" example:"12"`
	AvailableSeats *int64    `json:"available_seats,omitempty" example:"18"` // absent when unlimited
}

func toSeatPoolData(pool *entitlement.SeatPool) SeatPoolData {
	data := SeatPoolData{
		OwnerID:    pool.OwnerID,
		Status:     string(pool.Status),
		TotalSeats: pool.TotalSeats.Stored(),
		UsedSeats:  pool.UsedSeats,
	}
	if available, ok := pool.AvailableSeats(); ok {
		data.AvailableSeats = &available
	}
	return data
}

// GetPool godoc
//
//	@ID				getSeatPool
//	@Summary		Get an institute's seat pool
//	@Tags			seat-pools
//	@Produce		json
//	@Param			id	path		string	true	"Institute ID"	format(uuid)
//	@Success		200	{object}	APIResponse[SeatPoolData]
//	@Failure		401	{object}	dto.ErrorResponse
//	@Failure		403	{object}	dto.ErrorResponse
//	@Failure		404	{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/institutes/{id}/seat-pool [get]
func (h *SeatPoolHandler) GetPool(c *gin.Context) {
	ownerID, ok := h.ownerParam(c)
	if !ok {
		return
	}

	pool, err := h.seatService.GetPool(c.Request.Context(), ownerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.NotFound(c, "No seat pool exists for this institute")
			return
		}
		h.HandleError(c, err)
		return
	}

	h.Success(c, toSeatPoolData(pool))
}

// ProvisionPool godoc
//
//	@ID				provisionSeatPool
//	@Summary		Provision an institute's seat pool
//	@Description	Create the pool, or reactivate and resize it, sized from the named plan
//	@Tags			seat-pools
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Institute ID"	format(uuid)
//	@Param			request	body		ProvisionPoolRequest	true	"Plan tier"
//	@Success		201		{object}	APIResponse[SeatPoolData]
//	@Failure		400		{object}	dto.ErrorResponse
//	@Failure		401		{object}	dto.ErrorResponse
//	@Failure		403		{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/institutes/{id}/seat-pool [post]
func (h *SeatPoolHandler) ProvisionPool(c *gin.Context) {
	ownerID, ok := h.ownerParam(c)
	if !ok {
		return
	}

	var req ProvisionPoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	pool, err := h.seatService.ProvisionPool(c.Request.Context(), ownerID, entitlement.AudienceInstitute, req.Tier)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toSeatPoolData(pool))
}

// ResizePool godoc
//
//	@ID				resizeSeatPool
//	@Summary		Resize an institute's seat pool
//	@Description	Change capacity without touching usage; shrinking below current usage keeps members seated but blocks new enrollments
//	@Tags			seat-pools
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Institute ID"	format(uuid)
//	@Param			request	body		ResizePoolRequest	true	"New capacity"
//	@Success		200		{object}	APIResponse[SeatPoolData]
//	@Failure		400		{object}	dto.ErrorResponse
//	@Failure		401		{object}	dto.ErrorResponse
//	@Failure		403		{object}	dto.ErrorResponse
//	@Failure		404		{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/institutes/{id}/seat-pool [put]
func (h *SeatPoolHandler) ResizePool(c *gin.Context) {
	ownerID, ok := h.ownerParam(c)
	if !ok {
		return
	}

	var req ResizePoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	total := entitlement.Limited(req.TotalSeats)
	if req.TotalSeats < 0 {
		total = entitlement.Unlimited()
	}

	pool, err := h.seatService.ResizePool(c.Request.Context(), ownerID, total)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.NotFound(c, "No seat pool exists for this institute")
			return
		}
		h.HandleError(c, err)
		return
	}

	h.Success(c, toSeatPoolData(pool))
}

// DeactivatePool godoc
//
//	@ID				deactivateSeatPool
//	@Summary		Deactivate an institute's seat pool
//	@Description	Close the pool when the subscription lapses; usage is retained for reactivation
//	@Tags			seat-pools
//	@Param			id	path	string	true	"Institute ID"	format(uuid)
//	@Success		204
//	@Failure		401	{object}	dto.ErrorResponse
//	@Failure		403	{object}	dto.ErrorResponse
//	@Failure		404	{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/institutes/{id}/seat-pool [delete]
func (h *SeatPoolHandler) DeactivatePool(c *gin.Context) {
	ownerID, ok := h.ownerParam(c)
	if !ok {
		return
	}

	if err := h.seatService.DeactivatePool(c.Request.Context(), ownerID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.NotFound(c, "No seat pool exists for this institute")
			return
		}
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

func (h *SeatPoolHandler) ownerParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid institute ID format")
		return uuid.Nil, false
	}
	return id, true
}
