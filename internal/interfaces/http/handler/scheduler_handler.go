package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studyhall/backend/internal/infrastructure/scheduler"
	"github.com/studyhall/backend/internal/interfaces/http/middleware"
)

// RolloverScheduler is the seam to the cron scheduler; the handler only
// needs to trigger a sweep and report standing
type RolloverScheduler interface {
	TriggerManualRun(ctx context.Context) error
	GetStatus() map[string]any
	GetLastRunAt() *time.Time
}

// MonthClock supplies the reference timezone for the current usage month.
// Implemented by the rollover service.
type MonthClock interface {
	Location() *time.Location
}

// SchedulerHandler exposes the rollover scheduler to operators
type SchedulerHandler struct {
	BaseHandler
	sched RolloverScheduler
	clock MonthClock
}

// NewSchedulerHandler creates a new scheduler handler
func NewSchedulerHandler(sched RolloverScheduler, clock MonthClock) *SchedulerHandler {
	return &SchedulerHandler{sched: sched, clock: clock}
}

// RegisterRoutes registers scheduler routes (admin only)
func (h *SchedulerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	admin := rg.Group("/admin/scheduler/rollover", middleware.RequireAdmin())
	{
		admin.GET("", h.GetStatus)
		admin.POST("/run", h.TriggerRun)
	}
}

// GetStatus godoc
//
//	@ID				getRolloverSchedulerStatus
//	@Summary		Rollover scheduler status
//	@Description	Cron standing of the monthly usage rollover sweep
//	@Tags			scheduler
//	@Produce		json
//	@Success		200	{object}	APIResponse[SchedulerStatusData]
//	@Failure		401	{object}	dto.ErrorResponse
//	@Failure		403	{object}	dto.ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/scheduler/rollover [get]
func (h *SchedulerHandler) GetStatus(c *gin.Context) {
	status := h.sched.GetStatus()

	data := SchedulerStatusData{
		CurrentTerm: time.Now().In(h.clock.Location()).Format("2006-01"),
	}
	if enabled, ok := status["enabled"].(bool); ok {
		data.Enabled = enabled
	}
	if last := h.sched.GetLastRunAt(); last != nil {
		data.LastRunAt = last.Format(time.RFC3339)
	}

	h.Success(c, data)
}

// TriggerRun godoc
//
//	@ID				triggerRolloverSweep
//	@Summary		Run the rollover sweep now
//	@Description	Start a sweep outside the cron schedule; the sweep runs in the background
//	@Tags			scheduler
//	@Produce		json
//	@Success		200	{object}	APIResponse[CountData]
//	@Failure		401	{object}	dto.ErrorResponse
//	@Failure		403	{object}	dto.ErrorResponse
//	@Failure		409	{object}	dto.ErrorResponse	"Sweep already in progress"
//	@Failure		422	{object}	dto.ErrorResponse	"Scheduler is not running"
//	@Security		BearerAuth
//	@Router			/admin/scheduler/rollover/run [post]
func (h *SchedulerHandler) TriggerRun(c *gin.Context) {
	err := h.sched.TriggerManualRun(c.Request.Context())
	switch {
	case err == nil:
		h.Success(c, gin.H{"triggered": true})
	case errors.Is(err, scheduler.ErrSweepAlreadyRunning):
		h.Conflict(c, "A rollover sweep is already in progress")
	case errors.Is(err, scheduler.ErrSchedulerNotRunning):
		h.UnprocessableEntity(c, "SCHEDULER_NOT_RUNNING", "The rollover scheduler is not running")
	default:
		h.HandleError(c, err)
	}
}
