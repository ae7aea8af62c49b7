// Package middleware provides HTTP middleware for the StudyHall backend.
package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studyhall/backend/internal/domain/entitlement"
	"github.com/studyhall/backend/internal/interfaces/http/dto"
)

// Entitlement middleware context keys
const (
	// EntitlementDecisionKey stores the gate decision for downstream handlers
	EntitlementDecisionKey = "entitlement_decision"
	// usageRecordedKey marks the request as already counted against the allowance
	usageRecordedKey = "entitlement_usage_recorded"
)

// EntitlementChecker answers whether the principal may perform a gated
// action right now. Implemented by the entitlement application service.
type EntitlementChecker interface {
	Check(ctx context.Context, principalID uuid.UUID, feature entitlement.Feature) entitlement.Decision
}

// UsageRecorder performs the durable counter increment after a gated action
// succeeded. Implemented by the entitlement usage recorder.
type UsageRecorder interface {
	Record(ctx context.Context, principalID uuid.UUID, feature entitlement.Feature) bool
}

// EntitlementGateConfig holds configuration for the entitlement gate middleware
type EntitlementGateConfig struct {
	// Checker is required for evaluating gate decisions
	Checker EntitlementChecker
	// Logger for middleware logging
	Logger *zap.Logger
	// OnDenied is called when the gate denies the request (optional)
	OnDenied func(c *gin.Context, decision entitlement.Decision)
}

// RequireEntitlement creates middleware that denies the request unless the
// caller's entitlement check for the feature passes. Denials caused by quota
// exhaustion carry the limit_reached payload; non-quota denials map onto the
// subscription and profile error codes.
func RequireEntitlement(checker EntitlementChecker, feature entitlement.Feature) gin.HandlerFunc {
	return RequireEntitlementWithConfig(EntitlementGateConfig{Checker: checker}, feature)
}

// RequireEntitlementWithConfig creates entitlement gate middleware with custom config
func RequireEntitlementWithConfig(cfg EntitlementGateConfig, feature entitlement.Feature) gin.HandlerFunc {
	return func(c *gin.Context) {
		principalID, ok := principalFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
				dto.ErrCodeUnauthorized, "Authentication required"))
			return
		}

		decision := cfg.Checker.Check(c.Request.Context(), principalID, feature)
		c.Set(EntitlementDecisionKey, decision)

		if decision.Allowed {
			c.Next()
			return
		}

		if cfg.Logger != nil {
			cfg.Logger.Info("Entitlement gate denied request",
				zap.String("principal_id", principalID.String()),
				zap.String("feature", feature.String()),
				zap.String("reason", decision.Reason),
				zap.Bool("limit_reached", decision.LimitReached),
			)
		}

		if cfg.OnDenied != nil {
			cfg.OnDenied(c, decision)
			return
		}

		abortWithDecision(c, decision)
	}
}

// GetEntitlementDecision retrieves the gate decision from gin.Context
func GetEntitlementDecision(c *gin.Context) (entitlement.Decision, bool) {
	if v, exists := c.Get(EntitlementDecisionKey); exists {
		if d, ok := v.(entitlement.Decision); ok {
			return d, true
		}
	}
	return entitlement.Decision{}, false
}

// abortWithDecision translates a denial into the wire shape: quota
// exhaustion gets the limit_reached payload, everything else the matching
// error code. All denials are 403.
func abortWithDecision(c *gin.Context, decision entitlement.Decision) {
	requestID := c.GetString("X-Request-ID")

	if decision.LimitReached {
		c.AbortWithStatusJSON(http.StatusForbidden, dto.NewLimitReachedResponse(
			dto.ErrCodeLimitReached,
			decision.Reason,
			requestID,
			decision.CurrentUsage,
			decision.Limit.Stored(),
		))
		return
	}

	code := dto.ErrCodeForbidden
	if decision.Reason == entitlement.ReasonNoActiveSubscription {
		code = dto.ErrCodeNoSubscription
	}

	c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
		code, decision.Reason, requestID))
}

// RecordUsageConfig holds configuration for the usage recording middleware
type RecordUsageConfig struct {
	// Recorder is required for the counter increment
	Recorder UsageRecorder
	// Logger for middleware logging
	Logger *zap.Logger
}

// RecordUsageOnSuccess creates middleware that counts the request against
// the caller's allowance after the handler responded 2xx. Recording happens
// at most once per request: handlers whose services already moved the
// counter mark the request with MarkUsageRecorded and the middleware stays
// out of the way. Failures are soft; the response has already been written.
func RecordUsageOnSuccess(recorder UsageRecorder, feature entitlement.Feature) gin.HandlerFunc {
	return RecordUsageOnSuccessWithConfig(RecordUsageConfig{Recorder: recorder}, feature)
}

// RecordUsageOnSuccessWithConfig creates usage recording middleware with custom config
func RecordUsageOnSuccessWithConfig(cfg RecordUsageConfig, feature entitlement.Feature) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}

		if c.GetBool(usageRecordedKey) {
			return
		}
		c.Set(usageRecordedKey, true)

		principalID, ok := principalFromContext(c)
		if !ok {
			return
		}

		if !cfg.Recorder.Record(c.Request.Context(), principalID, feature) && cfg.Logger != nil {
			cfg.Logger.Warn("Usage not recorded for completed request",
				zap.String("principal_id", principalID.String()),
				zap.String("feature", feature.String()),
				zap.String("path", c.Request.URL.Path),
			)
		}
	}
}

// MarkUsageRecorded tells the recording middleware that the allowance
// counter has already been moved for this request.
func MarkUsageRecorded(c *gin.Context) {
	c.Set(usageRecordedKey, true)
}

// principalFromContext resolves the acting principal from the JWT claims
func principalFromContext(c *gin.Context) (uuid.UUID, bool) {
	accountID := GetJWTAccountID(c)
	if accountID == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(accountID)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
