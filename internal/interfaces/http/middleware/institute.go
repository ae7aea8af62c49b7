package middleware

import (
	"net/http"
	"strings"

	"github.com/studyhall/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InstituteContextKey is the key used to store institute information in gin.Context
const (
	InstituteIDKey     = "institute_id"
	InstituteCodeKey   = "institute_code"
	InstituteHeaderKey = "X-Institute-ID"
)

// InstituteInfo holds the extracted institute information
type InstituteInfo struct {
	ID   uuid.UUID `json:"id"`
	Code string    `json:"code"`
}

// InstituteExtractor defines the interface for extracting institute information
type InstituteExtractor interface {
	ExtractInstituteID(c *gin.Context) (string, error)
}

// InstituteValidator defines the interface for validating institute
type InstituteValidator interface {
	ValidateInstitute(instituteID string) (*InstituteInfo, error)
}

// InstituteMiddlewareConfig holds configuration for institute middleware
type InstituteMiddlewareConfig struct {
	// HeaderEnabled enables X-Institute-ID header extraction
	HeaderEnabled bool
	// JWTEnabled enables JWT claim extraction (requires JWT middleware to run first)
	JWTEnabled bool
	// SubdomainEnabled enables subdomain extraction
	SubdomainEnabled bool
	// BaseDomain is the base domain for subdomain extraction (e.g., "studyhall.app")
	BaseDomain string
	// SkipPaths are paths that don't require institute context (e.g., health check)
	SkipPaths []string
	// Required determines if institute context is mandatory
	Required bool
	// Validator is an optional validator to check if institute exists and is active
	Validator InstituteValidator
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultInstituteConfig returns default institute middleware configuration
func DefaultInstituteConfig() InstituteMiddlewareConfig {
	return InstituteMiddlewareConfig{
		HeaderEnabled:    true,
		JWTEnabled:       true,
		SubdomainEnabled: false,
		BaseDomain:       "",
		SkipPaths:        []string{"/health", "/healthz", "/ready", "/metrics", "/api/v1/health"},
		Required:         true,
		Validator:        nil,
		Logger:           nil,
	}
}

// InstituteMiddleware extracts institute information from the request
// Extraction order: JWT claims > X-Institute-ID header > subdomain
func InstituteMiddleware() gin.HandlerFunc {
	return InstituteMiddlewareWithConfig(DefaultInstituteConfig())
}

// InstituteMiddlewareWithConfig returns institute middleware with custom configuration
func InstituteMiddlewareWithConfig(cfg InstituteMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check if path should be skipped
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath || strings.HasPrefix(path, skipPath+"/") {
				c.Next()
				return
			}
		}

		var instituteID string
		var extractionMethod string

		// Priority 1: JWT claims (if JWT middleware has already run)
		if cfg.JWTEnabled {
			if jwtInstituteID, exists := c.Get("jwt_institute_id"); exists {
				if tid, ok := jwtInstituteID.(string); ok && tid != "" {
					instituteID = tid
					extractionMethod = "jwt"
				}
			}
		}

		// Priority 2: X-Institute-ID header
		if instituteID == "" && cfg.HeaderEnabled {
			if headerInstituteID := c.GetHeader(InstituteHeaderKey); headerInstituteID != "" {
				instituteID = headerInstituteID
				extractionMethod = "header"
			}
		}

		// Priority 3: Subdomain extraction
		if instituteID == "" && cfg.SubdomainEnabled && cfg.BaseDomain != "" {
			if subdomainInstituteID := extractInstituteFromSubdomain(c.Request.Host, cfg.BaseDomain); subdomainInstituteID != "" {
				instituteID = subdomainInstituteID
				extractionMethod = "subdomain"
			}
		}

		// Validate institute ID format if present
		if instituteID != "" {
			if err := validateInstituteIDFormat(instituteID); err != nil {
				respondUnauthorized(c, "Invalid institute ID format")
				return
			}
		}

		// Check if institute is required
		if instituteID == "" && cfg.Required {
			respondUnauthorized(c, "Institute identification required")
			return
		}

		// Optional: Validate institute exists and is active
		var instituteInfo *InstituteInfo
		if instituteID != "" && cfg.Validator != nil {
			var err error
			instituteInfo, err = cfg.Validator.ValidateInstitute(instituteID)
			if err != nil {
				log := cfg.Logger
				if log == nil {
					log = logger.FromContext(c.Request.Context())
				}
				log.Warn("Institute validation failed",
					zap.String("institute_id", instituteID),
					zap.Error(err),
				)
				respondUnauthorized(c, "Invalid or inactive institute")
				return
			}
		}

		// Set institute information in context
		if instituteID != "" {
			// Set in gin context for easy access in handlers
			c.Set(InstituteIDKey, instituteID)
			if instituteInfo != nil {
				c.Set(InstituteCodeKey, instituteInfo.Code)
			}

			// Set in request context for service layer access
			ctx := c.Request.Context()
			log := logger.FromContext(ctx)
			ctx, _ = logger.WithInstituteID(ctx, log, instituteID)
			c.Request = c.Request.WithContext(ctx)

			// Log extraction method for debugging
			if cfg.Logger != nil {
				cfg.Logger.Debug("Institute identified",
					zap.String("institute_id", instituteID),
					zap.String("method", extractionMethod),
				)
			}
		}

		c.Next()
	}
}

// extractInstituteFromSubdomain extracts institute code from subdomain
// e.g., "acme.studyhall.app" with baseDomain "studyhall.app" returns "acme"
func extractInstituteFromSubdomain(host, baseDomain string) string {
	// Remove port if present
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}

	// Check if host ends with base domain
	if !strings.HasSuffix(host, baseDomain) {
		return ""
	}

	// Extract subdomain
	subdomain := strings.TrimSuffix(host, "."+baseDomain)
	if subdomain == host || subdomain == "" || subdomain == "www" {
		return ""
	}

	// Return the first part of subdomain (in case of multi-level subdomains)
	parts := strings.Split(subdomain, ".")
	return parts[0]
}

// validateInstituteIDFormat validates that the institute ID is a valid UUID
func validateInstituteIDFormat(instituteID string) error {
	_, err := uuid.Parse(instituteID)
	return err
}

// respondUnauthorized sends an unauthorized response
func respondUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}

// GetInstituteID retrieves the institute ID from gin.Context
func GetInstituteID(c *gin.Context) string {
	if instituteID, exists := c.Get(InstituteIDKey); exists {
		if tid, ok := instituteID.(string); ok {
			return tid
		}
	}
	return ""
}

// GetInstituteUUID retrieves the institute ID as UUID from gin.Context
func GetInstituteUUID(c *gin.Context) (uuid.UUID, error) {
	instituteID := GetInstituteID(c)
	if instituteID == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(instituteID)
}

// GetInstituteCode retrieves the institute code from gin.Context
func GetInstituteCode(c *gin.Context) string {
	if instituteCode, exists := c.Get(InstituteCodeKey); exists {
		if code, ok := instituteCode.(string); ok {
			return code
		}
	}
	return ""
}

// MustGetInstituteID retrieves the institute ID from gin.Context or panics if not found
// Use this only in handlers where institute is guaranteed to exist
func MustGetInstituteID(c *gin.Context) string {
	instituteID := GetInstituteID(c)
	if instituteID == "" {
		panic("institute_id not found in context")
	}
	return instituteID
}

// MustGetInstituteUUID retrieves the institute ID as UUID or panics if not found
func MustGetInstituteUUID(c *gin.Context) uuid.UUID {
	instituteUUID, err := GetInstituteUUID(c)
	if err != nil || instituteUUID == uuid.Nil {
		panic("valid institute_id not found in context")
	}
	return instituteUUID
}

// OptionalInstituteMiddleware creates middleware that doesn't require institute
func OptionalInstituteMiddleware() gin.HandlerFunc {
	cfg := DefaultInstituteConfig()
	cfg.Required = false
	return InstituteMiddlewareWithConfig(cfg)
}
