package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studyhall/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// RoleConfig holds configuration for role middleware
type RoleConfig struct {
	// Logger for middleware logging
	Logger *zap.Logger
	// OnDenied is called when access is denied (optional)
	OnDenied func(c *gin.Context, requiredRoles []string)
}

// RequireRole creates middleware that requires a specific role
func RequireRole(role string) gin.HandlerFunc {
	return RequireAnyRole(role)
}

// RequireRoleWithConfig creates middleware with custom config
func RequireRoleWithConfig(role string, cfg RoleConfig) gin.HandlerFunc {
	return RequireAnyRoleWithConfig(cfg, role)
}

// RequireAnyRole creates middleware that requires any of the specified roles
func RequireAnyRole(roles ...string) gin.HandlerFunc {
	return RequireAnyRoleWithConfig(RoleConfig{}, roles...)
}

// RequireAnyRoleWithConfig creates middleware that requires any of the specified roles with custom config
func RequireAnyRoleWithConfig(cfg RoleConfig, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			handleRoleDenied(c, cfg, roles, "No authentication claims found")
			return
		}

		if !claims.HasAnyRole(roles...) {
			handleRoleDenied(c, cfg, roles, "Account lacks required role")
			return
		}

		if cfg.Logger != nil {
			cfg.Logger.Debug("Role check passed",
				zap.String("account_id", claims.AccountID),
				zap.Strings("required_any", roles),
				zap.String("account_role", claims.Role),
			)
		}

		c.Next()
	}
}

// RequireAdmin creates middleware that only allows platform admins
func RequireAdmin() gin.HandlerFunc {
	return RequireRole("admin")
}

// RequireTeacher creates middleware that allows teachers and admins
func RequireTeacher() gin.HandlerFunc {
	return RequireAnyRole("teacher", "admin")
}

// RequireInstituteMember creates middleware that requires the caller to belong
// to the institute named in the :id path parameter. Platform admins bypass the
// membership check.
func RequireInstituteMember() gin.HandlerFunc {
	return RequireInstituteMemberWithConfig(RoleConfig{})
}

// RequireInstituteMemberWithConfig creates institute membership middleware with custom config
func RequireInstituteMemberWithConfig(cfg RoleConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			handleRoleDenied(c, cfg, nil, "No authentication claims found")
			return
		}

		if claims.HasRole("admin") {
			c.Next()
			return
		}

		instituteID := c.Param("id")
		if instituteID == "" || claims.InstituteID != instituteID {
			handleRoleDenied(c, cfg, nil, "Account does not belong to the requested institute")
			return
		}

		c.Next()
	}
}

// handleRoleDenied handles access denied scenarios
func handleRoleDenied(c *gin.Context, cfg RoleConfig, requiredRoles []string, reason string) {
	if cfg.OnDenied != nil {
		cfg.OnDenied(c, requiredRoles)
		return
	}

	if cfg.Logger != nil {
		claims := GetJWTClaims(c)
		accountID := ""
		accountRole := ""
		if claims != nil {
			accountID = claims.AccountID
			accountRole = claims.Role
		}

		cfg.Logger.Warn("Access denied",
			zap.String("reason", reason),
			zap.String("account_id", accountID),
			zap.Strings("required_roles", requiredRoles),
			zap.String("account_role", accountRole),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
	}

	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "ERR_FORBIDDEN",
			"message": "Access denied: insufficient role",
		},
	})
}

// HasRole is a helper function to check the caller's role in handlers
func HasRole(c *gin.Context, role string) bool {
	claims := GetJWTClaims(c)
	if claims == nil {
		return false
	}
	return claims.HasRole(role)
}

// HasAnyRole is a helper function to check if the caller has any of the roles
func HasAnyRole(c *gin.Context, roles ...string) bool {
	claims := GetJWTClaims(c)
	if claims == nil {
		return false
	}
	return claims.HasAnyRole(roles...)
}

// MustHaveRole aborts the request if the caller doesn't have the role
// Returns true if the caller has the role, false if aborted
func MustHaveRole(c *gin.Context, role string) bool {
	if !HasRole(c, role) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ERR_FORBIDDEN",
				"message": "Access denied: insufficient role",
			},
		})
		return false
	}
	return true
}

// CheckAccessFunc is a function type for custom access checking
type CheckAccessFunc func(claims *auth.Claims, c *gin.Context) bool

// RequireCustomAccess creates middleware with a custom access check function
// This allows for access logic that can't be expressed with simple role names
func RequireCustomAccess(checkFunc CheckAccessFunc) gin.HandlerFunc {
	return RequireCustomAccessWithConfig(checkFunc, RoleConfig{})
}

// RequireCustomAccessWithConfig creates custom access middleware with config
func RequireCustomAccessWithConfig(checkFunc CheckAccessFunc, cfg RoleConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			handleRoleDenied(c, cfg, nil, "No authentication claims found")
			return
		}

		if !checkFunc(claims, c) {
			handleRoleDenied(c, cfg, nil, "Custom access check failed")
			return
		}

		c.Next()
	}
}
