package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/studyhall/backend/internal/infrastructure/auth"
)

func setClaims(role, instituteID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(JWTClaimsKey, &auth.Claims{
			AccountID:   uuid.New().String(),
			Role:        role,
			InstituteID: instituteID,
		})
		c.Next()
	}
}

func TestRequireRole_Allowed(t *testing.T) {
	router := gin.New()
	router.Use(setClaims("teacher", ""))
	router.Use(RequireRole("teacher"))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole_Denied(t *testing.T) {
	router := gin.New()
	router.Use(setClaims("student", ""))
	router.Use(RequireRole("teacher"))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_FORBIDDEN")
}

func TestRequireRole_NoClaims(t *testing.T) {
	router := gin.New()
	router.Use(RequireRole("teacher"))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAnyRole(t *testing.T) {
	tests := []struct {
		name           string
		role           string
		allowed        []string
		expectedStatus int
	}{
		{
			name:           "first role matches",
			role:           "teacher",
			allowed:        []string{"teacher", "admin"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "second role matches",
			role:           "admin",
			allowed:        []string{"teacher", "admin"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "no role matches",
			role:           "student",
			allowed:        []string{"teacher", "admin"},
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(setClaims(tt.role, ""))
			router.Use(RequireAnyRole(tt.allowed...))
			router.GET("/test", func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		role           string
		expectedStatus int
	}{
		{"admin", http.StatusOK},
		{"teacher", http.StatusForbidden},
		{"student", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			router := gin.New()
			router.Use(setClaims(tt.role, ""))
			router.Use(RequireAdmin())
			router.GET("/test", func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

func TestRequireTeacher(t *testing.T) {
	tests := []struct {
		role           string
		expectedStatus int
	}{
		{"teacher", http.StatusOK},
		{"admin", http.StatusOK},
		{"student", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			router := gin.New()
			router.Use(setClaims(tt.role, ""))
			router.Use(RequireTeacher())
			router.GET("/test", func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

func TestRequireInstituteMember(t *testing.T) {
	instituteID := uuid.New().String()
	otherInstituteID := uuid.New().String()

	tests := []struct {
		name           string
		role           string
		instituteID    string
		pathID         string
		expectedStatus int
	}{
		{
			name:           "member of institute",
			role:           "teacher",
			instituteID:    instituteID,
			pathID:         instituteID,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "member of different institute",
			role:           "teacher",
			instituteID:    otherInstituteID,
			pathID:         instituteID,
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "no institute membership",
			role:           "student",
			instituteID:    "",
			pathID:         instituteID,
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "admin bypasses membership check",
			role:           "admin",
			instituteID:    "",
			pathID:         instituteID,
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(setClaims(tt.role, tt.instituteID))
			router.GET("/institutes/:id/seats", RequireInstituteMember(), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/institutes/"+tt.pathID+"/seats", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

func TestHasRoleHelpers(t *testing.T) {
	router := gin.New()
	router.Use(setClaims("teacher", ""))
	router.GET("/test", func(c *gin.Context) {
		assert.True(t, HasRole(c, "teacher"))
		assert.False(t, HasRole(c, "admin"))
		assert.True(t, HasAnyRole(c, "student", "teacher"))
		assert.False(t, HasAnyRole(c, "student", "admin"))
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHasRole_NoClaims(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.False(t, HasRole(c, "teacher"))
	assert.False(t, HasAnyRole(c, "teacher", "admin"))
}

func TestMustHaveRole_Aborts(t *testing.T) {
	router := gin.New()
	router.Use(setClaims("student", ""))
	router.GET("/test", func(c *gin.Context) {
		if !MustHaveRole(c, "admin") {
			return
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireCustomAccess(t *testing.T) {
	teacherWithInstitute := func(claims *auth.Claims, _ *gin.Context) bool {
		return claims.Role == "teacher" && claims.InstituteID != ""
	}

	tests := []struct {
		name           string
		role           string
		instituteID    string
		expectedStatus int
	}{
		{
			name:           "teacher with institute allowed",
			role:           "teacher",
			instituteID:    uuid.New().String(),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "teacher without institute denied",
			role:           "teacher",
			instituteID:    "",
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "student denied",
			role:           "student",
			instituteID:    uuid.New().String(),
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(setClaims(tt.role, tt.instituteID))
			router.Use(RequireCustomAccess(teacherWithInstitute))
			router.GET("/test", func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

func TestRoleConfig_OnDenied(t *testing.T) {
	var deniedRoles []string
	cfg := RoleConfig{
		OnDenied: func(c *gin.Context, requiredRoles []string) {
			deniedRoles = requiredRoles
			c.AbortWithStatus(http.StatusNotFound)
		},
	}

	router := gin.New()
	router.Use(setClaims("student", ""))
	router.Use(RequireAnyRoleWithConfig(cfg, "teacher", "admin"))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, []string{"teacher", "admin"}, deniedRoles)
}
