package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/studyhall/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// mockInstituteValidator is a test implementation of InstituteValidator
type mockInstituteValidator struct {
	ValidInstitutes map[string]*InstituteInfo
	ShouldFail      bool
	FailError       error
}

func (m *mockInstituteValidator) ValidateInstitute(instituteID string) (*InstituteInfo, error) {
	if m.ShouldFail {
		return nil, m.FailError
	}
	if info, exists := m.ValidInstitutes[instituteID]; exists {
		return info, nil
	}
	return nil, errors.New("institute not found")
}

func TestInstituteMiddleware_HeaderExtraction(t *testing.T) {
	tests := []struct {
		name           string
		instituteID    string
		expectedStatus int
		expectedID     string
	}{
		{
			name:           "valid institute ID in header",
			instituteID:       uuid.New().String(),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing institute ID",
			instituteID:       "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "invalid institute ID format",
			instituteID:       "invalid-uuid",
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(InstituteMiddleware())

			var capturedInstituteID string
			router.GET("/test", func(c *gin.Context) {
				capturedInstituteID = GetInstituteID(c)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.instituteID != "" {
				req.Header.Set(InstituteHeaderKey, tt.instituteID)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, tt.instituteID, capturedInstituteID)
			}
		})
	}
}

func TestInstituteMiddleware_JWTExtraction(t *testing.T) {
	instituteID := uuid.New().String()

	router := gin.New()

	// Simulate JWT middleware that sets institute_id
	router.Use(func(c *gin.Context) {
		c.Set("jwt_institute_id", instituteID)
		c.Next()
	})
	router.Use(InstituteMiddleware())

	var capturedInstituteID string
	router.GET("/test", func(c *gin.Context) {
		capturedInstituteID = GetInstituteID(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, instituteID, capturedInstituteID)
}

func TestInstituteMiddleware_JWTOverridesHeader(t *testing.T) {
	jwtInstituteID := uuid.New().String()
	headerInstituteID := uuid.New().String()

	router := gin.New()

	// JWT sets one institute ID
	router.Use(func(c *gin.Context) {
		c.Set("jwt_institute_id", jwtInstituteID)
		c.Next()
	})
	router.Use(InstituteMiddleware())

	var capturedInstituteID string
	router.GET("/test", func(c *gin.Context) {
		capturedInstituteID = GetInstituteID(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	// Header sets a different institute ID
	req.Header.Set(InstituteHeaderKey, headerInstituteID)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	// JWT should take priority over header
	assert.Equal(t, jwtInstituteID, capturedInstituteID)
}

func TestInstituteMiddleware_SkipPaths(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		skipPaths      []string
		instituteID    string
		expectedStatus int
	}{
		{
			name:           "health endpoint skipped",
			path:           "/health",
			skipPaths:      []string{"/health"},
			instituteID:       "",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "api health endpoint skipped",
			path:           "/api/v1/health",
			skipPaths:      []string{"/api/v1/health"},
			instituteID:       "",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "metrics endpoint skipped",
			path:           "/metrics",
			skipPaths:      []string{"/metrics"},
			instituteID:       "",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "nested health path skipped",
			path:           "/health/ready",
			skipPaths:      []string{"/health"},
			instituteID:       "",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "non-skipped path requires institute",
			path:           "/api/test",
			skipPaths:      []string{"/health"},
			instituteID:       "",
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			cfg := DefaultInstituteConfig()
			cfg.SkipPaths = tt.skipPaths
			router.Use(InstituteMiddlewareWithConfig(cfg))

			router.GET(tt.path, func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.instituteID != "" {
				req.Header.Set(InstituteHeaderKey, tt.instituteID)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestInstituteMiddleware_OptionalInstitute(t *testing.T) {
	router := gin.New()
	router.Use(OptionalInstituteMiddleware())

	var capturedInstituteID string
	router.GET("/test", func(c *gin.Context) {
		capturedInstituteID = GetInstituteID(c)
		c.Status(http.StatusOK)
	})

	// Request without institute ID should succeed
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, capturedInstituteID)
}

func TestInstituteMiddleware_WithValidator(t *testing.T) {
	validInstituteID := uuid.New().String()
	invalidInstituteID := uuid.New().String()

	validator := &mockInstituteValidator{
		ValidInstitutes: map[string]*InstituteInfo{
			validInstituteID: {
				ID:   uuid.MustParse(validInstituteID),
				Code: "ACME",
			},
		},
	}

	tests := []struct {
		name           string
		instituteID    string
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "valid institute passes validation",
			instituteID:       validInstituteID,
			expectedStatus: http.StatusOK,
			expectedCode:   "ACME",
		},
		{
			name:           "invalid institute fails validation",
			instituteID:       invalidInstituteID,
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			cfg := DefaultInstituteConfig()
			cfg.Validator = validator
			router.Use(InstituteMiddlewareWithConfig(cfg))

			var capturedCode string
			router.GET("/test", func(c *gin.Context) {
				capturedCode = GetInstituteCode(c)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set(InstituteHeaderKey, tt.instituteID)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, tt.expectedCode, capturedCode)
			}
		})
	}
}

func TestInstituteMiddleware_SubdomainExtraction(t *testing.T) {
	// Note: The institute ID for subdomain extraction returns the subdomain as institute code,
	// which then needs to be resolved to a institute ID by the validator
	// For this test, we test the extraction logic directly

	tests := []struct {
		name       string
		host       string
		baseDomain string
		expected   string
	}{
		{
			name:       "simple subdomain",
			host:       "acme.studyhall.app",
			baseDomain: "studyhall.app",
			expected:   "acme",
		},
		{
			name:       "subdomain with port",
			host:       "acme.studyhall.app:8080",
			baseDomain: "studyhall.app",
			expected:   "acme",
		},
		{
			name:       "no subdomain",
			host:       "studyhall.app",
			baseDomain: "studyhall.app",
			expected:   "",
		},
		{
			name:       "www subdomain ignored",
			host:       "www.studyhall.app",
			baseDomain: "studyhall.app",
			expected:   "",
		},
		{
			name:       "different base domain",
			host:       "acme.other.com",
			baseDomain: "studyhall.app",
			expected:   "",
		},
		{
			name:       "multi-level subdomain",
			host:       "app.acme.studyhall.app",
			baseDomain: "studyhall.app",
			expected:   "app",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractInstituteFromSubdomain(tt.host, tt.baseDomain)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestValidateInstituteIDFormat(t *testing.T) {
	tests := []struct {
		name        string
		instituteID string
		wantError   bool
	}{
		{
			name:      "valid UUID",
			instituteID:  uuid.New().String(),
			wantError: false,
		},
		{
			name:      "invalid UUID - too short",
			instituteID:  "invalid",
			wantError: true,
		},
		{
			name:      "invalid UUID - wrong format",
			instituteID:  "not-a-valid-uuid-format",
			wantError: true,
		},
		{
			name:      "empty string",
			instituteID:  "",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateInstituteIDFormat(tt.instituteID)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetInstituteID(t *testing.T) {
	instituteID := uuid.New().String()

	router := gin.New()
	router.Use(InstituteMiddleware())

	router.GET("/test", func(c *gin.Context) {
		// Test GetInstituteID
		gotID := GetInstituteID(c)
		assert.Equal(t, instituteID, gotID)

		// Test GetInstituteUUID
		gotUUID, err := GetInstituteUUID(c)
		require.NoError(t, err)
		assert.Equal(t, uuid.MustParse(instituteID), gotUUID)

		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(InstituteHeaderKey, instituteID)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMustGetInstituteID_Panics(t *testing.T) {
	router := gin.New()
	// No institute middleware, so no institute_id in context

	router.GET("/test", func(c *gin.Context) {
		assert.Panics(t, func() {
			MustGetInstituteID(c)
		})
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMustGetInstituteUUID_Panics(t *testing.T) {
	router := gin.New()

	router.GET("/test", func(c *gin.Context) {
		assert.Panics(t, func() {
			MustGetInstituteUUID(c)
		})
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDefaultInstituteConfig(t *testing.T) {
	cfg := DefaultInstituteConfig()

	assert.True(t, cfg.HeaderEnabled)
	assert.True(t, cfg.JWTEnabled)
	assert.False(t, cfg.SubdomainEnabled)
	assert.Empty(t, cfg.BaseDomain)
	assert.True(t, cfg.Required)
	assert.Nil(t, cfg.Validator)
	assert.Nil(t, cfg.Logger)
	assert.Contains(t, cfg.SkipPaths, "/health")
	assert.Contains(t, cfg.SkipPaths, "/metrics")
}

func TestInstituteMiddleware_ContextPropagation(t *testing.T) {
	instituteID := uuid.New().String()

	router := gin.New()
	router.Use(InstituteMiddleware())

	router.GET("/test", func(c *gin.Context) {
		// Test that institute ID is also available in the request context
		// via the logger package utility
		ctx := c.Request.Context()
		ctxInstituteID := logger.GetInstituteID(ctx)
		assert.Equal(t, instituteID, ctxInstituteID)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(InstituteHeaderKey, instituteID)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInstituteMiddleware_DisabledMethods(t *testing.T) {
	instituteID := uuid.New().String()

	t.Run("header disabled", func(t *testing.T) {
		router := gin.New()
		cfg := DefaultInstituteConfig()
		cfg.HeaderEnabled = false
		cfg.Required = false
		router.Use(InstituteMiddlewareWithConfig(cfg))

		var capturedInstituteID string
		router.GET("/test", func(c *gin.Context) {
			capturedInstituteID = GetInstituteID(c)
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(InstituteHeaderKey, instituteID)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		// Header extraction disabled, so institute ID should be empty
		assert.Empty(t, capturedInstituteID)
	})

	t.Run("jwt disabled", func(t *testing.T) {
		router := gin.New()

		// Simulate JWT middleware
		router.Use(func(c *gin.Context) {
			c.Set("jwt_institute_id", instituteID)
			c.Next()
		})

		cfg := DefaultInstituteConfig()
		cfg.JWTEnabled = false
		cfg.Required = false
		router.Use(InstituteMiddlewareWithConfig(cfg))

		var capturedInstituteID string
		router.GET("/test", func(c *gin.Context) {
			capturedInstituteID = GetInstituteID(c)
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		// JWT extraction disabled, so institute ID should be empty
		assert.Empty(t, capturedInstituteID)
	})
}

func TestInstituteMiddleware_ValidatorError(t *testing.T) {
	instituteID := uuid.New().String()
	validatorError := errors.New("database connection failed")

	validator := &mockInstituteValidator{
		ShouldFail: true,
		FailError:  validatorError,
	}

	router := gin.New()
	cfg := DefaultInstituteConfig()
	cfg.Validator = validator
	router.Use(InstituteMiddlewareWithConfig(cfg))

	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(InstituteHeaderKey, instituteID)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
