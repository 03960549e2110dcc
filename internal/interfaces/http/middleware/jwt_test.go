package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelops/backend/internal/infrastructure/auth"
	"github.com/travelops/backend/internal/infrastructure/config"
)

func newJWTTestRouter(t *testing.T) (*gin.Engine, *auth.JWTService, *uuid.UUID) {
	svc := auth.NewJWTService(config.JWTConfig{
		Secret:     "test-secret-key-that-is-long-enough",
		Expiration: time.Hour,
		Issuer:     "travelops-test",
	})

	var gotTenant uuid.UUID
	router := gin.New()
	router.Use(JWTAuth(DefaultJWTConfig(svc)))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/protected", func(c *gin.Context) {
		gotTenant = GetTenantID(c)
		c.Status(http.StatusOK)
	})
	return router, svc, &gotTenant
}

func TestJWTAuth_AllowsValidToken(t *testing.T) {
	router, svc, gotTenant := newJWTTestRouter(t)

	tenantID := uuid.New()
	token, err := svc.Generate(auth.GenerateTokenInput{
		TenantID: tenantID,
		UserID:   uuid.New(),
		Username: "agent",
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token.AccessToken)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tenantID, *gotTenant)
}

func TestJWTAuth_RejectsMissingHeader(t *testing.T) {
	router, _, _ := newJWTTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
}

func TestJWTAuth_RejectsMalformedToken(t *testing.T) {
	router, _, _ := newJWTTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+"garbage")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
}

func TestJWTAuth_SkipsConfiguredPaths(t *testing.T) {
	router, _, _ := newJWTTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
