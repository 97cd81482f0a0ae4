package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viora-as/procurement-api/internal/auth"
	"github.com/viora-as/procurement-api/internal/config"
	"go.uber.org/zap"
)

func createTestMiddleware(apiKey string) *auth.Middleware {
	cfg := &config.Config{}
	cfg.Auth.Secret = testSecret
	cfg.ApiKey.Value = apiKey
	return auth.NewMiddleware(cfg, zap.NewNop())
}

func TestMiddleware_Authenticate(t *testing.T) {
	m := createTestMiddleware("secret-api-key")

	var capturedUser *auth.UserContext
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedUser, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := m.Authenticate(next)

	t.Run("valid bearer token", func(t *testing.T) {
		capturedUser = nil
		tokenString := signToken(t, testSecret, jwt.MapClaims{
			"sub":  "user-42",
			"name": "Ola Nordmann",
			"exp":  time.Now().Add(time.Hour).Unix(),
		})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/purchase-orders", nil)
		req.Header.Set("Authorization", "Bearer "+tokenString)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		require.NotNil(t, capturedUser)
		assert.Equal(t, "user-42", capturedUser.UserID)
	})

	t.Run("valid api key", func(t *testing.T) {
		capturedUser = nil
		req := httptest.NewRequest(http.MethodGet, "/api/v1/purchase-orders", nil)
		req.Header.Set("x-api-key", "secret-api-key")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		require.NotNil(t, capturedUser)
		assert.Equal(t, "system", capturedUser.UserID)
		assert.True(t, capturedUser.HasRole(auth.RoleAPIService))
	})

	t.Run("wrong api key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/purchase-orders", nil)
		req.Header.Set("x-api-key", "wrong-key")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("missing authorization header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/purchase-orders", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("malformed authorization header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/purchase-orders", nil)
		req.Header.Set("Authorization", "Token abc")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("expired bearer token", func(t *testing.T) {
		tokenString := signToken(t, testSecret, jwt.MapClaims{
			"sub": "user-42",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/purchase-orders", nil)
		req.Header.Set("Authorization", "Bearer "+tokenString)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestMiddleware_RequireRole(t *testing.T) {
	m := createTestMiddleware("")

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := m.RequireRole(auth.RolePurchasing, auth.RoleAdmin)(next)

	t.Run("user with matching role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/purchase-orders", nil)
		ctx := auth.WithUserContext(req.Context(), &auth.UserContext{
			UserID: "user-1",
			Roles:  []string{auth.RolePurchasing},
		})
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req.WithContext(ctx))

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("user without matching role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/purchase-orders", nil)
		ctx := auth.WithUserContext(req.Context(), &auth.UserContext{
			UserID: "user-1",
			Roles:  []string{auth.RoleViewer},
		})
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req.WithContext(ctx))

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("no user in context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/purchase-orders", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}
