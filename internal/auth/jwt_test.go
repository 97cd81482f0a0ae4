package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viora-as/procurement-api/internal/auth"
	"github.com/viora-as/procurement-api/internal/config"
)

const testSecret = "test-secret-for-jwt-validation"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestJWTValidator_ValidateToken(t *testing.T) {
	validator := auth.NewJWTValidator(&config.AuthConfig{Secret: testSecret})

	t.Run("valid token", func(t *testing.T) {
		tokenString := signToken(t, testSecret, jwt.MapClaims{
			"sub":   "user-123",
			"name":  "Ola Nordmann",
			"email": "ola@viora.no",
			"roles": []string{"purchasing", "admin"},
			"exp":   time.Now().Add(time.Hour).Unix(),
		})

		userCtx, err := validator.ValidateToken(tokenString)
		require.NoError(t, err)
		assert.Equal(t, "user-123", userCtx.UserID)
		assert.Equal(t, "Ola Nordmann", userCtx.DisplayName)
		assert.Equal(t, "ola@viora.no", userCtx.Email)
		assert.Equal(t, []string{"purchasing", "admin"}, userCtx.Roles)
	})

	t.Run("roles as single string", func(t *testing.T) {
		tokenString := signToken(t, testSecret, jwt.MapClaims{
			"sub":   "user-123",
			"roles": "purchasing",
			"exp":   time.Now().Add(time.Hour).Unix(),
		})

		userCtx, err := validator.ValidateToken(tokenString)
		require.NoError(t, err)
		assert.Equal(t, []string{"purchasing"}, userCtx.Roles)
	})

	t.Run("expired token", func(t *testing.T) {
		tokenString := signToken(t, testSecret, jwt.MapClaims{
			"sub": "user-123",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})

		_, err := validator.ValidateToken(tokenString)
		assert.ErrorIs(t, err, auth.ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		tokenString := signToken(t, "other-secret", jwt.MapClaims{
			"sub": "user-123",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		_, err := validator.ValidateToken(tokenString)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("missing subject claim", func(t *testing.T) {
		tokenString := signToken(t, testSecret, jwt.MapClaims{
			"name": "No Subject",
			"exp":  time.Now().Add(time.Hour).Unix(),
		})

		_, err := validator.ValidateToken(tokenString)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := validator.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}

func TestJWTValidator_IssuerAndAudience(t *testing.T) {
	validator := auth.NewJWTValidator(&config.AuthConfig{
		Secret:   testSecret,
		Issuer:   "https://id.viora.no",
		Audience: "procurement-api",
	})

	t.Run("matching issuer and audience", func(t *testing.T) {
		tokenString := signToken(t, testSecret, jwt.MapClaims{
			"sub": "user-123",
			"iss": "https://id.viora.no",
			"aud": "procurement-api",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		_, err := validator.ValidateToken(tokenString)
		assert.NoError(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		tokenString := signToken(t, testSecret, jwt.MapClaims{
			"sub": "user-123",
			"iss": "https://rogue.example.com",
			"aud": "procurement-api",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		_, err := validator.ValidateToken(tokenString)
		assert.Error(t, err)
	})
}
