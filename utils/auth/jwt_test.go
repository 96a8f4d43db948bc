package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	manager := NewJWTManager(JWTConfig{Secret: "test-secret", Issuer: "admission-api"})

	token, jti, err := manager.GenerateAccessToken(7, "student@example.com", false, 2)
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	claims, err := manager.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "student@example.com", claims.Email)
	assert.False(t, claims.IsAdmin)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.Equal(t, 2, claims.TokenVersion)
	assert.Equal(t, jti, claims.ID)
}

func TestValidateTokenRejects(t *testing.T) {
	manager := NewJWTManager(JWTConfig{Secret: "test-secret", Issuer: "admission-api"})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTManager(JWTConfig{Secret: "other", Issuer: "admission-api"})
		token, _, err := other.GenerateAccessToken(1, "a@example.com", true, 0)
		require.NoError(t, err)

		_, err = manager.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTManager(JWTConfig{Secret: "test-secret", Issuer: "someone-else"})
		token, _, err := other.GenerateAccessToken(1, "a@example.com", true, 0)
		require.NoError(t, err)

		_, err = manager.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewJWTManager(JWTConfig{Secret: "test-secret", Issuer: "admission-api", Expiry: -time.Minute})
		token, _, err := expired.GenerateAccessToken(1, "a@example.com", false, 0)
		require.NoError(t, err)

		_, err = manager.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := manager.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestHashPassword(t *testing.T) {
	_, err := HashPassword("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.NoError(t, VerifyPassword(hash, "correct horse battery"))
	assert.ErrorIs(t, VerifyPassword(hash, "wrong password"), ErrPasswordMismatch)
}
