package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "directory-test-secret"

func TestGenerateTokenPair(t *testing.T) {
	tests := []struct {
		name   string
		userID uint
		email  string
		role   string
	}{
		{name: "Visitor account", userID: 1, email: "ada@example.com", role: "user"},
		{name: "Listing owner", userID: 7, email: "owner@example.com", role: "owner"},
		{name: "Administrator", userID: 2, email: "admin@example.com", role: "admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := GenerateTokenPair(tt.userID, tt.email, tt.role, testSecret, 15*time.Minute, 7*24*time.Hour)
			require.NoError(t, err)
			require.NotNil(t, tokens)
			assert.NotEqual(t, tokens.AccessToken, tokens.RefreshToken)
			assert.WithinDuration(t, time.Now().Add(15*time.Minute), tokens.ExpiresAt, 5*time.Second)

			access, err := ValidateToken(tokens.AccessToken, testSecret)
			require.NoError(t, err)
			assert.Equal(t, tt.userID, access.UserID)
			assert.Equal(t, tt.role, access.Role)
			assert.Equal(t, TokenTypeAccess, access.TokenType)

			refresh, err := ValidateToken(tokens.RefreshToken, testSecret)
			require.NoError(t, err)
			assert.Equal(t, TokenTypeRefresh, refresh.TokenType)
		})
	}
}

func TestValidateToken_Rejections(t *testing.T) {
	tokens, err := GenerateTokenPair(3, "u@example.com", "user", testSecret, time.Minute, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{name: "Wrong secret", token: tokens.AccessToken, secret: "other"},
		{name: "Garbage", token: "not.a.jwt", secret: testSecret},
		{name: "Empty", token: "", secret: testSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.token, tt.secret)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestValidateToken_Expired(t *testing.T) {
	tokens, err := GenerateTokenPair(1, "u@example.com", "user", testSecret, -time.Minute, -time.Minute)
	require.NoError(t, err)

	claims, err := ValidateToken(tokens.AccessToken, testSecret)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestClaims_RemainingTTL(t *testing.T) {
	tokens, err := GenerateTokenPair(1, "u@example.com", "user", testSecret, 10*time.Minute, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(tokens.AccessToken, testSecret)
	require.NoError(t, err)

	ttl := claims.RemainingTTL()
	assert.True(t, ttl > 9*time.Minute && ttl <= 10*time.Minute, "unexpected ttl %s", ttl)
	assert.Zero(t, (&Claims{}).RemainingTTL())
}
