package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-agent-go/internal/config"
)

func jwtConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:      "test_jwt_secret",
		ExpireHours: 1,
		Issuer:      "resume-agent",
	}
}

func TestIssueAndParseToken(t *testing.T) {
	cfg := jwtConfig()

	token, expiresAt, err := IssueToken(cfg, "user-123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	userID, err := ParseToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestParseToken_WrongSecretRejected(t *testing.T) {
	token, _, err := IssueToken(jwtConfig(), "user-123")
	require.NoError(t, err)

	other := jwtConfig()
	other.Secret = "another_secret"
	_, err = ParseToken(other, token)
	assert.Error(t, err)
}

func TestParseToken_WrongIssuerRejected(t *testing.T) {
	token, _, err := IssueToken(jwtConfig(), "user-123")
	require.NoError(t, err)

	other := jwtConfig()
	other.Issuer = "someone-else"
	_, err = ParseToken(other, token)
	assert.Error(t, err)
}

func TestParseToken_ExpiredRejected(t *testing.T) {
	cfg := jwtConfig()
	cfg.ExpireHours = -1 // 签出即过期

	token, _, err := IssueToken(cfg, "user-123")
	require.NoError(t, err)

	_, err = ParseToken(cfg, token)
	assert.Error(t, err)
}

func TestParseToken_GarbageRejected(t *testing.T) {
	_, err := ParseToken(jwtConfig(), "not-a-jwt")
	assert.Error(t, err)
}
