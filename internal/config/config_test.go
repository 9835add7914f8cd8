package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setAuthEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AUTH_JWT_SECRET", "s3cr3t")
	t.Setenv("AUTH_JWT_ISSUER", "http://localhost:8080")
	t.Setenv("AUTH_JWT_AUDIENCE", "http://localhost:8080")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_SECONDS", "3600")
	t.Setenv("AUTH_REFRESH_TOKEN_TTL_SECONDS", "86400")
}

func TestLoad_Success(t *testing.T) {
	setAuthEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "s3cr3t", cfg.Auth.JWTSecret)
	assert.Equal(t, "http://localhost:8080", cfg.Auth.Issuer)
	assert.Equal(t, time.Hour, cfg.Auth.AccessTTL())
	assert.Equal(t, 24*time.Hour, cfg.Auth.RefreshTTL())
	assert.Equal(t, "bcrypt", cfg.Auth.PasswordAlgorithm)
	assert.False(t, cfg.Auth.RotateRefreshTokens)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.True(t, cfg.Audit.Enabled)
}

func TestLoad_EmptySecretFails(t *testing.T) {
	setAuthEnv(t)
	t.Setenv("AUTH_JWT_SECRET", "   ")

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "AUTH_JWT_SECRET")
}

func TestLoad_MissingTTLFails(t *testing.T) {
	setAuthEnv(t)
	t.Setenv("AUTH_REFRESH_TOKEN_TTL_SECONDS", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_REFRESH_TOKEN_TTL_SECONDS is required")
}

func TestLoad_NonPositiveTTLFails(t *testing.T) {
	setAuthEnv(t)
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_SECONDS", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be positive")
}

func TestLoad_InvalidTTLFails(t *testing.T) {
	setAuthEnv(t)
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_SECONDS", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid AUTH_ACCESS_TOKEN_TTL_SECONDS")
}

func TestAuthConfigValidate_CollectsAllProblems(t *testing.T) {
	err := AuthConfig{PasswordAlgorithm: "md5"}.Validate()
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "AUTH_JWT_SECRET")
	assert.Contains(t, msg, "AUTH_JWT_ISSUER")
	assert.Contains(t, msg, "AUTH_JWT_AUDIENCE")
	assert.Contains(t, msg, "md5")
}

func TestRequestTimeout_DisabledWhenNonPositive(t *testing.T) {
	assert.Equal(t, time.Duration(0), AppConfig{RequestTimeoutSeconds: 0}.RequestTimeout())
}
