package config

import (
	"bytes"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredKeys(t *testing.T) {
	t.Helper()
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{1}, 32))
	t.Setenv("COOKIE_HASH_KEY", key)
	t.Setenv("COOKIE_BLOCK_KEY", key)
	t.Setenv("CRED_ENC_KEY", key)
}

func TestFromEnvDefaults(t *testing.T) {
	setRequiredKeys(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.Equal(t, 15*time.Second, cfg.UpstreamTimeout)
	assert.Len(t, cfg.CredentialKey, 32)
}

func TestFromEnvOverrides(t *testing.T) {
	setRequiredKeys(t)
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("UPSTREAM_TIMEOUT_SECONDS", "30")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, 30*time.Second, cfg.UpstreamTimeout)
}

func TestFromEnvMissingKeys(t *testing.T) {
	t.Setenv("COOKIE_HASH_KEY", "")
	t.Setenv("COOKIE_BLOCK_KEY", "")
	t.Setenv("CRED_ENC_KEY", "")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CRED_ENC_KEY")
}

func TestFromEnvRejectsShortCredentialKey(t *testing.T) {
	setRequiredKeys(t)
	t.Setenv("CRED_ENC_KEY", base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{1}, 16)))

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "32 bytes")
}

func TestFromEnvRejectsBadTimeout(t *testing.T) {
	setRequiredKeys(t)
	t.Setenv("UPSTREAM_TIMEOUT_SECONDS", "0")

	_, err := FromEnv()
	require.Error(t, err)
}
