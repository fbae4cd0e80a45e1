package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseFlags(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	args := []string{
		"-a", ":9090",
		"-d", "postgres://other",
		"-m", "memory",
		"-s", "flag-secret",
		"-t", "5",
		"-r", "60",
		"-e", "dev",
		"-rotate",
		"-c", "ignored.json",
	}
	require.NoError(t, parseFlags(cfg, args))

	assert.Equal(t, ":9090", cfg.EndpointAddrHTTP)
	assert.Equal(t, "postgres://other", cfg.DatabaseDSN)
	assert.Equal(t, "memory", cfg.Storage)
	assert.Equal(t, "flag-secret", cfg.SecretKey)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, time.Hour, cfg.RefreshTokenValidityDuration)
	assert.Equal(t, "dev", cfg.Env)
	assert.True(t, cfg.RotateRefreshTokens)
}

func Test_parseFlags_UnsetDurationsKeepSubMinuteValues(t *testing.T) {
	cfg := &Config{AccessTokenValidityDuration: 90 * time.Second}
	require.NoError(t, parseFlags(cfg, []string{"-a", ":1"}))

	assert.Equal(t, 90*time.Second, cfg.AccessTokenValidityDuration)
}

func Test_parseFlags_BadNumber(t *testing.T) {
	err := parseFlags(&Config{}, []string{"-t", "soon"})
	require.Error(t, err)
}
