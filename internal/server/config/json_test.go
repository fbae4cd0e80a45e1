package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_LoadsAllKeys(t *testing.T) {
	path := writeTempJSON(t, "", "", map[string]any{
		"env":                             "prod",
		"endpoint_addr_http":              "www.example:9000",
		"read_timeout":                    "3s",
		"write_timeout":                   "4s",
		"idle_timeout":                    "5s",
		"storage":                         "memory",
		"database_dsn":                    "postgres://db",
		"secret_key":                      "my_secret_key",
		"issuer":                          "iss",
		"access_token_validity_duration":  "1m",
		"refresh_token_validity_duration": "3m",
		"rotate_refresh_tokens":           true,
		"bcrypt_cost":                     10,
	})

	cfg := &Config{}
	require.NoError(t, parseJson(cfg, []string{"-config", path}))

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "www.example:9000", cfg.EndpointAddrHTTP)
	assert.Equal(t, 3*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 4*time.Second, cfg.WriteTimeout)
	assert.Equal(t, 5*time.Second, cfg.IdleTimeout)
	assert.Equal(t, "memory", cfg.Storage)
	assert.Equal(t, "postgres://db", cfg.DatabaseDSN)
	assert.Equal(t, "my_secret_key", cfg.SecretKey)
	assert.Equal(t, "iss", cfg.Issuer)
	assert.Equal(t, 1*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, 3*time.Minute, cfg.RefreshTokenValidityDuration)
	assert.True(t, cfg.RotateRefreshTokens)
	assert.Equal(t, 10, cfg.BcryptCost)
}

func Test_parseJson_AbsentKeysKeepValues(t *testing.T) {
	path := writeTempJSON(t, "", "", map[string]any{"secret_key": "s"})

	cfg := &Config{}
	cfg.LoadDefaults()
	require.NoError(t, parseJson(cfg, []string{"-c", path}))

	assert.Equal(t, "s", cfg.SecretKey)
	assert.Equal(t, ":8080", cfg.EndpointAddrHTTP)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, 12, cfg.BcryptCost)
}

func Test_parseJson_NoFlagIsNoop(t *testing.T) {
	cfg := &Config{SecretKey: "keep"}
	require.NoError(t, parseJson(cfg, []string{"-a", ":1"}))
	assert.Equal(t, "keep", cfg.SecretKey)
}

func Test_parseJson_BadContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	err := parseJson(&Config{}, []string{"-c", path})
	require.Error(t, err)
}
