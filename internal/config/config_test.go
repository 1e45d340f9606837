package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

const validConfig = `
http_port: 8081
metrics_port: 9091
log_level: debug
allowed_origins:
  - http://localhost:3000
auth:
  client_id: test-client-id
  client_secret: test-client-secret
  redirect_uri: http://localhost:3000/callback
  scopes:
    - scope-a
    - scope-b
  session_ttl: 5m
picker:
  hard_timeout: 45s
  base_retry_delay: 1s
  max_attempts: 4
`

func TestLoad_ValidFile(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.HTTPPort)
	assert.Equal(t, 9091, cfg.MetricsPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "test-client-id", cfg.Auth.ClientID)
	assert.Equal(t, []string{"scope-a", "scope-b"}, cfg.Auth.Scopes)
	assert.Equal(t, 5*time.Minute, cfg.Auth.SessionTTL.Duration)
	assert.Equal(t, 45*time.Second, cfg.Picker.HardTimeout.Duration)
	assert.Equal(t, 4, cfg.Picker.MaxAttempts)

	// Provider endpoints keep their Google defaults.
	assert.Contains(t, cfg.Provider.TokenURL, "oauth2.googleapis.com")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("AUTH_CLIENT_ID", "env-client-id")
	t.Setenv("AUTH_CLIENT_SECRET", "env-secret")
	t.Setenv("HTTP_PORT", "8888")
	t.Setenv("SESSION_TTL", "90s")

	cfg, err := Load(writeConfigFile(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "env-client-id", cfg.Auth.ClientID)
	assert.Equal(t, "env-secret", cfg.Auth.ClientSecret)
	assert.Equal(t, 8888, cfg.HTTPPort)
	assert.Equal(t, 90*time.Second, cfg.Auth.SessionTTL.Duration)
}

func TestLoad_InvalidEnvPort(t *testing.T) {
	t.Setenv("HTTP_PORT", "not-a-port")

	_, err := Load(writeConfigFile(t, validConfig))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_PORT")
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name   string
		config string
	}{
		{
			name: "missing client credentials",
			config: `
log_level: info
auth:
  redirect_uri: http://localhost:3000/callback
  scopes: [scope-a]
`,
		},
		{
			name: "bad log level",
			config: `
log_level: loud
auth:
  client_id: id
  client_secret: secret
  redirect_uri: http://localhost:3000/callback
  scopes: [scope-a]
`,
		},
		{
			name: "bad redirect uri",
			config: `
log_level: info
auth:
  client_id: id
  client_secret: secret
  redirect_uri: not-a-url
  scopes: [scope-a]
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfigFile(t, tt.config))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation failed")
		})
	}
}

func TestDuration_UnmarshalYAML(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalYAML([]byte("2m30s")))
	assert.Equal(t, 150*time.Second, d.Duration)

	require.NoError(t, d.UnmarshalYAML([]byte(`"10s"`)))
	assert.Equal(t, 10*time.Second, d.Duration)

	assert.Error(t, d.UnmarshalYAML([]byte("banana")))
}
