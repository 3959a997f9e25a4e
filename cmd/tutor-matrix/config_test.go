// ABOUTME: Tests for tutor-matrix configuration loading
// ABOUTME: Covers defaults, env expansion, durations, and validation

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/tutor-chat/internal/config"
)

func TestLoad_ValidConfig(t *testing.T) {
	t.Setenv(config.BaseURLEnv, "")
	t.Setenv("TEST_MATRIX_PASSWORD", "hunter2")

	path := filepath.Join(t.TempDir(), "matrix-bridge.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[matrix]
homeserver = "https://matrix.example.edu"
username = "tutor"
password = "${TEST_MATRIX_PASSWORD}"

[service]
url = "http://localhost:5002"
timeout = "5s"

[bridge]
allowed_rooms = ["!abc:example.edu"]
command_prefix = "tutor:"
idle_timeout = "15m"
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "hunter2", cfg.Matrix.Password)
	assert.Equal(t, 5*time.Second, cfg.Service.Timeout.Duration)
	assert.Equal(t, 15*time.Minute, cfg.Bridge.IdleTimeout.Duration)
	assert.Equal(t, "tutor:", cfg.Bridge.CommandPrefix)
	assert.Equal(t, []string{"!abc:example.edu"}, cfg.Bridge.AllowedRooms)
	assert.True(t, cfg.Bridge.TypingIndicator, "typing indicator defaults on")
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestParseConfig_Defaults(t *testing.T) {
	t.Setenv(config.BaseURLEnv, "")

	cfg, err := parseConfig(`
[matrix]
homeserver = "https://matrix.org"
username = "tutor"
password = "pw"
`)
	require.NoError(t, err)

	assert.Equal(t, config.DefaultBaseURL, cfg.Service.URL)
	assert.Equal(t, "!", cfg.Bridge.CommandPrefix)
	assert.Equal(t, time.Hour, cfg.Bridge.IdleTimeout.Duration)
}

func TestParseConfig_BaseURLEnvOverrides(t *testing.T) {
	t.Setenv(config.BaseURLEnv, "https://api.example.edu")

	cfg, err := parseConfig(`
[matrix]
homeserver = "https://matrix.org"
username = "tutor"
password = "pw"
`)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.edu", cfg.Service.URL)
}

func TestParseConfig_Invalid(t *testing.T) {
	t.Setenv(config.BaseURLEnv, "")

	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"no homeserver", `[matrix]
username = "u"
password = "p"`, "matrix.homeserver"},
		{"no password", `[matrix]
homeserver = "https://matrix.org"
username = "u"`, "matrix.password"},
		{"bad service scheme", `[matrix]
homeserver = "https://matrix.org"
username = "u"
password = "p"
[service]
url = "ftp://x"`, "http or https"},
		{"bad duration", `[matrix]
homeserver = "https://matrix.org"
username = "u"
password = "p"
[bridge]
idle_timeout = "later"`, "parsing config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseConfig(tt.data)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRenderConfig_RoundTrips(t *testing.T) {
	t.Setenv(config.BaseURLEnv, "")

	out := renderConfig("https://matrix.org", "tutor", "p\"w", "", "http://localhost:5002", "!")
	cfg, err := parseConfig(out)
	require.NoError(t, err)

	assert.Equal(t, "p\"w", cfg.Matrix.Password)
	assert.Equal(t, "!", cfg.Bridge.CommandPrefix)
	assert.Empty(t, cfg.Matrix.RecoveryKey)
}

func TestCryptoStorePath(t *testing.T) {
	got := cryptoStorePath("/data", "@tutor:matrix.example.edu")
	assert.Equal(t, filepath.Join("/data", "matrix-crypto-tutor_matrix.example.edu.db"), got)
}
