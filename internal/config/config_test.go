// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, defaults, env var expansion and overrides, and duration parsing

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "web.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	t.Setenv(BaseURLEnv, "")

	path := writeConfig(t, `
server:
  http_addr: "0.0.0.0:9090"

service:
  base_url: "https://tutor.example.edu"
  timeout: "5s"

session:
  secret: "s3cret"
  idle_timeout: "10m"
  cookie_ttl: "24h"

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:9090" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:9090")
	}
	if cfg.Service.BaseURL != "https://tutor.example.edu" {
		t.Errorf("Service.BaseURL = %q", cfg.Service.BaseURL)
	}
	if cfg.Service.Timeout != 5*time.Second {
		t.Errorf("Service.Timeout = %v, want 5s", cfg.Service.Timeout)
	}
	if cfg.Session.Secret != "s3cret" {
		t.Errorf("Session.Secret = %q", cfg.Session.Secret)
	}
	if cfg.Session.IdleTimeout != 10*time.Minute {
		t.Errorf("Session.IdleTimeout = %v, want 10m", cfg.Session.IdleTimeout)
	}
	if cfg.Session.CookieTTL != 24*time.Hour {
		t.Errorf("Session.CookieTTL = %v, want 24h", cfg.Session.CookieTTL)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoad_KeepsDefaultsForOmittedFields(t *testing.T) {
	t.Setenv(BaseURLEnv, "")

	path := writeConfig(t, `
logging:
  level: "warn"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	def := Default()
	if cfg.Service.BaseURL != DefaultBaseURL {
		t.Errorf("Service.BaseURL = %q, want %q", cfg.Service.BaseURL, DefaultBaseURL)
	}
	if cfg.Server.HTTPAddr != def.Server.HTTPAddr {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, def.Server.HTTPAddr)
	}
	if !cfg.Server.Metrics {
		t.Error("Server.Metrics = false, want metrics on by default")
	}
	if cfg.Session.IdleTimeout != 30*time.Minute {
		t.Errorf("Session.IdleTimeout = %v, want 30m", cfg.Session.IdleTimeout)
	}
	if cfg.Backend.TokenTTL != def.Backend.TokenTTL {
		t.Errorf("Backend.TokenTTL = %v, want %v", cfg.Backend.TokenTTL, def.Backend.TokenTTL)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv(BaseURLEnv, "")
	t.Setenv("TEST_TUTOR_SECRET", "from-env")
	t.Setenv("TEST_TUTOR_ADMIN_PW", "pw-from-env")

	path := writeConfig(t, `
session:
  secret: "${TEST_TUTOR_SECRET}"
backend:
  admin_password: "${TEST_TUTOR_ADMIN_PW}"
  jwt_secret: "${UNSET_VAR_FOR_TUTOR_TEST}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Session.Secret != "from-env" {
		t.Errorf("Session.Secret = %q, want %q", cfg.Session.Secret, "from-env")
	}
	if cfg.Backend.AdminPassword != "pw-from-env" {
		t.Errorf("Backend.AdminPassword = %q, want %q", cfg.Backend.AdminPassword, "pw-from-env")
	}
	if cfg.Backend.JWTSecret != "" {
		t.Errorf("Backend.JWTSecret = %q, want empty for unset var", cfg.Backend.JWTSecret)
	}
}

func TestLoad_BaseURLEnvOverridesFile(t *testing.T) {
	t.Setenv(BaseURLEnv, "http://chat.internal:5002")

	path := writeConfig(t, `
service:
  base_url: "http://localhost:5002"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Service.BaseURL != "http://chat.internal:5002" {
		t.Errorf("Service.BaseURL = %q, want env override", cfg.Service.BaseURL)
	}
}

func TestLoadOptional_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv(BaseURLEnv, "")

	cfg, err := LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadOptional() error = %v", err)
	}
	if cfg.Service.BaseURL != DefaultBaseURL {
		t.Errorf("Service.BaseURL = %q, want %q", cfg.Service.BaseURL, DefaultBaseURL)
	}
}

func TestLoadOptional_MissingFileHonoursEnv(t *testing.T) {
	t.Setenv(BaseURLEnv, "https://api.example.edu")

	cfg, err := LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadOptional() error = %v", err)
	}
	if cfg.Service.BaseURL != "https://api.example.edu" {
		t.Errorf("Service.BaseURL = %q", cfg.Service.BaseURL)
	}
}

func TestLoadOptional_InvalidFileIsAnError(t *testing.T) {
	path := writeConfig(t, "server: [unclosed")
	if _, err := LoadOptional(path); err == nil {
		t.Error("LoadOptional() expected error for invalid YAML, got nil")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/web.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr "missing colon"
`)
	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, `
session:
  idle_timeout: "soon"
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected error for invalid duration, got nil")
	}
	if !strings.Contains(err.Error(), "session.idle_timeout") {
		t.Errorf("error %q does not name the field", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"empty base url", func(c *Config) { c.Service.BaseURL = "" }, "service.base_url"},
		{"bad scheme", func(c *Config) { c.Service.BaseURL = "ftp://x" }, "scheme"},
		{"no host", func(c *Config) { c.Service.BaseURL = "http://" }, "missing host"},
		{"zero timeout", func(c *Config) { c.Service.Timeout = 0 }, "service.timeout"},
		{"no http addr", func(c *Config) { c.Server.HTTPAddr = "" }, "server.http_addr"},
		{"tailscale replaces http addr", func(c *Config) {
			c.Server.HTTPAddr = ""
			c.Tailscale.Enabled = true
			c.Tailscale.Hostname = "tutor"
		}, ""},
		{"tailscale without hostname", func(c *Config) { c.Tailscale.Enabled = true }, "tailscale.hostname"},
		{"zero idle timeout", func(c *Config) { c.Session.IdleTimeout = 0 }, "session.idle_timeout"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateBackend(t *testing.T) {
	cfg := Default()
	if err := cfg.ValidateBackend(); err != nil {
		t.Fatalf("ValidateBackend() on defaults = %v", err)
	}

	cfg.Backend.DatabasePath = ""
	if err := cfg.ValidateBackend(); err == nil || !strings.Contains(err.Error(), "database_path") {
		t.Fatalf("ValidateBackend() error = %v, want database_path", err)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv(PathEnv, "/etc/tutor/custom.yaml")
	if got := DefaultPath(); got != "/etc/tutor/custom.yaml" {
		t.Errorf("DefaultPath() = %q", got)
	}

	t.Setenv(PathEnv, "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := DefaultPath(); got != filepath.Join("/tmp/xdg", "tutor", "web.yaml") {
		t.Errorf("DefaultPath() = %q", got)
	}
}
