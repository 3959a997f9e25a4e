// ABOUTME: Configuration loading and parsing for the tutor web front end and dev backend
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// BaseURLEnv overrides service.base_url when set.
const BaseURLEnv = "TUTOR_API_BASE_URL"

// DefaultBaseURL is the chat service's local development address.
const DefaultBaseURL = "http://localhost:5002"

// Config represents the complete tutor configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Service   ServiceConfig   `yaml:"service"`
	Session   SessionConfig   `yaml:"session"`
	Backend   BackendConfig   `yaml:"backend"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds the web front end's listen address
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	// Metrics serves Prometheus metrics on /metrics.
	Metrics bool `yaml:"metrics"`
}

// TailscaleConfig holds Tailscale tsnet configuration
type TailscaleConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Hostname  string `yaml:"hostname"`
	AuthKey   string `yaml:"auth_key"`
	StateDir  string `yaml:"state_dir"`
	Ephemeral bool   `yaml:"ephemeral"`
	HTTPS     bool   `yaml:"https"`
	Funnel    bool   `yaml:"funnel"` // public Funnel, implies HTTPS
}

// ServiceConfig locates the remote chat service
type ServiceConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"-"`

	TimeoutRaw string `yaml:"timeout"`
}

// SessionConfig controls visitor sessions of the web front end
type SessionConfig struct {
	// Secret signs session cookies. Empty means a random per-process secret,
	// which logs everybody out on restart.
	Secret      string        `yaml:"secret"`
	IdleTimeout time.Duration `yaml:"-"`
	CookieTTL   time.Duration `yaml:"-"`

	IdleTimeoutRaw string `yaml:"idle_timeout"`
	CookieTTLRaw   string `yaml:"cookie_ttl"`
}

// BackendConfig configures the development stand-in for the chat service
type BackendConfig struct {
	HTTPAddr      string        `yaml:"http_addr"`
	DatabasePath  string        `yaml:"database_path"`
	AdminUser     string        `yaml:"admin_user"`
	AdminPassword string        `yaml:"admin_password"`
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenTTL      time.Duration `yaml:"-"`

	TokenTTLRaw string `yaml:"token_ttl"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{HTTPAddr: "localhost:8080", Metrics: true},
		Service: ServiceConfig{BaseURL: DefaultBaseURL, Timeout: 30 * time.Second},
		Session: SessionConfig{IdleTimeout: 30 * time.Minute, CookieTTL: 7 * 24 * time.Hour},
		Backend: BackendConfig{
			HTTPAddr:     "localhost:5002",
			DatabasePath: "tutor-backend.db",
			AdminUser:    "admin",
			TokenTTL:     12 * time.Hour,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads a configuration file from the given path on top of Default.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return parse(data)
}

// LoadOptional is Load, except that a missing file yields Default with
// environment overrides applied.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	cfg = Default()
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func parse(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(BaseURLEnv); v != "" {
		cfg.Service.BaseURL = v
	}
}

// Validate checks the settings every command needs.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if err := validateHTTPURL(c.Service.BaseURL); err != nil {
		return fmt.Errorf("service.base_url: %w", err)
	}
	if c.Service.Timeout <= 0 {
		return fmt.Errorf("service.timeout must be positive")
	}

	if !c.Tailscale.Enabled && c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required (or enable tailscale)")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}

	if c.Session.IdleTimeout <= 0 {
		return fmt.Errorf("session.idle_timeout must be positive")
	}
	if c.Session.CookieTTL <= 0 {
		return fmt.Errorf("session.cookie_ttl must be positive")
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

// ValidateBackend checks the settings only the development backend needs.
func (c *Config) ValidateBackend() error {
	if c.Backend.HTTPAddr == "" {
		return fmt.Errorf("backend.http_addr is required")
	}
	if c.Backend.DatabasePath == "" {
		return fmt.Errorf("backend.database_path is required")
	}
	if c.Backend.AdminUser == "" {
		return fmt.Errorf("backend.admin_user is required")
	}
	if c.Backend.TokenTTL <= 0 {
		return fmt.Errorf("backend.token_ttl must be positive")
	}
	return nil
}

func validateHTTPURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"service.timeout", cfg.Service.TimeoutRaw, &cfg.Service.Timeout},
		{"session.idle_timeout", cfg.Session.IdleTimeoutRaw, &cfg.Session.IdleTimeout},
		{"session.cookie_ttl", cfg.Session.CookieTTLRaw, &cfg.Session.CookieTTL},
		{"backend.token_ttl", cfg.Backend.TokenTTLRaw, &cfg.Backend.TokenTTL},
	}

	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}
	return nil
}
