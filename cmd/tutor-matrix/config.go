// ABOUTME: Configuration loading for the tutor-matrix bridge
// ABOUTME: Loads TOML config from the tutor config directory with environment variable expansion

package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/2389/tutor-chat/internal/config"
)

// ConfigEnv names the environment variable holding an explicit config path.
const ConfigEnv = "TUTOR_MATRIX_CONFIG"

type Config struct {
	Matrix  MatrixConfig  `toml:"matrix"`
	Service ServiceConfig `toml:"service"`
	Bridge  BridgeConfig  `toml:"bridge"`
	Logging LoggingConfig `toml:"logging"`
}

type MatrixConfig struct {
	Homeserver  string `toml:"homeserver"`
	Username    string `toml:"username"`
	Password    string `toml:"password"`
	RecoveryKey string `toml:"recovery_key"`
}

type ServiceConfig struct {
	URL     string   `toml:"url"`
	Timeout duration `toml:"timeout"`
}

type BridgeConfig struct {
	AllowedRooms    []string `toml:"allowed_rooms"`
	CommandPrefix   string   `toml:"command_prefix"`
	TypingIndicator bool     `toml:"typing_indicator"`
	IdleTimeout     duration `toml:"idle_timeout"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// duration decodes TOML strings such as "30s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// configPath returns $TUTOR_MATRIX_CONFIG, else matrix-bridge.toml in the
// tutor config directory.
func configPath() string {
	if p := os.Getenv(ConfigEnv); p != "" {
		return p
	}
	return filepath.Join(config.Dir(), "matrix-bridge.toml")
}

// dataPath holds the encryption store.
func dataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data"
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataDir, "tutor")
}

// Load reads config from the given path, expanding environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return parseConfig(string(data))
}

func parseConfig(data string) (*Config, error) {
	cfg := Config{
		Service: ServiceConfig{URL: config.DefaultBaseURL, Timeout: duration{30 * time.Second}},
		Bridge:  BridgeConfig{CommandPrefix: "!", TypingIndicator: true, IdleTimeout: duration{time.Hour}},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
	if _, err := toml.Decode(expandEnvVars(data), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if v := os.Getenv(config.BaseURLEnv); v != "" {
		cfg.Service.URL = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// expandEnvVars replaces ${VAR} with environment variable values.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(varName)
	})
}

// Validate checks that required config fields are present and valid.
func (c *Config) Validate() error {
	if c.Matrix.Homeserver == "" {
		return fmt.Errorf("matrix.homeserver is required")
	}
	if _, err := url.Parse(c.Matrix.Homeserver); err != nil {
		return fmt.Errorf("matrix.homeserver is not a valid URL: %w", err)
	}
	if c.Matrix.Username == "" {
		return fmt.Errorf("matrix.username is required")
	}
	if c.Matrix.Password == "" {
		return fmt.Errorf("matrix.password is required")
	}

	u, err := url.Parse(c.Service.URL)
	if err != nil {
		return fmt.Errorf("service.url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("service.url must use http or https scheme")
	}
	if c.Service.Timeout.Duration <= 0 {
		return fmt.Errorf("service.timeout must be positive")
	}
	if c.Bridge.IdleTimeout.Duration <= 0 {
		return fmt.Errorf("bridge.idle_timeout must be positive")
	}
	return nil
}
