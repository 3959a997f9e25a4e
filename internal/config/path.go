// ABOUTME: Resolves where the tutor configuration file lives
// ABOUTME: TUTOR_CONFIG wins, then the XDG config directory

package config

import (
	"os"
	"path/filepath"
)

// PathEnv names the environment variable holding an explicit config path.
const PathEnv = "TUTOR_CONFIG"

// DefaultPath returns $TUTOR_CONFIG, else $XDG_CONFIG_HOME/tutor/web.yaml,
// else ~/.config/tutor/web.yaml.
func DefaultPath() string {
	if p := os.Getenv(PathEnv); p != "" {
		return p
	}
	return filepath.Join(Dir(), "web.yaml")
}

// Dir is the tutor configuration directory. Tokens are stored there too.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tutor")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "tutor")
	}
	return filepath.Join(home, ".config", "tutor")
}
