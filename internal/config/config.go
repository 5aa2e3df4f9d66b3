// Package config loads process configuration from the environment. The
// resulting Config is constructed once in main and passed down explicitly;
// nothing in the tree reads the environment on its own.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Config is the full runtime configuration.
type Config struct {
	// File is the sheet path. Extension picks the codec (.toml default,
	// .yaml/.yml for YAML).
	File string `env:"TI_FILE"`
	// Editor opens the sheet for `ti edit`. Falls back to EDITOR, then
	// VISUAL, then vi.
	Editor string `env:"TI_EDITOR"`
	// NoColor disables terminal styling.
	NoColor bool `env:"TI_NO_COLOR"`
	// LogFile, when set, receives a structured copy of the log stream.
	LogFile string `env:"TI_LOG"`
	// Debug lowers the stderr log level to debug.
	Debug bool `env:"TI_DEBUG"`
}

// Load parses the environment and fills in defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.File == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		cfg.File = filepath.Join(home, ".ti-sheet.toml")
	}
	if cfg.Editor == "" {
		cfg.Editor = os.Getenv("EDITOR")
	}
	if cfg.Editor == "" {
		cfg.Editor = os.Getenv("VISUAL")
	}
	if cfg.Editor == "" {
		cfg.Editor = "vi"
	}
	return cfg, nil
}
