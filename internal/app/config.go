package app

import (
	"io"

	"mcpstack/internal/config"
)

// Config holds the application configuration
type Config struct {
	// Debug forces debug logging regardless of the configured level
	Debug bool

	// Silent discards all log output
	Silent bool

	// SettingsDir overrides the directory config.yaml is read from
	SettingsDir string

	// Settings, when set, are used instead of loading config.yaml
	Settings *config.Settings

	// Version is reported by served runtimes
	Version string

	// LogOutput defaults to stderr
	LogOutput io.Writer
}

// NewConfig creates a new application configuration
func NewConfig(debug, silent bool, settingsDir string) *Config {
	return &Config{
		Debug:       debug,
		Silent:      silent,
		SettingsDir: settingsDir,
	}
}
