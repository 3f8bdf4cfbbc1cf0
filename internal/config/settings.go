package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"mcpstack/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir    = ".config/mcpstack"
	settingsFileName = "config.yaml"

	// DefaultPipelinePath is where pipelines are saved when no path is given.
	DefaultPipelinePath = "mcpstack_pipeline.json"
	// DefaultServerName is the entry name used in generated host configurations.
	DefaultServerName = "mcpstack"
	// DefaultFormat is the generator used when none is requested.
	DefaultFormat = "fastmcp"
	// DefaultImage is the container image used by the docker format.
	DefaultImage = "mcpstack:latest"
)

const (
	// TransportStdio serves over standard input and output.
	TransportStdio = "stdio"
	// TransportSSE serves over Server-Sent Events.
	TransportSSE = "sse"
	// TransportStreamableHTTP serves over the streamable HTTP transport.
	TransportStreamableHTTP = "streamable-http"
)

var osUserHomeDir = os.UserHomeDir

// Settings are the user-level defaults read from config.yaml.
type Settings struct {
	LogLevel      string            `yaml:"logLevel,omitempty"`
	DefaultFormat string            `yaml:"defaultFormat,omitempty"`
	ServerName    string            `yaml:"serverName,omitempty"`
	PipelinePath  string            `yaml:"pipelinePath,omitempty"`
	Runtime       RuntimeSettings   `yaml:"runtime,omitempty"`
	Docker        DockerSettings    `yaml:"docker,omitempty"`
	Env           map[string]string `yaml:"env,omitempty"`
}

// RuntimeSettings configure how a pipeline is served.
type RuntimeSettings struct {
	Transport string `yaml:"transport,omitempty"` // stdio, sse or streamable-http
	Host      string `yaml:"host,omitempty"`
	Port      int    `yaml:"port,omitempty"`
}

// Addr returns host:port.
func (r RuntimeSettings) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// DockerSettings are the default flags for the docker format and image commands.
type DockerSettings struct {
	Image     string   `yaml:"image,omitempty"`
	Volumes   []string `yaml:"volumes,omitempty"`
	Ports     []string `yaml:"ports,omitempty"`
	Network   string   `yaml:"network,omitempty"`
	ExtraArgs []string `yaml:"extraArgs,omitempty"`
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	return Settings{
		LogLevel:      DefaultLogLevel,
		DefaultFormat: DefaultFormat,
		ServerName:    DefaultServerName,
		PipelinePath:  DefaultPipelinePath,
		Runtime: RuntimeSettings{
			Transport: TransportStdio,
			Host:      "localhost",
			Port:      8090,
		},
		Docker: DockerSettings{
			Image: DefaultImage,
		},
	}
}

// GetUserConfigDir returns ~/.config/mcpstack.
func GetUserConfigDir() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// LoadSettings reads config.yaml from dir, or from the user config directory
// when dir is empty. Values absent from the file keep their defaults.
func LoadSettings(dir string) (Settings, error) {
	settings := DefaultSettings()

	if dir == "" {
		var err error
		if dir, err = GetUserConfigDir(); err != nil {
			return Settings{}, err
		}
	}
	path := filepath.Join(dir, settingsFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("ConfigLoader", "No config.yaml found at %s, using defaults", path)
			return settings, nil
		}
		return Settings{}, fmt.Errorf("error reading settings from %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("error loading settings from %s: %w", path, err)
	}
	if err := settings.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid settings in %s: %w", path, err)
	}

	logging.Debug("ConfigLoader", "Loaded settings from %s", path)
	return settings, nil
}

// Validate checks the enumerated fields.
func (s Settings) Validate() error {
	var errs ValidationErrors
	if _, err := logging.ParseLevel(s.LogLevel); err != nil {
		errs.Add("logLevel", err.Error(), s.LogLevel)
	}
	switch s.Runtime.Transport {
	case TransportStdio, TransportSSE, TransportStreamableHTTP:
	default:
		errs.Add("runtime.transport", fmt.Sprintf("must be one of %s, %s, %s", TransportStdio, TransportSSE, TransportStreamableHTTP), s.Runtime.Transport)
	}
	if s.Runtime.Port < 0 || s.Runtime.Port > 65535 {
		errs.Add("runtime.port", "must be between 0 and 65535", s.Runtime.Port)
	}
	if errs.HasErrors() {
		return errs
	}
	return nil
}

// SaveSettings writes settings to config.yaml in dir.
func SaveSettings(dir string, settings Settings) error {
	data, err := yaml.Marshal(&settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	return WriteFileAtomic(filepath.Join(dir, settingsFileName), data, 0644)
}
