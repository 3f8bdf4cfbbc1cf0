package app

import (
	"fmt"
	"io"
	"os"

	"mcpstack/internal/config"
	"mcpstack/internal/generator"
	"mcpstack/internal/presets"
	"mcpstack/internal/serving"
	"mcpstack/internal/stack"
	"mcpstack/internal/tools"
	"mcpstack/pkg/logging"
)

const bootstrapSubsystem = "Bootstrap"

// Application is the bootstrapped state shared by every command.
type Application struct {
	config     *Config
	settings   config.Settings
	registries *stack.Registries
}

// NewApplication configures logging, loads settings and seals the registries.
func NewApplication(cfg *Config) (*Application, error) {
	if cfg == nil {
		cfg = NewConfig(false, false, "")
	}

	var logOutput io.Writer = os.Stderr
	if cfg.LogOutput != nil {
		logOutput = cfg.LogOutput
	}
	if cfg.Silent {
		logOutput = io.Discard
	}
	logging.InitForCLI(logging.LevelInfo, logOutput)

	var settings config.Settings
	if cfg.Settings != nil {
		settings = *cfg.Settings
		if err := settings.Validate(); err != nil {
			return nil, fmt.Errorf("invalid settings: %w", err)
		}
	} else {
		loaded, err := config.LoadSettings(cfg.SettingsDir)
		if err != nil {
			logging.Error(bootstrapSubsystem, err, "Failed to load settings")
			return nil, err
		}
		settings = loaded
	}

	level, _ := logging.ParseLevel(settings.LogLevel)
	if cfg.Debug {
		level = logging.LevelDebug
	}
	logging.SetLevel(level)

	reg, err := NewRegistries()
	if err != nil {
		logging.Error(bootstrapSubsystem, err, "Failed to populate registries")
		return nil, err
	}
	logging.Debug(bootstrapSubsystem, "Registered %d tools, %d presets, %d formats",
		reg.Tools.Len(), reg.Presets.Len(), reg.Generators.Len())

	return &Application{config: cfg, settings: settings, registries: reg}, nil
}

// NewRegistries returns sealed registries holding every built-in tool, preset and format.
func NewRegistries() (*stack.Registries, error) {
	reg := stack.NewRegistries()
	for _, register := range []func(*stack.Registries) error{
		tools.Register,
		presets.Register,
		generator.Register,
	} {
		if err := register(reg); err != nil {
			return nil, fmt.Errorf("failed to register built-ins: %w", err)
		}
	}
	reg.Seal()
	return reg, nil
}

// Settings returns the loaded user settings.
func (a *Application) Settings() config.Settings {
	return a.settings
}

// Registries returns the sealed registries.
func (a *Application) Registries() *stack.Registries {
	return a.registries
}

// StackConfig builds a configuration at the settings' log level whose
// overrides are the settings' env merged with env.
func (a *Application) StackConfig(env map[string]string) (*config.StackConfig, error) {
	cfg, err := config.NewStackConfig(a.settings.LogLevel, a.settings.Env)
	if err != nil {
		return nil, err
	}
	if err := cfg.MergeEnv(env, ""); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RuntimeConfig returns the serving configuration from the settings.
func (a *Application) RuntimeConfig() serving.Config {
	return serving.Config{
		Name:      a.settings.ServerName,
		Version:   a.config.Version,
		Transport: a.settings.Runtime.Transport,
		Host:      a.settings.Runtime.Host,
		Port:      a.settings.Runtime.Port,
	}
}

// NewPipeline returns an empty pipeline that creates its serving runtime on build.
func (a *Application) NewPipeline(cfg *config.StackConfig) *stack.Pipeline {
	return stack.NewPipeline(cfg, a.registries, stack.UseRuntimeFactory(serving.Factory(a.RuntimeConfig())))
}

// GenerateOptions returns generator options seeded from the settings.
func (a *Application) GenerateOptions() stack.GenerateOptions {
	d := a.settings.Docker
	return stack.GenerateOptions{
		ServerName: a.settings.ServerName,
		Image:      d.Image,
		Volumes:    append([]string(nil), d.Volumes...),
		Ports:      append([]string(nil), d.Ports...),
		Network:    d.Network,
		ExtraArgs:  append([]string(nil), d.ExtraArgs...),
	}
}
