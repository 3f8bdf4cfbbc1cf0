package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"mcpstack/internal/api"
	"mcpstack/pkg/logging"
)

const (
	// DefaultLogLevel is used when a configuration does not name one.
	DefaultLogLevel = "INFO"

	// EnvDataDir overrides the directory tools keep their state in.
	EnvDataDir = "MCPSTACK_DATA_DIR"

	// EnvConfigPath names the pipeline document a launched server loads.
	EnvConfigPath = "MCPSTACK_CONFIG_PATH"
	// EnvCommand, EnvArgs and EnvCwd override how hosts launch the server.
	EnvCommand = "MCPSTACK_COMMAND"
	EnvArgs    = "MCPSTACK_ARGS"
	EnvCwd     = "MCPSTACK_CWD"
)

// Document is the persisted form of a StackConfig.
type Document struct {
	LogLevel string            `json:"log_level" yaml:"log_level"`
	EnvVars  map[string]string `json:"env_vars" yaml:"env_vars"`
}

// StackConfig carries the log level and environment overrides shared by a
// pipeline and its tools. Pipelines derived from one another share the same
// *StackConfig; the only mutation after construction is MergeEnv.
type StackConfig struct {
	logLevel logging.LogLevel
	envVars  map[string]string
}

// NewStackConfig validates logLevel and copies envVars.
// An empty level selects DefaultLogLevel.
func NewStackConfig(logLevel string, envVars map[string]string) (*StackConfig, error) {
	if logLevel == "" {
		logLevel = DefaultLogLevel
	}
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return nil, api.Wrap(api.ErrConfig, err, "invalid log level")
	}

	vars := make(map[string]string, len(envVars))
	for k, v := range envVars {
		vars[k] = v
	}
	return &StackConfig{logLevel: level, envVars: vars}, nil
}

// DefaultStackConfig returns an INFO-level configuration with no overrides.
func DefaultStackConfig() *StackConfig {
	return &StackConfig{logLevel: logging.LevelInfo, envVars: map[string]string{}}
}

// FromDocument rebuilds a configuration from its persisted form.
func FromDocument(doc Document) (*StackConfig, error) {
	return NewStackConfig(doc.LogLevel, doc.EnvVars)
}

// ToDocument returns the persisted form of the configuration.
func (c *StackConfig) ToDocument() Document {
	return Document{LogLevel: c.logLevel.String(), EnvVars: c.EnvVars()}
}

// LogLevel returns the canonical level name.
func (c *StackConfig) LogLevel() string {
	return c.logLevel.String()
}

// Level returns the configured level.
func (c *StackConfig) Level() logging.LogLevel {
	return c.logLevel
}

// EnvVars returns a copy of the override map. It is never nil.
func (c *StackConfig) EnvVars() map[string]string {
	out := make(map[string]string, len(c.envVars))
	for k, v := range c.envVars {
		out[k] = v
	}
	return out
}

// GetEnv resolves key from the overrides, then the process environment, then def.
// An override is returned whenever it is present, even when empty. An empty
// process variable counts as unset. When required is set and nothing resolves,
// a configuration error naming key is returned.
func (c *StackConfig) GetEnv(key, def string, required bool) (string, error) {
	if v, ok := c.envVars[key]; ok {
		return v, nil
	}
	if v := os.Getenv(key); v != "" {
		return v, nil
	}
	if def != "" {
		return def, nil
	}
	if required {
		return "", api.Errorf(api.ErrConfig, "missing required environment variable: %s", key)
	}
	return "", nil
}

// GetEnvVar resolves a tool's declared variable, treating it as required
// when it has no default.
func (c *StackConfig) GetEnvVar(v api.EnvVar) (string, error) {
	return c.GetEnv(v.Name, v.Default, !v.HasDefault)
}

// MergeEnv adds vars to the overrides, prefixing every key with prefix.
// A key already present with a different value is a conflict and nothing is
// merged. Re-merging an identical value is a no-op.
func (c *StackConfig) MergeEnv(vars map[string]string, prefix string) error {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		key := prefix + k
		if existing, ok := c.envVars[key]; ok && existing != vars[k] {
			return api.Errorf(api.ErrConfig, "env conflict: %s (%q vs %q)", key, existing, vars[k])
		}
	}
	for _, k := range keys {
		c.envVars[prefix+k] = vars[k]
	}
	return nil
}

// ValidateForTools checks every declared variable of every tool and reports
// all failures at once.
func (c *StackConfig) ValidateForTools(tools []api.Tool) error {
	var errs ValidationErrors
	for _, t := range tools {
		for _, v := range t.RequiredEnvVars() {
			if _, err := c.GetEnvVar(v); err != nil {
				errs.Add(api.ToolType(t), err.Error(), v.Name)
			}
		}
	}
	if errs.HasErrors() {
		return api.Wrap(api.ErrConfig, errs, "environment validation failed")
	}
	return nil
}

// DataDir returns the directory tools store state in, creating it if needed.
func (c *StackConfig) DataDir() (string, error) {
	dir, _ := c.GetEnv(EnvDataDir, "", false)
	if dir == "" {
		base, err := GetUserConfigDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(base, "data")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return dir, nil
}

// Apply exports the overrides into the process environment and switches the
// active log level. Only the serving entrypoint calls it.
func (c *StackConfig) Apply() error {
	for k, v := range c.envVars {
		if err := os.Setenv(k, v); err != nil {
			return api.Wrap(api.ErrConfig, err, "export %s", k)
		}
	}
	logging.SetLevel(c.logLevel)
	logging.Debug("Config", "Applied %d environment overrides at level %s", len(c.envVars), c.logLevel)
	return nil
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying cfg. Pipelines pass it to the
// hooks of their tools.
func NewContext(ctx context.Context, cfg *StackConfig) context.Context {
	return context.WithValue(ctx, contextKey{}, cfg)
}

// FromContext returns the configuration carried by ctx, or the default one.
func FromContext(ctx context.Context) *StackConfig {
	if cfg, ok := ctx.Value(contextKey{}).(*StackConfig); ok && cfg != nil {
		return cfg
	}
	return DefaultStackConfig()
}
