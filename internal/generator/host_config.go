package generator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"mcpstack/internal/api"
	"mcpstack/internal/config"
	"mcpstack/internal/stack"
	"mcpstack/pkg/logging"
)

const generatorSubsystem = "Generator"

// ServerEntry is one launch descriptor under mcpServers.
type ServerEntry struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Cwd     string            `json:"cwd,omitempty"`
	Env     map[string]string `json:"env"`
}

// HostConfig is the artifact of the host-launch formats.
type HostConfig struct {
	MCPServers map[string]ServerEntry `json:"mcpServers"`
}

var osUserHomeDir = os.UserHomeDir

// DesktopConfigPaths returns the candidate locations of the desktop host
// configuration, the current platform's first.
func DesktopConfigPaths() ([]string, error) {
	home, err := osUserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	mac := filepath.Join(home, "Library", "Application Support", "Claude", "claude_desktop_config.json")
	windows := filepath.Join(home, "AppData", "Roaming", "Claude", "claude_desktop_config.json")
	linux := filepath.Join(home, ".config", "Claude", "claude_desktop_config.json")

	switch runtime.GOOS {
	case "darwin":
		return []string{mac, windows, linux}, nil
	case "windows":
		return []string{windows, mac, linux}, nil
	default:
		return []string{linux, mac, windows}, nil
	}
}

// DetectHostConfigPath returns the first candidate whose directory exists.
func DetectHostConfigPath() (string, error) {
	paths, err := DesktopConfigPaths()
	if err != nil {
		return "", err
	}
	for _, p := range paths {
		if info, err := os.Stat(filepath.Dir(p)); err == nil && info.IsDir() {
			return p, nil
		}
	}
	return "", api.Errorf(api.ErrValidation, "no desktop host configuration directory found").WithKnown(paths)
}

// MergeHostConfig merges servers into the mcpServers object of the JSON file
// at path, creating the file if needed. Other entries and keys are kept.
func MergeHostConfig(path string, servers map[string]ServerEntry) error {
	return config.WithFileLock(path, func() error {
		doc := map[string]any{}
		data, err := os.ReadFile(path)
		switch {
		case err == nil && len(data) > 0:
			if err := json.Unmarshal(data, &doc); err != nil {
				return api.Wrap(api.ErrValidation, err, "host configuration %s is not a JSON object", path)
			}
		case err != nil && !os.IsNotExist(err):
			return fmt.Errorf("failed to read host configuration %s: %w", path, err)
		}

		existing, _ := doc["mcpServers"].(map[string]any)
		if existing == nil {
			existing = map[string]any{}
		}
		for name, entry := range servers {
			existing[name] = entry
		}
		doc["mcpServers"] = existing

		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode host configuration: %w", err)
		}
		return config.WriteFileAtomic(path, out, 0644)
	})
}

// writeJSON writes v as indented JSON to path.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return config.WithFileLock(path, func() error {
		return config.WriteFileAtomic(path, data, 0644)
	})
}

// persistHostConfig honours SavePath and Merge for a host-launch artifact.
func persistHostConfig(cfg HostConfig, opts stack.GenerateOptions) error {
	if opts.SavePath != "" {
		if err := writeJSON(opts.SavePath, cfg); err != nil {
			return err
		}
		logging.Info(generatorSubsystem, "Saved host configuration to %s", opts.SavePath)
	}
	if !opts.Merge {
		return nil
	}

	target := opts.HostConfigPath
	if target == "" {
		detected, err := DetectHostConfigPath()
		if err != nil {
			return err
		}
		target = detected
	}
	if err := MergeHostConfig(target, cfg.MCPServers); err != nil {
		return err
	}
	logging.Info(generatorSubsystem, "Merged %d server entries into %s", len(cfg.MCPServers), target)
	return nil
}

func serverName(opts stack.GenerateOptions) string {
	if opts.ServerName != "" {
		return opts.ServerName
	}
	return config.DefaultServerName
}
