package containerizer

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var imageNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._/-]*[a-zA-Z0-9]*(:[a-zA-Z0-9._-]+)?$`)

// ValidateImageName checks that image is a usable image reference.
func ValidateImageName(image string) error {
	if strings.TrimSpace(image) == "" {
		return fmt.Errorf("docker image name cannot be empty")
	}
	if strings.ContainsAny(image, " \t\n") {
		return fmt.Errorf("docker image name cannot contain spaces: %q", image)
	}
	if len(image) > 1 && !imageNamePattern.MatchString(image) {
		return fmt.Errorf("invalid docker image name format: %q", image)
	}
	return nil
}

// RunArgs returns the arguments for `docker run` that launch cfg.Image
// attached to stdin and removed on exit.
func RunArgs(cfg RunConfig) []string {
	args := []string{"run", "-i", "--rm"}
	for _, key := range cfg.EnvKeys {
		args = append(args, "-e", key)
	}
	for _, vol := range cfg.Volumes {
		args = append(args, "-v", expandPath(vol))
	}
	for _, port := range cfg.Ports {
		args = append(args, "-p", port)
	}
	if cfg.Network != "" {
		args = append(args, "--network", cfg.Network)
	}
	args = append(args, cfg.ExtraArgs...)
	return append(args, cfg.Image)
}

// expandPath expands a leading ~/ to the home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}
