package containerizer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"mcpstack/pkg/logging"
)

const dockerSubsystem = "Docker"

// DockerRuntime implements ImageRuntime using the Docker CLI
type DockerRuntime struct {
	// Output receives build and push progress. Defaults to os.Stderr.
	Output io.Writer
}

var _ ImageRuntime = (*DockerRuntime)(nil)

// execCommandContext is a variable to allow mocking in tests
var execCommandContext = exec.CommandContext

// execLookPath is a variable to allow mocking in tests
var execLookPath = exec.LookPath

// NewDockerRuntime creates a new Docker runtime instance
func NewDockerRuntime() (*DockerRuntime, error) {
	if _, err := execLookPath("docker"); err != nil {
		return nil, fmt.Errorf("docker command not found in PATH: %w", err)
	}

	cmd := execCommandContext(context.Background(), "docker", "info")
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("docker daemon not accessible: %w", err)
	}

	return &DockerRuntime{Output: os.Stderr}, nil
}

func (d *DockerRuntime) output() io.Writer {
	if d.Output == nil {
		return os.Stderr
	}
	return d.Output
}

// BuildImage builds an image with docker build
func (d *DockerRuntime) BuildImage(ctx context.Context, opts BuildOptions) error {
	if err := ValidateImageName(opts.Tag); err != nil {
		return err
	}
	contextDir := opts.ContextDir
	if contextDir == "" {
		contextDir = "."
	}
	dockerfile := opts.Dockerfile
	if dockerfile == "" {
		dockerfile = filepath.Join(contextDir, "Dockerfile")
	}

	args := []string{"build", "-t", opts.Tag, "-f", dockerfile}

	keys := make([]string, 0, len(opts.BuildArgs))
	for k := range opts.BuildArgs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--build-arg", fmt.Sprintf("%s=%s", k, opts.BuildArgs[k]))
	}
	if opts.NoCache {
		args = append(args, "--no-cache")
	}
	if opts.Quiet {
		args = append(args, "--quiet")
	}
	args = append(args, contextDir)

	logging.Info(dockerSubsystem, "Building image: docker %s", strings.Join(args, " "))

	cmd := execCommandContext(ctx, "docker", args...)
	cmd.Stdout = d.output()
	cmd.Stderr = d.output()
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to build image %s: %w", opts.Tag, err)
	}
	return nil
}

// PushImage pushes an image, retagging it under registry first when one is given
func (d *DockerRuntime) PushImage(ctx context.Context, image, registry string) (string, error) {
	if err := ValidateImageName(image); err != nil {
		return "", err
	}

	target := image
	if registry != "" {
		target = strings.TrimSuffix(registry, "/") + "/" + image
		if err := d.TagImage(ctx, image, target); err != nil {
			return "", err
		}
	}

	logging.Info(dockerSubsystem, "Pushing image %s", target)
	cmd := execCommandContext(ctx, "docker", "push", target)
	cmd.Stdout = d.output()
	cmd.Stderr = d.output()
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to push image %s: %w", target, err)
	}
	return target, nil
}

// TagImage tags source as target
func (d *DockerRuntime) TagImage(ctx context.Context, source, target string) error {
	for _, ref := range []string{source, target} {
		if err := ValidateImageName(ref); err != nil {
			return err
		}
	}

	logging.Debug(dockerSubsystem, "Tagging image %s as %s", source, target)
	cmd := execCommandContext(ctx, "docker", "tag", source, target)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to tag image %s as %s: %w\nOutput: %s", source, target, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// PullImage pulls a container image if not already present
func (d *DockerRuntime) PullImage(ctx context.Context, image string) error {
	logging.Info(dockerSubsystem, "Checking if image %s exists locally", image)

	checkCmd := execCommandContext(ctx, "docker", "image", "inspect", image)
	if err := checkCmd.Run(); err == nil {
		logging.Debug(dockerSubsystem, "Image %s already exists", image)
		return nil
	}

	logging.Info(dockerSubsystem, "Pulling image %s", image)
	pullCmd := execCommandContext(ctx, "docker", "pull", image)
	pullCmd.Stdout = d.output()
	pullCmd.Stderr = d.output()

	if err := pullCmd.Run(); err != nil {
		return fmt.Errorf("failed to pull image %s: %w", image, err)
	}
	return nil
}

// ListImages lists local images using docker's JSON line format
func (d *DockerRuntime) ListImages(ctx context.Context, filter string) ([]Image, error) {
	args := []string{"images", "--format", "json"}
	if filter != "" {
		args = append(args, "--filter", "reference="+filter)
	}

	cmd := execCommandContext(ctx, "docker", args...)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	return parseImageLines(bytes.NewReader(output))
}

// parseImageLines decodes one JSON object per line, skipping blank lines
func parseImageLines(r io.Reader) ([]Image, error) {
	var images []Image
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var img Image
		if err := json.Unmarshal([]byte(line), &img); err != nil {
			return nil, fmt.Errorf("unexpected docker images output %q: %w", line, err)
		}
		images = append(images, img)
	}
	return images, scanner.Err()
}
