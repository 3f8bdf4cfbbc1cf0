package containerizer

import (
	"fmt"
	"strings"
)

// RuntimeType defines the type of container runtime
type RuntimeType string

const (
	RuntimeTypeDocker RuntimeType = "docker"
	RuntimeTypePodman RuntimeType = "podman"
)

// NewImageRuntime creates an image runtime of the given type. Empty selects docker.
func NewImageRuntime(runtimeType string) (ImageRuntime, error) {
	switch RuntimeType(strings.ToLower(runtimeType)) {
	case RuntimeTypeDocker, "":
		return NewDockerRuntime()
	case RuntimeTypePodman:
		return nil, fmt.Errorf("podman runtime not yet implemented")
	default:
		return nil, fmt.Errorf("unsupported container runtime: %s", runtimeType)
	}
}
