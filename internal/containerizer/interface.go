package containerizer

import (
	"context"
)

// ImageRuntime defines the image operations mcpstack performs through a container CLI.
type ImageRuntime interface {
	// BuildImage builds an image from a context directory.
	BuildImage(ctx context.Context, opts BuildOptions) error

	// PushImage pushes image, optionally retagged under registry first.
	// It returns the reference that was pushed.
	PushImage(ctx context.Context, image, registry string) (string, error)

	// TagImage adds target as a new reference to source.
	TagImage(ctx context.Context, source, target string) error

	// PullImage pulls an image if not already present.
	PullImage(ctx context.Context, image string) error

	// ListImages lists local images, optionally filtered by reference.
	ListImages(ctx context.Context, filter string) ([]Image, error)
}

// BuildOptions configure an image build.
type BuildOptions struct {
	Tag        string            // Image reference to tag the result with
	ContextDir string            // Build context directory
	Dockerfile string            // Dockerfile path, defaults to ContextDir/Dockerfile
	BuildArgs  map[string]string // --build-arg values
	NoCache    bool
	Quiet      bool
}

// Image is one entry of ListImages.
type Image struct {
	Repository string `json:"Repository"`
	Tag        string `json:"Tag"`
	ID         string `json:"ID"`
	CreatedAt  string `json:"CreatedAt"`
	Size       string `json:"Size"`
}

// Reference returns repository:tag.
func (i Image) Reference() string {
	if i.Tag == "" || i.Tag == "<none>" {
		return i.Repository
	}
	return i.Repository + ":" + i.Tag
}

// RunConfig describes how a host should launch a pipeline container.
type RunConfig struct {
	Image     string   // Container image
	EnvKeys   []string // Variables forwarded from the host environment with -e
	Volumes   []string // Volume mounts (host:container)
	Ports     []string // Port mappings (host:container)
	Network   string   // Network to attach to
	ExtraArgs []string // Appended verbatim before the image
}
