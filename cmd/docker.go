package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"mcpstack/internal/api"
	"mcpstack/internal/cli"
	"mcpstack/internal/config"
	"mcpstack/internal/containerizer"
	"mcpstack/internal/stack"

	"github.com/spf13/cobra"
)

// newImageRuntime is replaced in tests.
var newImageRuntime = containerizer.NewImageRuntime

func newDockerCmd() *cobra.Command {
	dockerCmd := &cobra.Command{
		Use:   "docker",
		Short: "Package pipelines as container images",
		Long: `Generate a Dockerfile for a saved pipeline and drive the docker CLI to
build, tag, push and list the resulting images.`,
	}
	dockerCmd.AddCommand(newDockerfileCmd())
	dockerCmd.AddCommand(newDockerBuildCmd())
	dockerCmd.AddCommand(newDockerPushCmd())
	dockerCmd.AddCommand(newDockerTagCmd())
	dockerCmd.AddCommand(newDockerImagesCmd())
	return dockerCmd
}

type dockerfileOptions struct {
	pipeline     string
	contextDir   string
	output       string
	builderImage string
	baseImage    string
	transport    string
	bakeEnv      bool
}

func newDockerfileCmd() *cobra.Command {
	var o dockerfileOptions

	cmd := &cobra.Command{
		Use:   "dockerfile",
		Short: "Render a Dockerfile serving a saved pipeline",
		Long: `Render a multi-stage Dockerfile that builds mcpstack from the build context
and serves the saved pipeline document. The document's environment overrides
are baked in as ENV instructions unless --bake-env=false is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDockerfile(cmd, &o)
		},
	}

	cmd.Flags().StringVarP(&o.pipeline, "pipeline", "p", "", "Pipeline document to bake in; defaults to the configured path")
	cmd.Flags().StringVar(&o.contextDir, "context", ".", "Build context directory the pipeline document must live in")
	cmd.Flags().StringVar(&o.output, "output-file", "", "Write the Dockerfile here instead of stdout")
	cmd.Flags().StringVar(&o.builderImage, "builder-image", "", "Image of the build stage")
	cmd.Flags().StringVar(&o.baseImage, "base-image", "", "Image of the runtime stage")
	cmd.Flags().StringVarP(&o.transport, "transport", "t", "", "Transport the container serves over; defaults to the configured transport")
	cmd.Flags().BoolVar(&o.bakeEnv, "bake-env", true, "Bake the pipeline's environment overrides into the image")
	return cmd
}

func runDockerfile(cmd *cobra.Command, o *dockerfileOptions) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	path := a.ResolvePipelinePath(o.pipeline)
	doc, err := stack.ReadDocument(path)
	if err != nil {
		return err
	}
	rel, err := contextRelative(o.contextDir, path)
	if err != nil {
		return err
	}

	opts := containerizer.DockerfileOptions{
		BuilderImage: o.builderImage,
		BaseImage:    o.baseImage,
		PipelineFile: filepath.ToSlash(rel),
	}
	if o.bakeEnv {
		opts.Env = doc.Config.EnvVars
	}

	transport := o.transport
	if transport == "" {
		transport = a.Settings().Runtime.Transport
	}
	if transport != "" && transport != config.TransportStdio {
		opts.ExposePort = a.Settings().Runtime.Port
		opts.Command = []string{"serve", "--transport", transport}
	}

	dockerfile, err := containerizer.RenderDockerfile(opts)
	if err != nil {
		return err
	}
	if o.output == "" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), dockerfile)
		return err
	}
	if err := config.WriteFileAtomic(o.output, []byte(dockerfile), 0644); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Wrote "+o.output))
	return nil
}

// contextRelative returns path relative to dir, failing when it lies outside dir.
func contextRelative(dir, path string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", api.Errorf(api.ErrValidation, "pipeline %s is outside the build context %s", path, dir)
	}
	return rel, nil
}

type dockerBuildOptions struct {
	tag        string
	contextDir string
	dockerfile string
	buildArgs  []string
	noCache    bool
	quiet      bool
}

func newDockerBuildCmd() *cobra.Command {
	var o dockerBuildOptions

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build an image with docker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			buildArgs, err := parseKeyValues(o.buildArgs, "--build-arg")
			if err != nil {
				return err
			}
			tag := o.tag
			if tag == "" {
				tag = a.Settings().Docker.Image
			}

			rt, err := newImageRuntime("docker")
			if err != nil {
				return err
			}
			err = cli.Progress(cmd.ErrOrStderr(), o.quiet, "Building image "+tag, func() error {
				return rt.BuildImage(contextOf(cmd), containerizer.BuildOptions{
					Tag:        tag,
					ContextDir: o.contextDir,
					Dockerfile: o.dockerfile,
					BuildArgs:  buildArgs,
					NoCache:    o.noCache,
					Quiet:      o.quiet,
				})
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Built "+tag))
			return nil
		},
	}

	cmd.Flags().StringVar(&o.tag, "tag", "", "Image reference; defaults to the configured image")
	cmd.Flags().StringVar(&o.contextDir, "context", ".", "Build context directory")
	cmd.Flags().StringVar(&o.dockerfile, "file", "", "Dockerfile path; defaults to <context>/Dockerfile")
	cmd.Flags().StringArrayVar(&o.buildArgs, "build-arg", nil, "Build argument as KEY=VALUE (repeatable)")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "Do not use the build cache")
	cmd.Flags().BoolVarP(&o.quiet, "quiet", "q", false, "Suppress build output and the spinner")
	return cmd
}

func newDockerPushCmd() *cobra.Command {
	var registry string

	cmd := &cobra.Command{
		Use:   "push <image>",
		Short: "Push an image, optionally under another registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newImageRuntime("docker")
			if err != nil {
				return err
			}
			ref, err := rt.PushImage(contextOf(cmd), args[0], registry)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Pushed "+ref))
			return nil
		},
	}
	cmd.Flags().StringVar(&registry, "registry", "", "Registry to retag the image under before pushing")
	return cmd
}

func newDockerTagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tag <source> <target>",
		Short: "Tag an image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := containerizer.ValidateImageName(args[1]); err != nil {
				return err
			}
			rt, err := newImageRuntime("docker")
			if err != nil {
				return err
			}
			if err := rt.TagImage(contextOf(cmd), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Tagged %s as %s", args[0], args[1])))
			return nil
		},
	}
}

func newDockerImagesCmd() *cobra.Command {
	var (
		output cli.OutputFlags
		filter string
	)

	cmd := &cobra.Command{
		Use:   "images",
		Short: "List local images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newImageRuntime("docker")
			if err != nil {
				return err
			}
			images, err := rt.ListImages(contextOf(cmd), filter)
			if err != nil {
				return err
			}
			formatter, err := output.Formatter(cmd)
			if err != nil {
				return err
			}
			return formatter.FormatData(images)
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "Only list images whose reference matches this pattern")
	cli.RegisterOutputFlags(cmd, &output)
	return cmd
}
