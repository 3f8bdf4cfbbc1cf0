package cmd

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"mcpstack/internal/app"
	"mcpstack/internal/cli"
	"mcpstack/internal/formatting"
	"mcpstack/internal/stack"
	"mcpstack/internal/watcher"
	"mcpstack/pkg/logging"

	"github.com/spf13/cobra"
)

// generateFlags are the artifact options of build and pipeline.
type generateFlags struct {
	format       string
	pipelinePath string
	outputFile   string
	merge        bool
	hostConfig   string
	serverName   string
	command      string
	args         []string
	cwd          string
	image        string
	volumes      []string
	ports        []string
	network      string
	dockerArgs   []string
}

func (f *generateFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.format, "format", "f", "", "Launch artifact format (fastmcp, docker, universal); defaults to the configured format")
	fs.StringVarP(&f.pipelinePath, "pipeline", "p", "", "Where the pipeline document is saved; defaults to the configured path")
	fs.StringVar(&f.outputFile, "output-file", "", "Write the artifact to this file instead of stdout")
	fs.BoolVar(&f.merge, "merge", false, "Merge the server entry into the host configuration")
	fs.StringVar(&f.hostConfig, "host-config", "", "Host configuration file to merge into; detected when empty")
	fs.StringVar(&f.serverName, "server-name", "", "Name of the server entry")
	fs.StringVar(&f.command, "command", "", "Command the host runs (fastmcp)")
	fs.StringArrayVar(&f.args, "arg", nil, "Argument the host passes to the command (fastmcp, repeatable)")
	fs.StringVar(&f.cwd, "cwd", "", "Working directory of the launched command (fastmcp)")
	fs.StringVar(&f.image, "image", "", "Container image (docker)")
	fs.StringArrayVar(&f.volumes, "volume", nil, "Volume mount host:container (docker, repeatable)")
	fs.StringArrayVar(&f.ports, "port", nil, "Port mapping host:container (docker, repeatable)")
	fs.StringVar(&f.network, "network", "", "Network to attach to (docker)")
	fs.StringArrayVar(&f.dockerArgs, "docker-arg", nil, "Extra docker run argument (docker, repeatable)")
}

// resolve fills the format and pipeline path from the settings when unset.
func (f *generateFlags) resolve(a *app.Application) (string, stack.GenerateOptions) {
	format := f.format
	if format == "" {
		format = a.Settings().DefaultFormat
	}

	opts := a.GenerateOptions()
	opts.PipelinePath = a.ResolvePipelinePath(f.pipelinePath)
	opts.SavePath = f.outputFile
	opts.Merge = f.merge
	opts.HostConfigPath = f.hostConfig
	if f.serverName != "" {
		opts.ServerName = f.serverName
	}
	opts.Command = f.command
	opts.Args = f.args
	opts.Cwd = f.cwd
	if f.image != "" {
		opts.Image = f.image
	}
	opts.Volumes = append(opts.Volumes, f.volumes...)
	opts.Ports = append(opts.Ports, f.ports...)
	if f.network != "" {
		opts.Network = f.network
	}
	opts.ExtraArgs = append(opts.ExtraArgs, f.dockerArgs...)
	return format, opts
}

type buildOptions struct {
	compose  composeFlags
	generate generateFlags
	quiet    bool
	watch    bool
}

func newBuildCmd() *cobra.Command {
	var o buildOptions

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Build a pipeline and emit its launch configuration",
		Long: `Build composes presets and tools into a pipeline, checks that every
required environment variable resolves, initializes the tools once, saves the
pipeline document and emits the configuration a host uses to launch it.

The artifact is printed to stdout unless --output-file or --merge is given.

Examples:
  mcpstack build --preset example_preset
  mcpstack build --tool scratchpad --tool-param scratchpad.namespace=work --merge
  mcpstack build --preset notes --format docker --image ghcr.io/me/notes:1.0
  mcpstack build --tool hello_world --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, &o)
		},
	}

	o.compose.register(buildCmd)
	o.generate.register(buildCmd)
	buildCmd.Flags().BoolVarP(&o.quiet, "quiet", "q", false, "Suppress the progress spinner")
	buildCmd.Flags().BoolVarP(&o.watch, "watch", "w", false, "Regenerate the artifact whenever the saved pipeline changes")
	return buildCmd
}

func runBuild(cmd *cobra.Command, o *buildOptions) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	ctx := contextOf(cmd)

	p, err := o.compose.compose(cmd, a, noneRuntimeConfig(a))
	if err != nil {
		return err
	}
	format, opts := o.generate.resolve(a)

	var artifact any
	err = cli.Progress(cmd.ErrOrStderr(), o.quiet, "Building pipeline", func() error {
		var buildErr error
		artifact, buildErr = p.Build(ctx, format, opts)
		return buildErr
	})
	defer release(ctx, p)
	if err != nil {
		return withHint(err, format)
	}

	if err := p.Save(opts.PipelinePath); err != nil {
		return err
	}
	logging.Info(cmdSubsystem, "Saved pipeline to %s", opts.PipelinePath)

	if err := emitArtifact(cmd.OutOrStdout(), artifact, opts); err != nil {
		return err
	}
	if !o.watch {
		return nil
	}

	// The watched pipeline is restored from disk, so the built one is released first.
	release(ctx, p)
	return watchPipeline(ctx, cmd.OutOrStdout(), a, format, opts)
}

// emitArtifact prints artifact unless it was persisted elsewhere.
func emitArtifact(w io.Writer, artifact any, opts stack.GenerateOptions) error {
	if opts.SavePath != "" || opts.Merge {
		target := opts.SavePath
		if target == "" {
			target = "host configuration"
			if opts.HostConfigPath != "" {
				target = opts.HostConfigPath
			}
		}
		_, err := fmt.Fprintln(w, cli.FormatSuccess("Wrote launch configuration to "+target))
		return err
	}
	_, err := fmt.Fprintln(w, formatting.PrettyJSON(artifact))
	return err
}

// watchPipeline regenerates the artifact from the saved pipeline document
// every time it changes, until ctx is cancelled or SIGINT/SIGTERM arrives.
func watchPipeline(ctx context.Context, out io.Writer, a *app.Application, format string, opts stack.GenerateOptions) error {
	w, err := watcher.NewFileWatcher(opts.PipelinePath, watcher.DefaultDebounce)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info(cmdSubsystem, "Watching %s for changes", w.Path())
	return w.Run(ctx, func(ctx context.Context) error {
		return regenerate(ctx, out, a, format, opts)
	})
}

// regenerate loads the pipeline at opts.PipelinePath and emits its artifact.
func regenerate(ctx context.Context, out io.Writer, a *app.Application, format string, opts stack.GenerateOptions) error {
	rt, err := newNoneRuntime(a)
	if err != nil {
		return err
	}
	p, err := stack.Load(ctx, opts.PipelinePath, a.Registries(), stack.UseRuntime(rt))
	if err != nil {
		return err
	}
	defer release(ctx, p)

	artifact, err := p.Generate(format, opts)
	if err != nil {
		return err
	}
	logging.Info(cmdSubsystem, "Regenerated %s configuration from %s", format, opts.PipelinePath)
	return emitArtifact(out, artifact, opts)
}
