package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"mcpstack/internal/cli"
	"mcpstack/internal/generator"
	"mcpstack/internal/stack"
	"mcpstack/pkg/logging"

	"github.com/spf13/cobra"
)

type runOptions struct {
	compose   composeFlags
	transport string
	save      string
}

func newRunCmd() *cobra.Command {
	var o runOptions

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Build a pipeline and serve it in the foreground",
		Long: `Run composes presets and tools like build does, then serves the pipeline
until it is interrupted. Tools are torn down when serving stops.

Examples:
  mcpstack run --preset example_preset
  mcpstack run --preset notes --transport streamable-http`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, &o)
		},
	}

	o.compose.register(runCmd)
	runCmd.Flags().StringVarP(&o.transport, "transport", "t", "", "Transport to serve over (stdio, sse, streamable-http); defaults to the configured transport")
	runCmd.Flags().StringVar(&o.save, "save", "", "Also save the pipeline document to this path")
	return runCmd
}

func runRun(cmd *cobra.Command, o *runOptions) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	rc := a.RuntimeConfig()
	if o.transport != "" {
		rc.Transport = o.transport
	}
	p, err := o.compose.compose(cmd, a, rc)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(contextOf(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The universal artifact is not persisted without a save path.
	if _, err := p.Build(ctx, generator.FormatUniversal, stack.GenerateOptions{}); err != nil {
		return err
	}
	if o.save != "" {
		if err := p.Save(o.save); err != nil {
			logging.WarnErr(cmdSubsystem, err, "Serving without saving the pipeline")
			fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning(fmt.Sprintf("Could not save pipeline to %s: %v", o.save, err)))
		} else {
			logging.Info(cmdSubsystem, "Saved pipeline to %s", o.save)
		}
	}

	return p.Run(ctx)
}
