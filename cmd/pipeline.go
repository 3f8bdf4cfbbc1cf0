package cmd

import (
	"errors"
	"fmt"
	"os"

	"mcpstack/internal/api"
	"mcpstack/internal/cli"
	"mcpstack/internal/generator"
	"mcpstack/internal/serving"
	"mcpstack/internal/stack"
	"mcpstack/pkg/logging"

	"github.com/spf13/cobra"
)

func newPipelineCmd() *cobra.Command {
	pipelineCmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Edit and inspect saved pipeline documents",
	}
	pipelineCmd.AddCommand(newPipelineAddCmd())
	pipelineCmd.AddCommand(newPipelineShowCmd())
	return pipelineCmd
}

type pipelineAddOptions struct {
	file        string
	params      []string
	env         []string
	interactive bool
}

func newPipelineAddCmd() *cobra.Command {
	var o pipelineAddOptions

	addCmd := &cobra.Command{
		Use:   "add <tool-type>",
		Short: "Add a tool to a new or existing pipeline document",
		Long: `Add appends a tool to the pipeline saved at --file, creating the document
when it does not exist yet. The result is built once to validate it before it
is saved.

Examples:
  mcpstack pipeline add hello_world --param greeting=Hi
  mcpstack pipeline add scratchpad --file notes.yaml --param namespace=work`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipelineAdd(cmd, args[0], &o)
		},
	}

	addCmd.Flags().StringVar(&o.file, "file", "", "Pipeline document (.json, .yaml or .yml); defaults to the configured path")
	addCmd.Flags().StringArrayVar(&o.params, "param", nil, "Tool parameter as key=value (repeatable)")
	addCmd.Flags().StringArrayVar(&o.env, "env", nil, "Environment override as KEY=VALUE (repeatable)")
	addCmd.Flags().BoolVarP(&o.interactive, "interactive", "i", false, "Prompt for required environment variables that are not set")
	return addCmd
}

func runPipelineAdd(cmd *cobra.Command, typ string, o *pipelineAddOptions) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	ctx := contextOf(cmd)
	path := a.ResolvePipelinePath(o.file)

	params, err := parseKeyValues(o.params, "--param")
	if err != nil {
		return err
	}
	env, err := parseKeyValues(o.env, "--env")
	if err != nil {
		return err
	}
	t, err := newTool(a.Registries(), typ, anyMap(params))
	if err != nil {
		return err
	}

	factory := stack.UseRuntimeFactory(serving.Factory(noneRuntimeConfig(a)))
	var base *stack.Pipeline
	if _, statErr := os.Stat(path); statErr == nil {
		if base, err = stack.Load(ctx, path, a.Registries(), factory); err != nil {
			return err
		}
		if err := base.Config().MergeEnv(env, ""); err != nil {
			return err
		}
	} else if errors.Is(statErr, os.ErrNotExist) {
		cfg, err := a.StackConfig(env)
		if err != nil {
			return err
		}
		base = stack.NewPipeline(cfg, a.Registries(), factory)
	} else {
		return fmt.Errorf("failed to access pipeline %s: %w", path, statErr)
	}

	p := base.WithTool(t)
	if o.interactive {
		if err := promptMissing(cmd, p); err != nil {
			return err
		}
	}

	if _, err := p.Build(ctx, generator.FormatUniversal, stack.GenerateOptions{}); err != nil {
		return err
	}
	defer release(ctx, p)

	if err := p.Save(path); err != nil {
		return err
	}
	logging.Info(cmdSubsystem, "Added %s to %s", api.ToolType(t), path)
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Pipeline %s now has %d tools", path, len(p.Tools()))))
	return nil
}

func newPipelineShowCmd() *cobra.Command {
	var (
		output cli.OutputFlags
		file   string
	)

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print a saved pipeline document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			doc, err := stack.ReadDocument(a.ResolvePipelinePath(file))
			if err != nil {
				return err
			}
			formatter, err := output.Formatter(cmd)
			if err != nil {
				return err
			}
			return formatter.FormatData(doc)
		},
	}
	showCmd.Flags().StringVar(&file, "file", "", "Pipeline document; defaults to the configured path")
	cli.RegisterOutputFlags(showCmd, &output)
	return showCmd
}
