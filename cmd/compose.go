package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"mcpstack/internal/api"
	"mcpstack/internal/app"
	"mcpstack/internal/cli"
	"mcpstack/internal/registry"
	"mcpstack/internal/serving"
	"mcpstack/internal/stack"
	"mcpstack/pkg/logging"

	"github.com/spf13/cobra"
)

const cmdSubsystem = "CLI"

// newLineReader is replaced in tests.
var newLineReader = func(cmd *cobra.Command) (cli.LineReader, error) {
	return cli.NewReadlineReader(os.Stdin, cmd.ErrOrStderr())
}

// composeFlags select the tools of a pipeline composed on the command line.
type composeFlags struct {
	presets     []string
	presetOpts  []string
	tools       []string
	toolParams  []string
	env         []string
	interactive bool
}

func (f *composeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.presets, "preset", nil, "Preset to add (repeatable)")
	cmd.Flags().StringArrayVar(&f.presetOpts, "preset-opt", nil, "Preset option as key=value, passed to every preset (repeatable)")
	cmd.Flags().StringArrayVar(&f.tools, "tool", nil, "Tool type to add (repeatable)")
	cmd.Flags().StringArrayVar(&f.toolParams, "tool-param", nil, "Tool parameter as type.key=value (repeatable)")
	cmd.Flags().StringArrayVar(&f.env, "env", nil, "Environment override as KEY=VALUE (repeatable)")
	cmd.Flags().BoolVarP(&f.interactive, "interactive", "i", false, "Prompt for required environment variables that are not set")
}

// compose creates an Unbuilt pipeline holding the selected presets' tools
// followed by the selected tools. Its runtime is created from rc on build.
func (f *composeFlags) compose(cmd *cobra.Command, a *app.Application, rc serving.Config) (*stack.Pipeline, error) {
	if len(f.presets) == 0 && len(f.tools) == 0 {
		return nil, api.Errorf(api.ErrValidation, "no tools selected, use --preset or --tool")
	}

	env, err := parseKeyValues(f.env, "--env")
	if err != nil {
		return nil, err
	}
	cfg, err := a.StackConfig(env)
	if err != nil {
		return nil, err
	}

	presetOpts, err := parseKeyValues(f.presetOpts, "--preset-opt")
	if err != nil {
		return nil, err
	}
	toolParams, err := parseToolParams(f.toolParams)
	if err != nil {
		return nil, err
	}

	p := stack.NewPipeline(cfg, a.Registries(), stack.UseRuntimeFactory(serving.Factory(rc)))
	for _, name := range f.presets {
		if p, err = p.WithPreset(name, anyMap(presetOpts)); err != nil {
			return nil, withHint(err, name)
		}
	}
	for _, typ := range f.tools {
		t, err := newTool(a.Registries(), typ, toolParams[typ])
		if err != nil {
			return nil, err
		}
		p = p.WithTool(t)
	}

	if f.interactive {
		if err := promptMissing(cmd, p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// promptMissing asks for the required variables p's configuration cannot resolve.
func promptMissing(cmd *cobra.Command, p *stack.Pipeline) error {
	if len(cli.MissingEnv(p.Config(), p.Tools())) == 0 {
		return nil
	}
	reader, err := newLineReader(cmd)
	if err != nil {
		return fmt.Errorf("failed to open prompt: %w", err)
	}
	defer reader.Close()

	answers, err := cli.NewEnvPrompter(reader).PromptMissing(p.Config(), p.Tools())
	if err != nil {
		return err
	}
	logging.Debug(cmdSubsystem, "Collected %d environment variables interactively", len(answers))
	return nil
}

// newTool creates a tool of type typ from params.
func newTool(reg *stack.Registries, typ string, params map[string]any) (api.Tool, error) {
	entry, err := reg.Tools.Resolve(typ)
	if err != nil {
		if nf, ok := registry.AsNotFound(err); ok {
			err = api.Errorf(api.ErrValidation, "unknown tool type: %s", typ).WithKnown(nf.Known)
		}
		return nil, withHint(err, typ)
	}
	t, err := entry.New(params)
	if err != nil {
		return nil, api.Wrap(api.ErrValidation, err, "invalid parameters for %s", typ)
	}
	return t, nil
}

// noneRuntimeConfig is the runtime configuration of commands that build a
// pipeline without serving it.
func noneRuntimeConfig(a *app.Application) serving.Config {
	rc := a.RuntimeConfig()
	rc.Transport = serving.TransportNone
	return rc
}

func newNoneRuntime(a *app.Application) (api.Runtime, error) {
	rt, err := serving.Factory(noneRuntimeConfig(a))()
	if err != nil {
		return nil, api.Wrap(api.ErrInitialization, err, "create serving runtime")
	}
	return rt, nil
}

// release tears down a Built pipeline whose runtime does not serve.
func release(ctx context.Context, p *stack.Pipeline) {
	if p == nil || p.State() != stack.StateBuilt {
		return
	}
	if err := p.Run(ctx); err != nil {
		logging.WarnErr(cmdSubsystem, err, "Failed to release pipeline")
	}
}

// parseKeyValues parses KEY=VALUE pairs. Keys must be non-empty.
func parseKeyValues(pairs []string, flag string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, api.Errorf(api.ErrValidation, "%s expects KEY=VALUE, got %q", flag, pair)
		}
		out[key] = value
	}
	return out, nil
}

// parseToolParams groups type.key=value pairs by tool type.
func parseToolParams(pairs []string) (map[string]map[string]any, error) {
	kv, err := parseKeyValues(pairs, "--tool-param")
	if err != nil {
		return nil, err
	}
	out := map[string]map[string]any{}
	for key, value := range kv {
		typ, param, ok := strings.Cut(key, ".")
		if !ok || typ == "" || param == "" {
			return nil, api.Errorf(api.ErrValidation, "--tool-param expects type.key=value, got %q", key+"="+value)
		}
		if out[typ] == nil {
			out[typ] = map[string]any{}
		}
		out[typ][param] = value
	}
	return out, nil
}

func anyMap(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func contextOf(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}
