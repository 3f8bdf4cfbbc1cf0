package stack

import (
	"context"
	"fmt"

	"mcpstack/internal/api"
	"mcpstack/internal/config"
	"mcpstack/internal/registry"
	"mcpstack/pkg/logging"

	"github.com/google/uuid"
)

const pipelineSubsystem = "Pipeline"

// Pipeline is an immutable composition of tools and a shared configuration.
// Values derived through With* never alias the receiver's tool slice.
// Build, Run and Save on the same value must be serialized by the caller.
type Pipeline struct {
	config     *config.StackConfig
	tools      []api.Tool
	runtime    api.Runtime
	newRuntime api.RuntimeFactory
	reg        *Registries
	state      State

	// parent is the Built pipeline the first inherited tools came from.
	// While it stays Built those tools are already initialized.
	parent    *Pipeline
	inherited int
}

// Option configures a new pipeline.
type Option func(*Pipeline)

// UseRuntime attaches an existing serving runtime.
func UseRuntime(rt api.Runtime) Option {
	return func(p *Pipeline) {
		p.runtime = rt
	}
}

// UseRuntimeFactory sets how Build creates a runtime when none is attached.
func UseRuntimeFactory(f api.RuntimeFactory) Option {
	return func(p *Pipeline) {
		p.newRuntime = f
	}
}

// NewPipeline returns an empty Unbuilt pipeline. A nil cfg selects
// config.DefaultStackConfig. reg may be nil for pipelines that are only
// composed, such as the ones returned by preset factories.
func NewPipeline(cfg *config.StackConfig, reg *Registries, opts ...Option) *Pipeline {
	if cfg == nil {
		cfg = config.DefaultStackConfig()
	}
	p := &Pipeline{config: cfg, reg: reg}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Config returns the shared configuration.
func (p *Pipeline) Config() *config.StackConfig {
	return p.config
}

// Tools returns a copy of the tool sequence.
func (p *Pipeline) Tools() []api.Tool {
	return append([]api.Tool(nil), p.tools...)
}

// State returns the lifecycle stage.
func (p *Pipeline) State() State {
	return p.state
}

// Runtime returns the attached serving runtime, or nil.
func (p *Pipeline) Runtime() api.Runtime {
	return p.runtime
}

// Registries returns the registries the pipeline resolves names against.
func (p *Pipeline) Registries() *Registries {
	return p.reg
}

// derive starts a fresh Unbuilt composition. A runtime that a build or load
// has populated with actions is never carried over; the result gets its own
// from the runtime factory.
func (p *Pipeline) derive(cfg *config.StackConfig, extra ...api.Tool) *Pipeline {
	tools := make([]api.Tool, 0, len(p.tools)+len(extra))
	tools = append(tools, p.tools...)
	tools = append(tools, extra...)
	next := &Pipeline{
		config:     cfg,
		tools:      tools,
		newRuntime: p.newRuntime,
		reg:        p.reg,
		state:      StateUnbuilt,
	}
	switch p.state {
	case StateUnbuilt:
		next.runtime = p.runtime
		next.parent, next.inherited = p.parent, p.inherited
	case StateBuilt:
		next.parent, next.inherited = p, len(p.tools)
	}
	return next
}

// liveInherited is the number of leading tools still owned by a Built parent.
func (p *Pipeline) liveInherited() int {
	if p.parent != nil && p.parent.state == StateBuilt {
		return p.inherited
	}
	return 0
}

// WithTool returns a new Unbuilt pipeline with t appended.
func (p *Pipeline) WithTool(t api.Tool) *Pipeline {
	return p.derive(p.config, t)
}

// WithTools returns a new Unbuilt pipeline with ts appended in order.
func (p *Pipeline) WithTools(ts ...api.Tool) *Pipeline {
	return p.derive(p.config, ts...)
}

// WithConfig returns a new Unbuilt pipeline with the same tools and cfg.
func (p *Pipeline) WithConfig(cfg *config.StackConfig) *Pipeline {
	if cfg == nil {
		cfg = config.DefaultStackConfig()
	}
	return p.derive(cfg)
}

// WithPreset resolves name, invokes the preset with the current configuration
// and returns a new Unbuilt pipeline holding the receiver's tools followed by
// the preset's. The result adopts the configuration the preset returns.
func (p *Pipeline) WithPreset(name string, opts map[string]any) (*Pipeline, error) {
	if p.reg == nil {
		return nil, api.Errorf(api.ErrPreset, "preset not found: %s", name)
	}
	entry, err := p.reg.Presets.Resolve(name)
	if err != nil {
		return nil, lookupError(api.ErrPreset, "preset not found", name, err)
	}

	preset, err := entry.Create(p.config, opts)
	if err != nil {
		return nil, api.Wrap(api.ErrPreset, err, "preset %s", name)
	}
	if preset == nil {
		return nil, api.Errorf(api.ErrPreset, "preset %s returned no pipeline", name)
	}

	cfg := preset.config
	if cfg == nil {
		cfg = p.config
	}
	merged := p.derive(cfg, preset.tools...)
	if preset.runtime != nil {
		merged.runtime = preset.runtime
	}
	logging.Debug(pipelineSubsystem, "Applied preset %s (%d tools)", name, len(preset.tools))
	return merged, nil
}

// Build validates, initializes and registers the pipeline, marks it Built and
// returns the artifact of the generator registered for format.
// Any failure before the pipeline is marked Built leaves it Unbuilt.
func (p *Pipeline) Build(ctx context.Context, format string, opts GenerateOptions) (any, error) {
	if p.state != StateUnbuilt {
		return nil, api.Errorf(api.ErrBuild, "build requires an unbuilt pipeline, state is %s", p.state)
	}

	if len(p.tools) == 0 {
		return nil, api.Errorf(api.ErrValidation, "pipeline has no tools")
	}
	if err := p.config.ValidateForTools(p.tools); err != nil {
		return nil, err
	}
	gen, err := p.generator(format)
	if err != nil {
		return nil, err
	}

	created := p.runtime == nil
	if err := p.ensureRuntime(); err != nil {
		return nil, err
	}

	ctx = config.NewContext(ctx, p.config)
	live := p.liveInherited()
	for i := live; i < len(p.tools); i++ {
		t := p.tools[i]
		if err := api.InitializeTool(ctx, t); err != nil {
			p.rollback(ctx, p.tools[live:i])
			p.discardRuntime(created)
			return nil, api.Wrap(api.ErrInitialization, err, "initialize tool %s", api.ToolType(t))
		}
	}
	if err := p.registerActions(); err != nil {
		p.rollback(ctx, p.tools[live:])
		p.discardRuntime(created)
		return nil, err
	}

	p.state = StateBuilt
	logging.Info(pipelineSubsystem, "Built pipeline with %d tools", len(p.tools))

	return gen.Generate(p, opts)
}

// Generate dispatches a Built pipeline to a generator without rebuilding it.
// It is how loaded pipelines produce launch artifacts.
func (p *Pipeline) Generate(format string, opts GenerateOptions) (any, error) {
	if p.state != StateBuilt {
		return nil, api.Errorf(api.ErrBuild, "generate requires a built pipeline, state is %s", p.state)
	}
	gen, err := p.generator(format)
	if err != nil {
		return nil, err
	}
	return gen.Generate(p, opts)
}

// Run serves the pipeline until the runtime returns. Every tool is torn down
// afterwards whatever the outcome, and the result is the runtime's alone.
func (p *Pipeline) Run(ctx context.Context) (err error) {
	if p.state != StateBuilt {
		return api.Errorf(api.ErrBuild, "run requires a built pipeline, state is %s", p.state)
	}
	if p.runtime == nil {
		return api.Errorf(api.ErrInitialization, "no serving runtime attached")
	}

	runID := uuid.NewString()
	logging.Info(pipelineSubsystem, "Serving pipeline (run %s, %d tools)", runID, len(p.tools))

	defer func() {
		p.teardown(context.WithoutCancel(ctx), p.tools)
		p.state = StateTornDown
		logging.Info(pipelineSubsystem, "Pipeline run %s finished", runID)
	}()

	return p.runtime.Serve(ctx)
}

func (p *Pipeline) generator(format string) (Generator, error) {
	if p.reg == nil {
		return nil, api.Errorf(api.ErrValidation, "unknown format: %s", format)
	}
	gen, err := p.reg.Generators.Resolve(format)
	if err != nil {
		return nil, lookupError(api.ErrValidation, "unknown format", format, err)
	}
	return gen, nil
}

func (p *Pipeline) ensureRuntime() error {
	if p.runtime != nil {
		return nil
	}
	if p.newRuntime == nil {
		return api.Errorf(api.ErrInitialization, "no serving runtime and no runtime factory configured")
	}
	rt, err := p.newRuntime()
	if err != nil {
		return api.Wrap(api.ErrInitialization, err, "create serving runtime")
	}
	p.runtime = rt
	return nil
}

// discardRuntime drops a runtime the failed build created so a retry starts
// from an empty one.
func (p *Pipeline) discardRuntime(created bool) {
	if created {
		p.runtime = nil
	}
}

func (p *Pipeline) registerActions() error {
	for _, t := range p.tools {
		for _, action := range t.Actions() {
			if err := p.runtime.RegisterAction(action); err != nil {
				return api.Wrap(api.ErrInitialization, err, "register action %s of %s", action.Name(), api.ToolType(t))
			}
		}
	}
	return nil
}

// rollback tears down tools that were initialized by a build that then failed.
func (p *Pipeline) rollback(ctx context.Context, initialized []api.Tool) {
	if len(initialized) > 0 {
		logging.Warn(pipelineSubsystem, "Build failed, tearing down %d initialized tools", len(initialized))
		p.teardown(ctx, initialized)
	}
}

// teardown never fails. Errors are logged per tool and discarded so that one
// broken tool cannot keep the others from shutting down.
func (p *Pipeline) teardown(ctx context.Context, tools []api.Tool) {
	for _, t := range tools {
		for _, err := range api.TeardownTool(ctx, t) {
			logging.WarnErr(pipelineSubsystem, err, "Teardown of %s failed", api.ToolType(t))
		}
	}
}

func lookupError(kind error, msg, name string, err error) error {
	e := api.Errorf(kind, "%s: %s", msg, name)
	if nf, ok := registry.AsNotFound(err); ok {
		e.WithKnown(nf.Known)
	} else {
		e.Err = err
	}
	return e
}

// String summarises the pipeline for logs.
func (p *Pipeline) String() string {
	return fmt.Sprintf("Pipeline{tools: %d, state: %s}", len(p.tools), p.state)
}
