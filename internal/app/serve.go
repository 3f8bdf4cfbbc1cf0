package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"mcpstack/internal/api"
	"mcpstack/internal/config"
	"mcpstack/internal/serving"
	"mcpstack/internal/stack"
	"mcpstack/pkg/logging"
)

const serveSubsystem = "Serve"

// ResolvePipelinePath returns explicit, else MCPSTACK_CONFIG_PATH, else the
// settings' pipeline path.
func (a *Application) ResolvePipelinePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv(config.EnvConfigPath); p != "" {
		return p
	}
	return a.settings.PipelinePath
}

// Serve loads the pipeline at path, applies its configuration to the process
// and runs it until ctx is cancelled or SIGINT/SIGTERM arrives.
//
// The configuration is applied before tools are restored so that their
// post-load initialization sees the pipeline's environment.
func (a *Application) Serve(ctx context.Context, path string, rt api.Runtime) error {
	doc, err := stack.ReadDocument(path)
	if err != nil {
		return err
	}
	cfg, err := config.FromDocument(doc.Config)
	if err != nil {
		return err
	}
	if err := cfg.Apply(); err != nil {
		return err
	}

	if rt == nil {
		factory := serving.Factory(a.RuntimeConfig())
		if rt, err = factory(); err != nil {
			return api.Wrap(api.ErrInitialization, err, "create serving runtime")
		}
	}

	p, err := stack.Load(ctx, path, a.registries, stack.UseRuntime(rt))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info(serveSubsystem, "Serving %s", path)
	if err := p.Run(ctx); err != nil {
		return fmt.Errorf("pipeline %s stopped: %w", path, err)
	}
	return nil
}
