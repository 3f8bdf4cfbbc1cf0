// Package serving adapts mcp-go into the runtime a pipeline registers its
// actions with and serves through.
package serving

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"mcpstack/internal/api"
	"mcpstack/internal/config"
	"mcpstack/pkg/logging"

	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

const (
	servingSubsystem = "Serving"
	shutdownTimeout  = 5 * time.Second

	// TransportNone registers actions but serves nothing. Serve returns at
	// once, which lets a caller release a built pipeline through Run.
	TransportNone = "none"
)

// Config selects the transport and identity of the served MCP server.
type Config struct {
	Name      string
	Version   string
	Transport string
	Host      string
	Port      int

	// Stdin and Stdout default to the process streams for the stdio transport.
	Stdin  io.Reader
	Stdout io.Writer
}

// Runtime serves registered actions over one MCP transport.
type Runtime struct {
	cfg    Config
	server *server.MCPServer

	mu      sync.Mutex
	actions []string
	serving bool
}

var _ api.Runtime = (*Runtime)(nil)

// New creates a runtime. Empty fields fall back to stdio and the default server name.
func New(cfg Config) *Runtime {
	if cfg.Name == "" {
		cfg.Name = config.DefaultServerName
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.Transport == "" {
		cfg.Transport = config.TransportStdio
	}
	if cfg.Stdin == nil {
		cfg.Stdin = os.Stdin
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}

	return &Runtime{
		cfg: cfg,
		server: server.NewMCPServer(
			cfg.Name,
			cfg.Version,
			server.WithToolCapabilities(true),
			server.WithRecovery(),
		),
	}
}

// Factory returns an api.RuntimeFactory producing runtimes configured with cfg.
func Factory(cfg Config) api.RuntimeFactory {
	return func() (api.Runtime, error) {
		switch cfg.Transport {
		case "", config.TransportStdio, config.TransportSSE, config.TransportStreamableHTTP, TransportNone:
			return New(cfg), nil
		default:
			return nil, fmt.Errorf("unsupported transport %q", cfg.Transport)
		}
	}
}

// RegisterAction adds the action as an MCP tool. Names must be unique.
func (r *Runtime) RegisterAction(action api.Action) error {
	name := action.Name()
	if name == "" {
		return errors.New("action has no name")
	}
	if action.Handler == nil {
		return fmt.Errorf("action %s has no handler", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.actions {
		if existing == name {
			return fmt.Errorf("action %s is already registered", name)
		}
	}

	r.server.AddTool(action.Definition, action.Handler)
	r.actions = append(r.actions, name)
	logging.Debug(servingSubsystem, "Registered action %s", name)
	return nil
}

// Actions returns registered action names in registration order.
func (r *Runtime) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.actions...)
}

// MCPServer exposes the underlying server.
func (r *Runtime) MCPServer() *server.MCPServer {
	return r.server
}

// Serve blocks until the transport stops or ctx is cancelled.
// Cancellation is a clean shutdown and returns nil.
func (r *Runtime) Serve(ctx context.Context) error {
	r.mu.Lock()
	if r.serving {
		r.mu.Unlock()
		return errors.New("runtime is already serving")
	}
	r.serving = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.serving = false
		r.mu.Unlock()
	}()

	var err error
	switch r.cfg.Transport {
	case TransportNone:
		logging.Debug(servingSubsystem, "Transport none, not serving %d actions", len(r.Actions()))
		return nil
	case config.TransportStdio:
		logging.Info(servingSubsystem, "Serving %d actions over stdio", len(r.Actions()))
		err = server.NewStdioServer(r.server).Listen(ctx, r.cfg.Stdin, r.cfg.Stdout)
	case config.TransportSSE:
		addr := fmt.Sprintf("%s:%d", r.cfg.Host, r.cfg.Port)
		logging.Info(servingSubsystem, "Serving %d actions over SSE on %s", len(r.Actions()), addr)
		sse := server.NewSSEServer(r.server, server.WithBaseURL("http://"+addr))
		err = serveHTTP(ctx, func() error { return sse.Start(addr) }, sse.Shutdown)
	case config.TransportStreamableHTTP:
		addr := fmt.Sprintf("%s:%d", r.cfg.Host, r.cfg.Port)
		logging.Info(servingSubsystem, "Serving %d actions over streamable-http on %s", len(r.Actions()), addr)
		streamable := server.NewStreamableHTTPServer(r.server)
		err = serveHTTP(ctx, func() error { return streamable.Start(addr) }, streamable.Shutdown)
	default:
		return fmt.Errorf("unsupported transport %q", r.cfg.Transport)
	}

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// serveHTTP runs start until it fails or ctx is done, then shuts down.
func serveHTTP(ctx context.Context, start func() error, shutdown func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	stopped := make(chan struct{})

	g.Go(func() error {
		defer close(stopped)
		if err := start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-stopped:
			return nil
		}
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logging.Error(servingSubsystem, err, "Error shutting down transport")
		}
		return nil
	})

	return g.Wait()
}
