package tools

import (
	"context"
	"fmt"
	"strings"

	"mcpstack/internal/api"
	"mcpstack/internal/config"
	"mcpstack/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	scratchpadSubsystem = "Scratchpad"
	defaultNamespace    = "default"
	notesExt            = ".md"
)

// Scratchpad stores free-form notes under a namespace.
type Scratchpad struct {
	Namespace string
	Dir       string // Storage directory. Empty resolves the data directory at initialize time.

	store *noteStore
}

// NewScratchpad is the ToolFactory for scratchpad.
func NewScratchpad(params map[string]any) (api.Tool, error) {
	ns, err := stringParam(params, "namespace", defaultNamespace)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(ns) == "" {
		return nil, fmt.Errorf("parameter namespace cannot be empty")
	}
	if config.SanitizeName(ns) != ns {
		return nil, fmt.Errorf("parameter namespace %q may only contain letters, digits, '-' and '_'", ns)
	}
	dir, err := stringParam(params, "dir", "")
	if err != nil {
		return nil, err
	}
	return &Scratchpad{Namespace: ns, Dir: dir, store: &noteStore{dir: dir}}, nil
}

func (s *Scratchpad) Actions() []api.Action {
	return []api.Action{
		{
			Definition: mcp.NewTool("note_write",
				mcp.WithDescription("Create or replace a note"),
				mcp.WithString("name", mcp.Required(), mcp.Description("Note name")),
				mcp.WithString("content", mcp.Required(), mcp.Description("Note body")),
			),
			Handler: s.handleWrite,
		},
		{
			Definition: mcp.NewTool("note_read",
				mcp.WithDescription("Read a note"),
				mcp.WithString("name", mcp.Required(), mcp.Description("Note name")),
			),
			Handler: s.handleRead,
		},
		{
			Definition: mcp.NewTool("note_list",
				mcp.WithDescription("List all notes"),
			),
			Handler: s.handleList,
		},
		{
			Definition: mcp.NewTool("note_delete",
				mcp.WithDescription("Delete a note"),
				mcp.WithString("name", mcp.Required(), mcp.Description("Note name")),
			),
			Handler: s.handleDelete,
		},
	}
}

func (s *Scratchpad) RequiredEnvVars() []api.EnvVar {
	return []api.EnvVar{api.OptionalEnv(config.EnvDataDir, "")}
}

func (s *Scratchpad) Backends() map[string]any {
	return map[string]any{"store": s.backend()}
}

func (s *Scratchpad) Params() map[string]any {
	params := map[string]any{"namespace": s.Namespace}
	if s.Dir != "" {
		params["dir"] = s.Dir
	}
	return params
}

func (s *Scratchpad) backend() *noteStore {
	if s.store == nil {
		s.store = &noteStore{dir: s.Dir}
	}
	return s.store
}

func (s *Scratchpad) handleWrite(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required"), nil
	}
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("content argument is required"), nil
	}
	storage, err := s.backend().get()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := storage.Save(s.Namespace, name, []byte(content)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to save note: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Saved note %s", name)), nil
}

func (s *Scratchpad) handleRead(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required"), nil
	}
	storage, err := s.backend().get()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := storage.Load(s.Namespace, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Scratchpad) handleList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	storage, err := s.backend().get()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	names, err := storage.List(s.Namespace)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(names) == 0 {
		return mcp.NewToolResultText("No notes"), nil
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (s *Scratchpad) handleDelete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required"), nil
	}
	storage, err := s.backend().get()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := storage.Delete(s.Namespace, name); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted note %s", name)), nil
}

// noteStore is the scratchpad backend. It holds the storage directory lock
// between Initialize and Teardown.
type noteStore struct {
	dir     string
	storage *config.Storage
}

func (n *noteStore) Initialize(ctx context.Context) error {
	if n.storage != nil {
		return nil
	}
	dir := n.dir
	if dir == "" {
		resolved, err := config.FromContext(ctx).DataDir()
		if err != nil {
			return err
		}
		dir = resolved
	}
	storage := config.NewStorage(dir, notesExt)
	if err := storage.Acquire(); err != nil {
		return err
	}
	n.storage = storage
	logging.Debug(scratchpadSubsystem, "Opened notes in %s", dir)
	return nil
}

func (n *noteStore) Teardown(ctx context.Context) error {
	if n.storage == nil {
		return nil
	}
	err := n.storage.Release()
	n.storage = nil
	return err
}

func (n *noteStore) get() (*config.Storage, error) {
	if n.storage == nil {
		return nil, fmt.Errorf("scratchpad is not initialized")
	}
	return n.storage, nil
}
