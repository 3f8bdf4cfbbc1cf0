package tools

import (
	"context"
	"fmt"

	"mcpstack/internal/api"

	"github.com/mark3labs/mcp-go/mcp"
)

const defaultGreeting = "Hello"

// HelloWorld greets whoever calls it.
type HelloWorld struct {
	Greeting string
}

// NewHelloWorld is the ToolFactory for hello_world.
func NewHelloWorld(params map[string]any) (api.Tool, error) {
	greeting, err := stringParam(params, "greeting", defaultGreeting)
	if err != nil {
		return nil, err
	}
	return &HelloWorld{Greeting: greeting}, nil
}

func (h *HelloWorld) Actions() []api.Action {
	return []api.Action{{
		Definition: mcp.NewTool("hello_world",
			mcp.WithDescription("Return a greeting for the given name"),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("Name of the person to greet"),
			),
		),
		Handler: h.handleHello,
	}}
}

func (h *HelloWorld) RequiredEnvVars() []api.EnvVar { return nil }
func (h *HelloWorld) Backends() map[string]any      { return nil }

func (h *HelloWorld) Params() map[string]any {
	return map[string]any{"greeting": h.Greeting}
}

func (h *HelloWorld) handleHello(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s, %s!", h.Greeting, name)), nil
}
