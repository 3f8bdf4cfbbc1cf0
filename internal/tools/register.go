package tools

import (
	"mcpstack/internal/api"
	"mcpstack/internal/stack"
)

// Register adds the built-in tools to reg. Each is keyed by api.ToolType of
// the value it constructs, the same identifier Save writes.
func Register(reg *stack.Registries) error {
	builtins := []struct {
		tool  api.Tool
		entry stack.ToolEntry
	}{
		{&HelloWorld{}, stack.ToolEntry{Description: "Greets the caller by name", New: NewHelloWorld}},
		{&Scratchpad{}, stack.ToolEntry{Description: "Stores named notes on disk", New: NewScratchpad}},
	}
	for _, b := range builtins {
		if err := reg.Tools.Register(api.ToolType(b.tool), b.entry); err != nil {
			return err
		}
	}
	return nil
}
