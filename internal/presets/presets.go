// Package presets provides the built-in pre-composed pipelines.
package presets

import (
	"fmt"

	"mcpstack/internal/config"
	"mcpstack/internal/stack"
	"mcpstack/internal/tools"
)

// Register adds the built-in presets to reg.
func Register(reg *stack.Registries) error {
	entries := map[string]stack.PresetEntry{
		"example_preset": {
			Description: "A single hello_world tool",
			Create:      examplePreset,
		},
		"notes": {
			Description: "A scratchpad for notes plus hello_world",
			Create:      notesPreset,
		},
	}
	for name, entry := range entries {
		if err := reg.Presets.Register(name, entry); err != nil {
			return err
		}
	}
	return nil
}

// examplePreset accepts an optional greeting.
func examplePreset(cfg *config.StackConfig, opts map[string]any) (*stack.Pipeline, error) {
	hello, err := tools.NewHelloWorld(pick(opts, "greeting"))
	if err != nil {
		return nil, err
	}
	return stack.NewPipeline(cfg, nil).WithTool(hello), nil
}

// notesPreset accepts namespace, dir and greeting.
func notesPreset(cfg *config.StackConfig, opts map[string]any) (*stack.Pipeline, error) {
	pad, err := tools.NewScratchpad(pick(opts, "namespace", "dir"))
	if err != nil {
		return nil, fmt.Errorf("scratchpad: %w", err)
	}
	hello, err := tools.NewHelloWorld(pick(opts, "greeting"))
	if err != nil {
		return nil, fmt.Errorf("hello_world: %w", err)
	}
	return stack.NewPipeline(cfg, nil).WithTools(pad, hello), nil
}

func pick(opts map[string]any, keys ...string) map[string]any {
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := opts[k]; ok {
			out[k] = v
		}
	}
	return out
}
