package generator

import (
	"mcpstack/internal/stack"
)

const (
	FormatFastMCP   = "fastmcp"
	FormatDocker    = "docker"
	FormatUniversal = "universal"
)

// Register adds every built-in format to reg.
func Register(reg *stack.Registries) error {
	for name, gen := range map[string]stack.Generator{
		FormatFastMCP:   FastMCP{},
		FormatDocker:    Docker{},
		FormatUniversal: Universal{},
	} {
		if err := reg.Generators.Register(name, gen); err != nil {
			return err
		}
	}
	return nil
}
