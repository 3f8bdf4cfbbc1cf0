package stack

import (
	"mcpstack/internal/api"
	"mcpstack/internal/config"
	"mcpstack/internal/registry"
)

// ToolEntry describes a registered tool type.
type ToolEntry struct {
	Description string
	New         api.ToolFactory
}

// PresetFactory builds a pre-composed pipeline from the caller's configuration.
type PresetFactory func(cfg *config.StackConfig, opts map[string]any) (*Pipeline, error)

// PresetEntry describes a registered preset.
type PresetEntry struct {
	Description string
	Create      PresetFactory
}

// Generator turns a built pipeline into one launch-artifact format.
type Generator interface {
	Description() string
	Generate(p *Pipeline, opts GenerateOptions) (any, error)
}

// Registries groups the three name-keyed tables a pipeline consults.
type Registries struct {
	Tools      *registry.Registry[ToolEntry]
	Presets    *registry.Registry[PresetEntry]
	Generators *registry.Registry[Generator]
}

// NewRegistries returns empty, unsealed registries.
func NewRegistries() *Registries {
	return &Registries{
		Tools:      registry.New[ToolEntry]("tool type"),
		Presets:    registry.New[PresetEntry]("preset"),
		Generators: registry.New[Generator]("format"),
	}
}

// Seal makes all three registries read-only.
func (r *Registries) Seal() {
	r.Tools.Seal()
	r.Presets.Seal()
	r.Generators.Seal()
}
