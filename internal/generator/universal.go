package generator

import (
	"mcpstack/internal/stack"
	"mcpstack/pkg/logging"
)

// UniversalArtifact is the raw pipeline document plus the environment a
// launched server needs.
type UniversalArtifact struct {
	stack.Document
	EnvVars map[string]string `json:"env_vars"`
}

// Universal dumps the pipeline for hosts without a dedicated format.
type Universal struct{}

// Description implements stack.Generator.
func (Universal) Description() string {
	return "Raw pipeline document with its launch environment"
}

// Generate implements stack.Generator.
func (Universal) Generate(p *stack.Pipeline, opts stack.GenerateOptions) (any, error) {
	env, err := launchEnv(p.Config(), opts.PipelinePath)
	if err != nil {
		return nil, err
	}
	artifact := UniversalArtifact{Document: p.Document(), EnvVars: env}

	if opts.SavePath != "" {
		if err := writeJSON(opts.SavePath, artifact); err != nil {
			return nil, err
		}
		logging.Info(generatorSubsystem, "Saved universal configuration to %s", opts.SavePath)
	}
	return artifact, nil
}
