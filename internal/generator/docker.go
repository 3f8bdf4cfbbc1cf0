package generator

import (
	"path/filepath"
	"sort"

	"mcpstack/internal/api"
	"mcpstack/internal/config"
	"mcpstack/internal/containerizer"
	"mcpstack/internal/stack"
)

// Docker emits an mcpServers entry that runs the pipeline in a container.
type Docker struct{}

// Description implements stack.Generator.
func (Docker) Description() string {
	return "Host configuration that launches mcpstack in a Docker container"
}

// Generate implements stack.Generator. A given PipelinePath is mounted
// read-only at the container's pipeline location.
func (Docker) Generate(p *stack.Pipeline, opts stack.GenerateOptions) (any, error) {
	image := opts.Image
	if image == "" {
		image = config.DefaultImage
	}
	if err := containerizer.ValidateImageName(image); err != nil {
		return nil, api.Wrap(api.ErrValidation, err, "invalid image")
	}

	env := p.Config().EnvVars()
	volumes := append([]string(nil), opts.Volumes...)
	if opts.PipelinePath != "" {
		abs, err := filepath.Abs(opts.PipelinePath)
		if err != nil {
			return nil, api.Wrap(api.ErrValidation, err, "invalid pipeline path %s", opts.PipelinePath)
		}
		volumes = append(volumes, abs+":"+containerizer.ContainerPipelinePath+":ro")
		env[config.EnvConfigPath] = containerizer.ContainerPipelinePath
	}

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := containerizer.RunArgs(containerizer.RunConfig{
		Image:     image,
		EnvKeys:   keys,
		Volumes:   volumes,
		Ports:     opts.Ports,
		Network:   opts.Network,
		ExtraArgs: opts.ExtraArgs,
	})

	hc := HostConfig{MCPServers: map[string]ServerEntry{
		serverName(opts): {Command: "docker", Args: args, Env: env},
	}}
	if err := persistHostConfig(hc, opts); err != nil {
		return nil, err
	}
	return hc, nil
}
