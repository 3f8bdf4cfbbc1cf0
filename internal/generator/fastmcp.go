package generator

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"mcpstack/internal/api"
	"mcpstack/internal/config"
	"mcpstack/internal/stack"
)

var (
	execLookPath     = exec.LookPath
	osExecutable     = os.Executable
	osGetwd          = os.Getwd
	defaultServeArgs = []string{"serve"}
)

// FastMCP emits an mcpServers entry that launches mcpstack on the host.
type FastMCP struct{}

// Description implements stack.Generator.
func (FastMCP) Description() string {
	return "Host configuration that launches mcpstack directly"
}

// Generate implements stack.Generator.
func (FastMCP) Generate(p *stack.Pipeline, opts stack.GenerateOptions) (any, error) {
	cfg := p.Config()

	command, err := resolveCommand(cfg, opts.Command)
	if err != nil {
		return nil, err
	}
	args := resolveArgs(cfg, opts.Args)
	cwd, err := resolveCwd(cfg, opts.Cwd)
	if err != nil {
		return nil, err
	}
	env, err := launchEnv(cfg, opts.PipelinePath)
	if err != nil {
		return nil, err
	}

	hc := HostConfig{MCPServers: map[string]ServerEntry{
		serverName(opts): {Command: command, Args: args, Cwd: cwd, Env: env},
	}}
	if err := persistHostConfig(hc, opts); err != nil {
		return nil, err
	}
	return hc, nil
}

func resolveCommand(cfg *config.StackConfig, explicit string) (string, error) {
	command := explicit
	if command == "" {
		command, _ = cfg.GetEnv(config.EnvCommand, "", false)
	}
	if command == "" {
		exe, err := osExecutable()
		if err != nil {
			return "", api.Wrap(api.ErrValidation, err, "cannot determine the mcpstack executable")
		}
		command = exe
	}

	if strings.ContainsRune(command, filepath.Separator) {
		if info, err := os.Stat(command); err != nil || info.IsDir() {
			return "", api.Errorf(api.ErrValidation, "command not found: %s", command)
		}
		return command, nil
	}
	if _, err := execLookPath(command); err != nil {
		return "", api.Wrap(api.ErrValidation, err, "command not found: %s", command)
	}
	return command, nil
}

func resolveArgs(cfg *config.StackConfig, explicit []string) []string {
	if explicit != nil {
		return append([]string(nil), explicit...)
	}
	raw, _ := cfg.GetEnv(config.EnvArgs, "", false)
	if raw == "" {
		return append([]string(nil), defaultServeArgs...)
	}
	var args []string
	for _, a := range strings.Split(raw, ",") {
		if a = strings.TrimSpace(a); a != "" {
			args = append(args, a)
		}
	}
	return args
}

func resolveCwd(cfg *config.StackConfig, explicit string) (string, error) {
	cwd := explicit
	if cwd == "" {
		cwd, _ = cfg.GetEnv(config.EnvCwd, "", false)
	}
	if cwd == "" {
		wd, err := osGetwd()
		if err != nil {
			return "", api.Wrap(api.ErrValidation, err, "cannot determine working directory")
		}
		cwd = wd
	}
	info, err := os.Stat(cwd)
	if err != nil || !info.IsDir() {
		return "", api.Errorf(api.ErrValidation, "invalid working directory: %s", cwd)
	}
	return cwd, nil
}

// launchEnv copies the configuration's overrides and points the launched
// server at pipelinePath when one is given.
func launchEnv(cfg *config.StackConfig, pipelinePath string) (map[string]string, error) {
	env := cfg.EnvVars()
	if pipelinePath != "" {
		abs, err := filepath.Abs(pipelinePath)
		if err != nil {
			return nil, api.Wrap(api.ErrValidation, err, "invalid pipeline path %s", pipelinePath)
		}
		env[config.EnvConfigPath] = abs
	}
	return env, nil
}
