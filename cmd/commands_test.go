package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"mcpstack/internal/api"
	"mcpstack/internal/cli"
	"mcpstack/internal/config"
	"mcpstack/internal/containerizer"
	"mcpstack/internal/formatting"
	"mcpstack/internal/generator"
	"mcpstack/internal/stack"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useTempSettings points the commands at an empty settings directory and
// keeps tool data inside the test's temp dir.
func useTempSettings(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	original := rootSettingsDir
	rootSettingsDir = dir
	t.Cleanup(func() { rootSettingsDir = original })
	t.Setenv(config.EnvDataDir, filepath.Join(dir, "data"))
	t.Setenv(config.EnvConfigPath, "")
	return dir
}

func execute(t *testing.T, c *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	c.SetOut(&stdout)
	c.SetErr(&stderr)
	c.SetArgs(args)
	c.SetContext(context.Background())
	err := c.Execute()
	return stdout.String(), stderr.String(), err
}

func TestListCommands(t *testing.T) {
	useTempSettings(t)

	out, _, err := execute(t, newListCmd(), "tools")
	require.NoError(t, err)
	assert.Contains(t, out, "hello_world")
	assert.Contains(t, out, "scratchpad")

	out, _, err = execute(t, newListCmd(), "presets", "-o", "json")
	require.NoError(t, err)
	var presets []formatting.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &presets))
	require.Len(t, presets, 2)
	assert.Equal(t, "example_preset", presets[0].Name)
	assert.Equal(t, "notes", presets[1].Name)

	out, _, err = execute(t, newListCmd(), "formats", "-o", "json")
	require.NoError(t, err)
	var formats []formatting.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &formats))
	names := make([]string, 0, len(formats))
	for _, f := range formats {
		names = append(names, f.Name)
		assert.NotEmpty(t, f.Description)
	}
	assert.Equal(t, []string{"docker", "fastmcp", "universal"}, names)

	_, _, err = execute(t, newListCmd(), "tools", "-o", "xml")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestSearchCommand(t *testing.T) {
	useTempSettings(t)

	out, _, err := execute(t, newSearchCmd(), "hello", "-o", "json")
	require.NoError(t, err)

	var hits []formatting.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &hits))
	require.NotEmpty(t, hits)
	assert.Equal(t, "hello_world", hits[0].Name)
	assert.Equal(t, "tool", hits[0].Kind)
	assert.Greater(t, hits[0].Score, 1.0)

	out, _, err = execute(t, newSearchCmd(), "qqqqqqqq", "-o", "json")
	require.NoError(t, err)
	hits = nil
	require.NoError(t, json.Unmarshal([]byte(out), &hits))
	assert.Empty(t, hits)
}

func TestBuildCommand_Universal(t *testing.T) {
	dir := useTempSettings(t)
	pipeline := filepath.Join(dir, "pipeline.json")

	out, _, err := execute(t, newBuildCmd(),
		"--tool", "hello_world", "--tool-param", "hello_world.greeting=Hi",
		"--env", "REGION=eu", "--format", "universal", "--pipeline", pipeline, "-q")
	require.NoError(t, err)

	var artifact map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &artifact))
	assert.Equal(t, map[string]any{"REGION": "eu"}, artifact["env_vars"])

	doc, err := stack.ReadDocument(pipeline)
	require.NoError(t, err)
	require.Len(t, doc.Tools, 1)
	assert.Equal(t, "hello_world", doc.Tools[0].Type)
	assert.Equal(t, "Hi", doc.Tools[0].Params["greeting"])
	assert.Equal(t, "eu", doc.Config.EnvVars["REGION"])
}

func TestBuildCommand_FastMCPToFile(t *testing.T) {
	dir := useTempSettings(t)
	pipeline := filepath.Join(dir, "pipeline.json")
	artifactPath := filepath.Join(dir, "host.json")

	out, _, err := execute(t, newBuildCmd(),
		"--preset", "example_preset", "--format", "fastmcp",
		"--pipeline", pipeline, "--output-file", artifactPath, "--server-name", "demo", "-q")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote launch configuration to "+artifactPath)

	data, err := os.ReadFile(artifactPath)
	require.NoError(t, err)
	var hc generator.HostConfig
	require.NoError(t, json.Unmarshal(data, &hc))
	entry, ok := hc.MCPServers["demo"]
	require.True(t, ok)
	assert.Equal(t, []string{"serve"}, entry.Args)
	assert.Equal(t, pipeline, entry.Env[config.EnvConfigPath])
	assert.FileExists(t, pipeline)
}

func TestBuildCommand_ScratchpadReleasesLock(t *testing.T) {
	dir := useTempSettings(t)
	notes := filepath.Join(dir, "notes")

	for i := 0; i < 2; i++ {
		_, _, err := execute(t, newBuildCmd(),
			"--preset", "notes", "--preset-opt", "dir="+notes, "--format", "universal",
			"--pipeline", filepath.Join(dir, "notes.json"), "-q")
		require.NoError(t, err, "build %d", i)
	}

	storage := config.NewStorage(notes, ".md")
	require.NoError(t, storage.Acquire())
	require.NoError(t, storage.Release())
}

func TestBuildCommand_ScratchpadUsesPipelineDataDir(t *testing.T) {
	dir := useTempSettings(t)
	custom := filepath.Join(dir, "custom")

	_, _, err := execute(t, newBuildCmd(),
		"--preset", "notes", "--env", config.EnvDataDir+"="+custom, "--format", "universal",
		"--pipeline", filepath.Join(dir, "notes.json"), "-q")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(custom, ".lock"))
	assert.NoFileExists(t, filepath.Join(dir, "data", ".lock"))
}

func TestBuildCommand_Errors(t *testing.T) {
	dir := useTempSettings(t)
	pipeline := filepath.Join(dir, "pipeline.json")

	tests := []struct {
		name     string
		args     []string
		kind     error
		exitCode int
		hint     string
	}{
		{
			name:     "no tools",
			args:     []string{"--format", "universal"},
			kind:     api.ErrValidation,
			exitCode: cli.ExitConfig,
		},
		{
			name:     "unknown preset",
			args:     []string{"--preset", "example_prest"},
			kind:     api.ErrPreset,
			exitCode: cli.ExitLifecycle,
			hint:     `Did you mean "example_preset"?`,
		},
		{
			name:     "unknown tool",
			args:     []string{"--tool", "hello_wrld"},
			kind:     api.ErrValidation,
			exitCode: cli.ExitConfig,
			hint:     `Did you mean "hello_world"?`,
		},
		{
			name:     "unknown format",
			args:     []string{"--tool", "hello_world", "--format", "fastmc"},
			kind:     api.ErrValidation,
			exitCode: cli.ExitConfig,
			hint:     `Did you mean "fastmcp"?`,
		},
		{
			name:     "malformed env",
			args:     []string{"--tool", "hello_world", "--env", "NOVALUE"},
			kind:     api.ErrValidation,
			exitCode: cli.ExitConfig,
		},
		{
			name:     "malformed tool param",
			args:     []string{"--tool", "hello_world", "--tool-param", "greeting=Hi"},
			kind:     api.ErrValidation,
			exitCode: cli.ExitConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--pipeline", pipeline, "-q"}, tt.args...)
			_, _, err := execute(t, newBuildCmd(), args...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			assert.Equal(t, tt.exitCode, cli.ExitCode(err))

			var hinted *hintedError
			if tt.hint == "" {
				assert.False(t, errors.As(err, &hinted))
				return
			}
			require.True(t, errors.As(err, &hinted))
			assert.Equal(t, tt.hint, hinted.hint)
		})
	}
	assert.NoFileExists(t, pipeline)
}

func TestRegenerate(t *testing.T) {
	dir := useTempSettings(t)
	pipeline := filepath.Join(dir, "pipeline.yaml")

	_, _, err := execute(t, newBuildCmd(), "--tool", "hello_world", "--format", "universal", "--pipeline", pipeline, "-q")
	require.NoError(t, err)

	a, err := loadApp(newBuildCmd())
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, regenerate(context.Background(), &out, a, generator.FormatUniversal, stack.GenerateOptions{PipelinePath: pipeline}))
	assert.Contains(t, out.String(), `"type": "hello_world"`)

	err = regenerate(context.Background(), &out, a, generator.FormatUniversal, stack.GenerateOptions{PipelinePath: filepath.Join(dir, "missing.json")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

type envTool struct {
	vars []api.EnvVar
}

func (t envTool) Actions() []api.Action         { return nil }
func (t envTool) RequiredEnvVars() []api.EnvVar { return t.vars }
func (t envTool) Backends() map[string]any      { return nil }
func (t envTool) Params() map[string]any        { return nil }

type scriptedReader struct {
	answers map[string]string
	asked   []string
}

func (r *scriptedReader) ReadLine(prompt string) (string, error) {
	r.asked = append(r.asked, prompt)
	return r.answers[prompt], nil
}

func (r *scriptedReader) ReadSecret(prompt string) (string, error) { return r.ReadLine(prompt) }
func (r *scriptedReader) Close() error                             { return nil }

func TestPromptMissing(t *testing.T) {
	t.Setenv("API_KEY", "")
	reader := &scriptedReader{answers: map[string]string{"API_KEY: ": "secret"}}
	original := newLineReader
	newLineReader = func(*cobra.Command) (cli.LineReader, error) { return reader, nil }
	t.Cleanup(func() { newLineReader = original })

	p := stack.NewPipeline(config.DefaultStackConfig(), nil).
		WithTool(envTool{vars: []api.EnvVar{api.RequiredEnv("API_KEY"), api.OptionalEnv("REGION", "eu")}})

	require.NoError(t, promptMissing(&cobra.Command{}, p))
	assert.Equal(t, []string{"API_KEY: "}, reader.asked)
	assert.Equal(t, "secret", p.Config().EnvVars()["API_KEY"])

	// Nothing left to ask.
	reader.asked = nil
	require.NoError(t, promptMissing(&cobra.Command{}, p))
	assert.Empty(t, reader.asked)
}

func TestParseToolParams(t *testing.T) {
	params, err := parseToolParams([]string{"scratchpad.namespace=work", "scratchpad.dir=/tmp/x", "hello_world.greeting=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]map[string]any{
		"scratchpad":  {"namespace": "work", "dir": "/tmp/x"},
		"hello_world": {"greeting": "a=b"},
	}, params)

	for _, bad := range []string{"novalue", "=x", "nodot=x", ".key=x", "type.=x"} {
		_, err := parseToolParams([]string{bad})
		assert.ErrorIs(t, err, api.ErrValidation, bad)
	}
}

func TestPipelineAddAndShow(t *testing.T) {
	dir := useTempSettings(t)
	file := filepath.Join(dir, "stack.yaml")

	out, _, err := execute(t, newPipelineCmd(), "add", "scratchpad", "--file", file,
		"--param", "namespace=work", "--param", "dir="+filepath.Join(dir, "notes"))
	require.NoError(t, err)
	assert.Contains(t, out, "now has 1 tools")

	out, _, err = execute(t, newPipelineCmd(), "add", "hello_world", "--file", file, "--env", "REGION=eu")
	require.NoError(t, err)
	assert.Contains(t, out, "now has 2 tools")

	out, _, err = execute(t, newPipelineCmd(), "show", "--file", file, "-o", "json")
	require.NoError(t, err)
	var doc stack.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Tools, 2)
	assert.Equal(t, "scratchpad", doc.Tools[0].Type)
	assert.Equal(t, "work", doc.Tools[0].Params["namespace"])
	assert.Equal(t, "hello_world", doc.Tools[1].Type)
	assert.Equal(t, "eu", doc.Config.EnvVars["REGION"])

	_, _, err = execute(t, newPipelineCmd(), "add", "helo_world", "--file", file)
	var hinted *hintedError
	require.True(t, errors.As(err, &hinted))
	assert.Equal(t, `Did you mean "hello_world"?`, hinted.hint)

	_, _, err = execute(t, newPipelineCmd(), "show", "--file", filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestServeAndRunWithoutTransport(t *testing.T) {
	dir := useTempSettings(t)
	pipeline := filepath.Join(dir, "pipeline.json")

	_, _, err := execute(t, newRunCmd(), "--tool", "hello_world", "--transport", "none", "--save", pipeline)
	require.NoError(t, err)
	require.FileExists(t, pipeline)

	_, _, err = execute(t, newServeCmd(), "--pipeline", pipeline, "--transport", "none")
	require.NoError(t, err)

	t.Setenv(config.EnvConfigPath, pipeline)
	_, _, err = execute(t, newServeCmd(), "--transport", "none")
	require.NoError(t, err)

	_, _, err = execute(t, newServeCmd(), "--pipeline", pipeline, "--transport", "carrier-pigeon")
	assert.ErrorIs(t, err, api.ErrInitialization)
}

func TestRunCommand_SaveFailureWarns(t *testing.T) {
	dir := useTempSettings(t)
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	_, stderr, err := execute(t, newRunCmd(), "--tool", "hello_world", "--transport", "none", "--save", filepath.Join(blocker, "p.json"))
	require.NoError(t, err)
	assert.Contains(t, stderr, cli.FormatWarning("Could not save pipeline to "+filepath.Join(blocker, "p.json")))
}

func TestDockerfileCommand(t *testing.T) {
	dir := useTempSettings(t)
	pipeline := filepath.Join(dir, "pipeline.json")

	_, _, err := execute(t, newBuildCmd(), "--tool", "hello_world", "--env", "REGION=eu",
		"--format", "universal", "--pipeline", pipeline, "-q")
	require.NoError(t, err)

	out, _, err := execute(t, newDockerCmd(), "dockerfile", "--pipeline", pipeline, "--context", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "COPY pipeline.json "+containerizer.ContainerPipelinePath)
	assert.Contains(t, out, `ENV REGION="eu"`)
	assert.Contains(t, out, `CMD ["serve"]`)

	out, _, err = execute(t, newDockerCmd(), "dockerfile", "--pipeline", pipeline, "--context", dir,
		"--bake-env=false", "--transport", "sse")
	require.NoError(t, err)
	assert.NotContains(t, out, "REGION")
	assert.Contains(t, out, "EXPOSE 8090")
	assert.Contains(t, out, `CMD ["serve","--transport","sse"]`)

	target := filepath.Join(dir, "Dockerfile")
	_, _, err = execute(t, newDockerCmd(), "dockerfile", "--pipeline", pipeline, "--context", dir, "--output-file", target)
	require.NoError(t, err)
	assert.FileExists(t, target)

	_, _, err = execute(t, newDockerCmd(), "dockerfile", "--pipeline", pipeline, "--context", filepath.Join(dir, "sub"))
	assert.ErrorIs(t, err, api.ErrValidation)
}

type fakeImageRuntime struct {
	builds []containerizer.BuildOptions
	tags   [][2]string
	pushes []string
	images []containerizer.Image
	err    error
}

func (f *fakeImageRuntime) BuildImage(ctx context.Context, opts containerizer.BuildOptions) error {
	f.builds = append(f.builds, opts)
	return f.err
}

func (f *fakeImageRuntime) PushImage(ctx context.Context, image, registry string) (string, error) {
	ref := image
	if registry != "" {
		ref = registry + "/" + image
	}
	f.pushes = append(f.pushes, ref)
	return ref, f.err
}

func (f *fakeImageRuntime) TagImage(ctx context.Context, source, target string) error {
	f.tags = append(f.tags, [2]string{source, target})
	return f.err
}

func (f *fakeImageRuntime) PullImage(ctx context.Context, image string) error { return f.err }

func (f *fakeImageRuntime) ListImages(ctx context.Context, filter string) ([]containerizer.Image, error) {
	return f.images, f.err
}

func useImageRuntime(t *testing.T, rt containerizer.ImageRuntime) {
	original := newImageRuntime
	newImageRuntime = func(string) (containerizer.ImageRuntime, error) { return rt, nil }
	t.Cleanup(func() { newImageRuntime = original })
}

func TestDockerImageCommands(t *testing.T) {
	useTempSettings(t)
	fake := &fakeImageRuntime{images: []containerizer.Image{{Repository: "mcpstack", Tag: "latest", ID: "abc"}}}
	useImageRuntime(t, fake)

	out, _, err := execute(t, newDockerCmd(), "build", "--build-arg", "VERSION=1", "--no-cache", "-q")
	require.NoError(t, err)
	assert.Contains(t, out, "Built "+config.DefaultImage)
	require.Len(t, fake.builds, 1)
	assert.Equal(t, config.DefaultImage, fake.builds[0].Tag)
	assert.Equal(t, ".", fake.builds[0].ContextDir)
	assert.Equal(t, map[string]string{"VERSION": "1"}, fake.builds[0].BuildArgs)
	assert.True(t, fake.builds[0].NoCache)

	out, _, err = execute(t, newDockerCmd(), "push", "mcpstack:latest", "--registry", "ghcr.io/me")
	require.NoError(t, err)
	assert.Contains(t, out, "Pushed ghcr.io/me/mcpstack:latest")

	_, _, err = execute(t, newDockerCmd(), "tag", "mcpstack:latest", "mcpstack:1.0")
	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"mcpstack:latest", "mcpstack:1.0"}}, fake.tags)

	_, _, err = execute(t, newDockerCmd(), "tag", "mcpstack:latest", "Not Valid")
	assert.Error(t, err)
	assert.Len(t, fake.tags, 1)

	out, _, err = execute(t, newDockerCmd(), "images", "-o", "json")
	require.NoError(t, err)
	var images []containerizer.Image
	require.NoError(t, json.Unmarshal([]byte(out), &images))
	assert.Equal(t, fake.images, images)

	fake.err = errors.New("daemon unavailable")
	_, _, err = execute(t, newDockerCmd(), "images")
	assert.ErrorContains(t, err, "daemon unavailable")
}
