package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"

	"mcpstack/internal/api"
	"mcpstack/internal/config"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedReader struct {
	answers map[string]string
	errs    map[string]error
	secret  []string
	asked   []string
}

func (r *scriptedReader) read(prompt string) (string, error) {
	r.asked = append(r.asked, prompt)
	if err := r.errs[prompt]; err != nil {
		return "", err
	}
	return r.answers[prompt], nil
}

func (r *scriptedReader) ReadLine(prompt string) (string, error) { return r.read(prompt) }

func (r *scriptedReader) ReadSecret(prompt string) (string, error) {
	r.secret = append(r.secret, prompt)
	return r.read(prompt)
}

func (r *scriptedReader) Close() error { return nil }

type envTool struct {
	vars []api.EnvVar
}

func (t envTool) Actions() []api.Action         { return nil }
func (t envTool) RequiredEnvVars() []api.EnvVar { return t.vars }
func (t envTool) Backends() map[string]any      { return nil }
func (t envTool) Params() map[string]any        { return nil }

func TestMissingEnv(t *testing.T) {
	t.Setenv("PRESENT", "yes")
	t.Setenv("API_KEY", "")
	t.Setenv("REGION", "")

	cfg, err := config.NewStackConfig("", map[string]string{"OVERRIDDEN": "x"})
	require.NoError(t, err)

	tools := []api.Tool{
		envTool{vars: []api.EnvVar{api.RequiredEnv("API_KEY"), api.RequiredEnv("PRESENT"), api.OptionalEnv("OPT", "d")}},
		envTool{vars: []api.EnvVar{api.RequiredEnv("API_KEY"), api.RequiredEnv("OVERRIDDEN"), api.RequiredEnv("REGION")}},
	}
	assert.Equal(t, []string{"API_KEY", "REGION"}, MissingEnv(cfg, tools))
}

func TestEnvPrompter_PromptMissing(t *testing.T) {
	t.Setenv("API_KEY", "")
	t.Setenv("REGION", "")
	t.Setenv("ZONE", "")

	cfg := config.DefaultStackConfig()
	reader := &scriptedReader{answers: map[string]string{
		"API_KEY: ": " secret ",
		"REGION: ":  "eu",
		"ZONE: ":    "",
	}}
	tools := []api.Tool{envTool{vars: []api.EnvVar{api.RequiredEnv("API_KEY"), api.RequiredEnv("REGION"), api.RequiredEnv("ZONE")}}}

	answers, err := NewEnvPrompter(reader).PromptMissing(cfg, tools)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"API_KEY": "secret", "REGION": "eu"}, answers)
	assert.Equal(t, []string{"API_KEY: "}, reader.secret, "key-like names are read masked")

	assert.Equal(t, map[string]string{"API_KEY": "secret", "REGION": "eu"}, cfg.EnvVars())
	err = cfg.ValidateForTools(tools)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ZONE")
}

func TestEnvPrompter_Aborted(t *testing.T) {
	t.Setenv("TOKEN", "")
	tools := []api.Tool{envTool{vars: []api.EnvVar{api.RequiredEnv("TOKEN")}}}

	for _, abort := range []error{readline.ErrInterrupt, io.EOF} {
		reader := &scriptedReader{errs: map[string]error{"TOKEN: ": abort}}
		_, err := NewEnvPrompter(reader).PromptMissing(config.DefaultStackConfig(), tools)
		assert.ErrorIs(t, err, ErrPromptAborted)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{errors.New("plain"), ExitError},
		{api.Errorf(api.ErrConfig, "missing"), ExitConfig},
		{fmt.Errorf("wrapped: %w", api.Errorf(api.ErrValidation, "bad")), ExitConfig},
		{api.Errorf(api.ErrBuild, "order"), ExitLifecycle},
		{api.Errorf(api.ErrInitialization, "runtime"), ExitLifecycle},
		{api.Errorf(api.ErrPreset, "preset"), ExitLifecycle},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExitCode(tt.err), "%v", tt.err)
	}
}

func TestHint(t *testing.T) {
	err := api.Errorf(api.ErrPreset, "preset not found: exampel_preset").WithKnown([]string{"example_preset", "notes"})
	assert.Equal(t, `Did you mean "example_preset"?`, Hint(err, "exampel_preset"))
	assert.Empty(t, Hint(err, "zzzzzz"))
	assert.Empty(t, Hint(errors.New("plain"), "notes"))
}

func TestProgress(t *testing.T) {
	var out bytes.Buffer
	called := false
	require.NoError(t, Progress(&out, false, "Building", func() error {
		called = true
		return nil
	}))
	assert.True(t, called)

	boom := errors.New("boom")
	assert.ErrorIs(t, Progress(&out, true, "Building", func() error { return boom }), boom)
}

func TestOutputFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	var flags OutputFlags
	RegisterOutputFlags(cmd, &flags)
	require.NoError(t, cmd.PersistentFlags().Parse([]string{"-o", "json", "-q"}))

	f, err := flags.Formatter(cmd)
	require.NoError(t, err)
	assert.True(t, f.GetOptions().Quiet)

	flags.OutputFormat = "xml"
	_, err = flags.Formatter(cmd)
	assert.Error(t, err)
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "Error: boom", FormatError(errors.New("boom")))
	assert.Equal(t, "✓ done", FormatSuccess("done"))
	assert.Equal(t, "⚠ careful", FormatWarning("careful"))
}
