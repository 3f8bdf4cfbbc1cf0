package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeRoot runs the real command tree and returns what it wrote to stdout.
func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	resetRootFlags()
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		resetRootFlags()
	})
	err := rootCmd.Execute()
	return out.String(), err
}

// resetRootFlags clears the boolean flags a previous execution may have left set.
func resetRootFlags() {
	for _, name := range []string{"help", "version"} {
		if f := rootCmd.Flags().Lookup(name); f != nil {
			_ = f.Value.Set("false")
		}
	}
}

func useVersion(t *testing.T, v string) {
	t.Helper()
	original := GetVersion()
	SetVersion(v)
	t.Cleanup(func() { SetVersion(original) })
}

func TestVersionOutput(t *testing.T) {
	useVersion(t, "1.4.0")

	out, err := executeRoot(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "mcpstack version 1.4.0\n", out)

	out, err = executeRoot(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "mcpstack version 1.4.0\n", out)
}

func TestVersionCommand_RejectsArguments(t *testing.T) {
	useVersion(t, "1.4.0")

	_, err := executeRoot(t, "version", "extra")
	assert.ErrorContains(t, err, "unknown command")
}
