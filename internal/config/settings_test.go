package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings_DefaultsWhenMissing(t *testing.T) {
	settings, err := LoadSettings(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), settings)
}

func TestLoadSettings_UserDirFromHome(t *testing.T) {
	home := t.TempDir()
	original := osUserHomeDir
	osUserHomeDir = func() (string, error) { return home, nil }
	defer func() { osUserHomeDir = original }()

	dir := filepath.Join(home, userConfigDir)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, settingsFileName), []byte("serverName: from-home\n"), 0644))

	settings, err := LoadSettings("")
	require.NoError(t, err)
	assert.Equal(t, "from-home", settings.ServerName)
}

func TestLoadSettings_Override(t *testing.T) {
	dir := t.TempDir()
	content := `
logLevel: debug
defaultFormat: docker
runtime:
  transport: sse
  port: 9000
docker:
  image: ghcr.io/acme/stack:1.0
  volumes: ["/data:/data"]
env:
  REGION: eu
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, settingsFileName), []byte(content), 0644))

	settings, err := LoadSettings(dir)
	require.NoError(t, err)
	assert.Equal(t, "debug", settings.LogLevel)
	assert.Equal(t, "docker", settings.DefaultFormat)
	assert.Equal(t, TransportSSE, settings.Runtime.Transport)
	assert.Equal(t, "localhost:9000", settings.Runtime.Addr())
	assert.Equal(t, "ghcr.io/acme/stack:1.0", settings.Docker.Image)
	assert.Equal(t, []string{"/data:/data"}, settings.Docker.Volumes)
	assert.Equal(t, map[string]string{"REGION": "eu"}, settings.Env)
	assert.Equal(t, DefaultServerName, settings.ServerName, "unset fields keep defaults")
}

func TestLoadSettings_Malformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, settingsFileName), []byte("runtime: [oops"), 0644))

	_, err := LoadSettings(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), settingsFileName)
}

func TestLoadSettings_Invalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, settingsFileName), []byte("logLevel: loud\nruntime:\n  transport: carrier-pigeon\n"), 0644))

	_, err := LoadSettings(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logLevel")
	assert.Contains(t, err.Error(), "runtime.transport")
}

func TestSaveSettings_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := DefaultSettings()
	want.ServerName = "custom"
	want.Docker.Ports = []string{"8080:8080"}

	require.NoError(t, SaveSettings(dir, want))
	got, err := LoadSettings(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
