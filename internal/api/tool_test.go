package api

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	calls []string
}

type hookBackend struct {
	name        string
	rec         *recorder
	initErr     error
	teardownErr error
	panicOnStop bool
}

func (b *hookBackend) Initialize(ctx context.Context) error {
	b.rec.calls = append(b.rec.calls, "init:"+b.name)
	return b.initErr
}

func (b *hookBackend) Teardown(ctx context.Context) error {
	b.rec.calls = append(b.rec.calls, "teardown:"+b.name)
	if b.panicOnStop {
		panic("backend exploded")
	}
	return b.teardownErr
}

type plainBackend struct{}

type HookedTool struct {
	rec         *recorder
	backends    map[string]any
	initErr     error
	teardownErr error
}

func (t *HookedTool) Actions() []Action         { return nil }
func (t *HookedTool) RequiredEnvVars() []EnvVar { return nil }
func (t *HookedTool) Backends() map[string]any  { return t.backends }
func (t *HookedTool) Params() map[string]any    { return map[string]any{} }

func (t *HookedTool) Initialize(ctx context.Context) error {
	t.rec.calls = append(t.rec.calls, "init:tool")
	return t.initErr
}

func (t *HookedTool) Teardown(ctx context.Context) error {
	t.rec.calls = append(t.rec.calls, "teardown:tool")
	return t.teardownErr
}

func (t *HookedTool) PostLoad(ctx context.Context) error {
	t.rec.calls = append(t.rec.calls, "postload:tool")
	return nil
}

type HTTPFetcher struct{ HookedTool }

func TestToolType(t *testing.T) {
	assert.Equal(t, "hooked_tool", ToolType(&HookedTool{}))
	assert.Equal(t, "http_fetcher", ToolType(&HTTPFetcher{}))
}

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"HelloWorld":  "hello_world",
		"Scratchpad":  "scratchpad",
		"HTTPFetcher": "http_fetcher",
		"OAuth2Token": "o_auth2_token",
		"already":     "already",
		"":            "",
	}
	for in, want := range tests {
		assert.Equal(t, want, SnakeCase(in), in)
	}
}

func TestInitializeTool_BackendsFirst(t *testing.T) {
	rec := &recorder{}
	tool := &HookedTool{rec: rec, backends: map[string]any{
		"b":     &hookBackend{name: "b", rec: rec},
		"a":     &hookBackend{name: "a", rec: rec},
		"plain": plainBackend{},
	}}

	require.NoError(t, InitializeTool(context.Background(), tool))
	assert.Equal(t, []string{"init:a", "init:b", "init:tool"}, rec.calls)
}

func TestInitializeTool_BackendFailureStops(t *testing.T) {
	rec := &recorder{}
	tool := &HookedTool{rec: rec, backends: map[string]any{
		"db": &hookBackend{name: "db", rec: rec, initErr: errors.New("refused")},
	}}

	err := InitializeTool(context.Background(), tool)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend db")
	assert.Equal(t, []string{"init:db"}, rec.calls)
}

func TestInitializeTool_FailureTearsDownInitializedBackends(t *testing.T) {
	rec := &recorder{}
	tool := &HookedTool{rec: rec, backends: map[string]any{
		"a": &hookBackend{name: "a", rec: rec},
		"m": plainBackend{},
		"z": &hookBackend{name: "z", rec: rec, initErr: errors.New("locked")},
	}}

	err := InitializeTool(context.Background(), tool)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend z: locked")
	assert.Equal(t, []string{"init:a", "init:z", "teardown:a"}, rec.calls)
}

func TestInitializeTool_ToolFailureTearsDownBackends(t *testing.T) {
	rec := &recorder{}
	failure := errors.New("tool refused")
	tool := &HookedTool{rec: rec, initErr: failure, backends: map[string]any{
		"a": &hookBackend{name: "a", rec: rec},
		"b": &hookBackend{name: "b", rec: rec, teardownErr: errors.New("b stuck")},
	}}

	err := InitializeTool(context.Background(), tool)
	require.Error(t, err)
	assert.ErrorIs(t, err, failure)
	assert.Contains(t, err.Error(), "backend b: b stuck")
	assert.Equal(t, []string{"init:a", "init:b", "init:tool", "teardown:a", "teardown:b"}, rec.calls)
}

func TestTeardownTool_ContinuesPastFailures(t *testing.T) {
	rec := &recorder{}
	tool := &HookedTool{
		rec:         rec,
		teardownErr: errors.New("tool failed"),
		backends: map[string]any{
			"a": &hookBackend{name: "a", rec: rec, panicOnStop: true},
			"b": &hookBackend{name: "b", rec: rec, teardownErr: errors.New("b failed")},
			"c": &hookBackend{name: "c", rec: rec},
		},
	}

	errs := TeardownTool(context.Background(), tool)
	assert.Equal(t, []string{"teardown:tool", "teardown:a", "teardown:b", "teardown:c"}, rec.calls)
	require.Len(t, errs, 3)
	assert.EqualError(t, errs[0], "tool failed")
	assert.Contains(t, errs[1].Error(), "panicked")
	assert.Contains(t, errs[2].Error(), "b failed")
}

func TestPostLoadTool_ThenInitialize(t *testing.T) {
	rec := &recorder{}
	tool := &HookedTool{rec: rec, backends: map[string]any{
		"a": &hookBackend{name: "a", rec: rec},
	}}

	require.NoError(t, PostLoadTool(context.Background(), tool))
	assert.Equal(t, []string{"postload:tool", "init:a", "init:tool"}, rec.calls)
}

func TestEnvVarConstructors(t *testing.T) {
	assert.Equal(t, EnvVar{Name: "API_KEY"}, RequiredEnv("API_KEY"))
	assert.Equal(t, EnvVar{Name: "PORT", Default: "8080", HasDefault: true}, OptionalEnv("PORT", "8080"))
}
