package api

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Action is a single invocable callable contributed by a tool.
type Action struct {
	Definition mcp.Tool
	Handler    server.ToolHandlerFunc
}

// Name returns the action's registered name.
func (a Action) Name() string {
	return a.Definition.Name
}

// EnvVar declares an environment variable a tool reads.
// The variable is required unless HasDefault is set.
type EnvVar struct {
	Name       string
	Default    string
	HasDefault bool
}

// RequiredEnv declares a variable with no default.
func RequiredEnv(name string) EnvVar {
	return EnvVar{Name: name}
}

// OptionalEnv declares a variable that falls back to def.
func OptionalEnv(name, def string) EnvVar {
	return EnvVar{Name: name, Default: def, HasDefault: true}
}

// Tool is the capability interface every plugin tool satisfies.
type Tool interface {
	// Actions declares the callables this tool contributes. It must not have side effects.
	Actions() []Action

	// RequiredEnvVars lists the environment variables the tool reads.
	RequiredEnvVars() []EnvVar

	// Backends returns the named sub-resources the tool owns. May be nil.
	Backends() map[string]any

	// Params is the serializable payload that a ToolFactory accepts to rebuild an equivalent tool.
	Params() map[string]any
}

// Initializer is implemented by tools and backends that acquire resources per build cycle.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// TearDowner is implemented by tools and backends that release resources at shutdown.
type TearDowner interface {
	Teardown(ctx context.Context) error
}

// PostLoader is implemented by tools that need to act after being restored from a document.
type PostLoader interface {
	PostLoad(ctx context.Context) error
}

// ToolFactory rebuilds a tool from its Params payload.
type ToolFactory func(params map[string]any) (Tool, error)

// ToolType derives the stable identifier of a tool from its Go type name.
// HelloWorld becomes hello_world and HTTPFetcher becomes http_fetcher.
func ToolType(t Tool) string {
	typ := reflect.TypeOf(t)
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	return SnakeCase(typ.Name())
}

// SnakeCase converts a CamelCase identifier into snake_case.
func SnakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// InitializeTool initializes the tool's backends in name order, then the tool itself.
// The first failure stops initialization. Backends that were already
// initialized are torn down before the failure is returned.
func InitializeTool(ctx context.Context, t Tool) error {
	backends := t.Backends()
	names := sortedKeys(backends)
	for i, name := range names {
		if init, ok := backends[name].(Initializer); ok {
			if err := init.Initialize(ctx); err != nil {
				return errors.Join(append([]error{fmt.Errorf("backend %s: %w", name, err)}, teardownBackends(ctx, backends, names[:i])...)...)
			}
		}
	}
	if init, ok := t.(Initializer); ok {
		if err := init.Initialize(ctx); err != nil {
			return errors.Join(append([]error{err}, teardownBackends(ctx, backends, names)...)...)
		}
	}
	return nil
}

// TeardownTool tears down the tool and then each backend in name order.
// It always runs every hook. Failures, including panics, are returned rather
// than propagated so one broken backend cannot block the others.
func TeardownTool(ctx context.Context, t Tool) []error {
	var errs []error
	if td, ok := t.(TearDowner); ok {
		if err := safeTeardown(ctx, td); err != nil {
			errs = append(errs, err)
		}
	}

	backends := t.Backends()
	return append(errs, teardownBackends(ctx, backends, sortedKeys(backends))...)
}

func teardownBackends(ctx context.Context, backends map[string]any, names []string) []error {
	var errs []error
	for _, name := range names {
		if td, ok := backends[name].(TearDowner); ok {
			if err := safeTeardown(ctx, td); err != nil {
				errs = append(errs, fmt.Errorf("backend %s: %w", name, err))
			}
		}
	}
	return errs
}

// PostLoadTool runs the tool's post-load hook and then InitializeTool.
func PostLoadTool(ctx context.Context, t Tool) error {
	if pl, ok := t.(PostLoader); ok {
		if err := pl.PostLoad(ctx); err != nil {
			return err
		}
	}
	return InitializeTool(ctx, t)
}

func safeTeardown(ctx context.Context, td TearDowner) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("teardown panicked: %v", r)
		}
	}()
	return td.Teardown(ctx)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
