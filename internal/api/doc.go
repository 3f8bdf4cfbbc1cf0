// Package api defines the contracts shared by every mcpstack package.
//
// It holds no behaviour of its own beyond small helpers that enforce the
// contracts, so that the pipeline builder, the built-in tools, the
// generators and the serving runtime can depend on it without depending on
// each other.
//
// # Tools
//
// A Tool contributes invocable Actions, declares the environment variables
// it needs (EnvVar, required unless a default is given), owns zero or more
// named backends, and serializes itself through Params. The deterministic
// identifier used as a registry key and in persisted documents is derived
// from the Go type name by ToolType:
//
//	type HelloWorld struct{ ... }
//	api.ToolType(&HelloWorld{}) // "hello_world"
//
// # Lifecycle hooks
//
// Tools and backends opt into lifecycle hooks by implementing Initializer,
// TearDowner or PostLoader. Callers never invoke those methods directly.
// They go through the wrappers, which also walk the tool's backends:
//
//   - InitializeTool initializes every backend (sorted by name) and then the tool.
//   - TeardownTool tears down the tool and then every backend. It never fails.
//     Errors and panics are collected and returned for logging.
//   - PostLoadTool runs the tool's post-load hook and then InitializeTool.
//
// # Errors
//
// Failures are reported as *Error values whose Kind is one of ErrConfig,
// ErrValidation, ErrBuild, ErrInitialization or ErrPreset. Use errors.Is to
// test the kind and KnownAlternatives to recover the list of valid names
// attached to lookup failures.
//
// # Runtime
//
// Runtime is the serving collaborator. The pipeline only ever registers
// actions with it and asks it to serve.
package api
