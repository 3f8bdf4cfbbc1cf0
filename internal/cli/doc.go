// Package cli provides the terminal helpers shared by mcpstack commands.
//
// EnvPrompter asks for required environment variables that no configuration
// level resolves, using readline so secrets can be typed masked. Progress wraps
// long-running steps in a spinner unless output is quiet. ExitCode maps error
// kinds onto process exit codes, and Hint turns an unknown-name error into a
// "did you mean" suggestion from its list of known alternatives.
package cli
