package cli

import (
	"errors"
	"fmt"

	"mcpstack/internal/api"
	"mcpstack/pkg/strings"
)

// Process exit codes.
const (
	ExitOK        = 0
	ExitError     = 1
	ExitConfig    = 2 // configuration and validation errors
	ExitLifecycle = 3 // build, initialization and preset errors
)

// ExitCode maps err onto a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, api.ErrConfig), errors.Is(err, api.ErrValidation):
		return ExitConfig
	case errors.Is(err, api.ErrBuild), errors.Is(err, api.ErrInitialization), errors.Is(err, api.ErrPreset):
		return ExitLifecycle
	default:
		return ExitError
	}
}

// Hint returns a "did you mean" line for an unknown name, or "" when err
// carries no known alternatives or none is close enough.
func Hint(err error, name string) string {
	known := api.KnownAlternatives(err)
	if len(known) == 0 || name == "" {
		return ""
	}
	if match, ok := strings.Suggest(name, known, strings.DefaultSuggestCutoff); ok {
		return fmt.Sprintf("Did you mean %q?", match)
	}
	return ""
}
