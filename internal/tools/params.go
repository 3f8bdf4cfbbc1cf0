package tools

import (
	"fmt"
)

// stringParam reads key from params, returning def when the key is absent or null.
func stringParam(params map[string]any, key, def string) (string, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return def, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("parameter %s must be a string, got %T", key, raw)
	}
	return s, nil
}
