package formatting

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter provides YAML output formatting
type YAMLFormatter struct {
	options Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(options Options) Formatter {
	return &YAMLFormatter{options: options}
}

// FormatEntries writes entries as a YAML sequence
func (f *YAMLFormatter) FormatEntries(entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	return f.FormatData(entries)
}

// FormatData formats generic data as YAML. Values carrying JSON tags only
// are routed through JSON first so that field names match the JSON output.
func (f *YAMLFormatter) FormatData(data interface{}) error {
	var generic interface{}
	if err := roundTripJSON(data, &generic); err != nil {
		return fmt.Errorf("failed to format YAML: %w", err)
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return fmt.Errorf("failed to format YAML: %w", err)
	}
	_, err = f.options.Output.Write(out)
	return err
}

// GetOptions returns the current formatter options
func (f *YAMLFormatter) GetOptions() Options {
	return f.options
}
