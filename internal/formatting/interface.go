// Package formatting renders CLI output as tables, JSON or YAML.
package formatting

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatTable OutputFormat = "table" // Rich table output
	FormatJSON  OutputFormat = "json"  // JSON output
	FormatYAML  OutputFormat = "yaml"  // YAML output
)

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat
	Quiet  bool      // Suppress decorative elements
	Output io.Writer // Defaults to os.Stdout
}

// Entry is one row of a listing: a registered tool, preset or format, or a search hit.
type Entry struct {
	Kind        string  `json:"kind,omitempty" yaml:"kind,omitempty"`
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Score       float64 `json:"score,omitempty" yaml:"score,omitempty"`
}

// Formatter renders listings and arbitrary data.
type Formatter interface {
	FormatEntries(entries []Entry) error
	FormatData(data interface{}) error
	GetOptions() Options
}

// ParseFormat validates a --output value.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use table, json or yaml)", s)
	}
}

// NewFormatter creates the formatter for options.Format
func NewFormatter(options Options) Formatter {
	if options.Output == nil {
		options.Output = os.Stdout
	}
	switch options.Format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	default:
		return NewTableFormatter(options)
	}
}
