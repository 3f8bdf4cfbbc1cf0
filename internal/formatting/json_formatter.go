package formatting

import (
	"encoding/json"
	"fmt"
)

// JSONFormatter provides JSON output formatting
type JSONFormatter struct {
	options Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(options Options) Formatter {
	return &JSONFormatter{options: options}
}

// FormatEntries writes entries as a JSON array
func (f *JSONFormatter) FormatEntries(entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	return f.FormatData(entries)
}

// FormatData formats generic data as JSON
func (f *JSONFormatter) FormatData(data interface{}) error {
	_, err := fmt.Fprintln(f.options.Output, f.marshal(data))
	return err
}

// GetOptions returns the current formatter options
func (f *JSONFormatter) GetOptions() Options {
	return f.options
}

// marshal converts data to JSON string with appropriate formatting
func (f *JSONFormatter) marshal(data interface{}) string {
	if !f.options.Quiet {
		return PrettyJSON(data)
	}
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Sprintf(`{"error": "Failed to format JSON: %v"}`, err)
	}
	return string(jsonBytes)
}
