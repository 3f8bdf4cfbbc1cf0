package formatting

import (
	"fmt"
	"sort"
	"strconv"

	"mcpstack/pkg/strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(options Options) Formatter {
	return &TableFormatter{options: options}
}

// FormatEntries renders entries as a table. The KIND and SCORE columns only
// appear when some entry sets them.
func (f *TableFormatter) FormatEntries(entries []Entry) error {
	if len(entries) == 0 {
		return f.formatEmptyMessage("No entries found")
	}

	var withKind, withScore bool
	for _, e := range entries {
		withKind = withKind || e.Kind != ""
		withScore = withScore || e.Score > 0
	}

	t := f.createTable()
	header := table.Row{}
	if withKind {
		header = append(header, f.header("KIND"))
	}
	header = append(header, f.header("NAME"), f.header("DESCRIPTION"))
	if withScore {
		header = append(header, f.header("SCORE"))
	}
	t.AppendHeader(header)

	for _, e := range entries {
		row := table.Row{}
		if withKind {
			row = append(row, e.Kind)
		}
		row = append(row, e.Name, strings.TruncateDescription(e.Description, strings.DefaultDescriptionMaxLen))
		if withScore {
			row = append(row, strconv.FormatFloat(e.Score, 'f', 2, 64))
		}
		t.AppendRow(row)
	}

	t.Render()
	return f.formatTotal(len(entries))
}

// FormatData formats generic data using table logic
func (f *TableFormatter) FormatData(data interface{}) error {
	var generic interface{}
	if err := roundTripJSON(data, &generic); err != nil {
		_, err = fmt.Fprintf(f.options.Output, "%v\n", data)
		return err
	}

	switch d := generic.(type) {
	case map[string]interface{}:
		return f.formatObjectData(d)
	case []interface{}:
		return f.formatArrayData(d)
	case string:
		_, err := fmt.Fprintln(f.options.Output, d)
		return err
	default:
		_, err := fmt.Fprintf(f.options.Output, "%v\n", d)
		return err
	}
}

// GetOptions returns the current formatter options
func (f *TableFormatter) GetOptions() Options {
	return f.options
}

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(f.options.Output)
	if f.options.Quiet {
		t.SetStyle(table.StyleLight)
		t.Style().Options.DrawBorder = false
		t.Style().Options.SeparateColumns = false
		t.Style().Options.SeparateHeader = false
	} else {
		t.SetStyle(table.StyleRounded)
	}
	return t
}

func (f *TableFormatter) header(s string) string {
	if f.options.Quiet {
		return s
	}
	return text.FgHiCyan.Sprint(s)
}

func (f *TableFormatter) formatEmptyMessage(message string) error {
	if f.options.Quiet {
		return nil
	}
	_, err := fmt.Fprintln(f.options.Output, text.FgYellow.Sprint(message))
	return err
}

func (f *TableFormatter) formatTotal(n int) error {
	if f.options.Quiet {
		return nil
	}
	_, err := fmt.Fprintf(f.options.Output, "%s %s\n", text.FgHiBlue.Sprint("Total:"), text.FgHiWhite.Sprint(n))
	return err
}

// formatObjectData formats object data as sorted key-value pairs
func (f *TableFormatter) formatObjectData(data map[string]interface{}) error {
	t := f.createTable()
	t.AppendHeader(table.Row{f.header("KEY"), f.header("VALUE")})

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		valueStr := fmt.Sprintf("%v", data[key])
		switch data[key].(type) {
		case map[string]interface{}, []interface{}:
			valueStr = PrettyJSON(data[key])
		}
		if !f.options.Quiet {
			key = text.FgHiCyan.Sprint(key)
		}
		t.AppendRow(table.Row{key, valueStr})
	}

	t.Render()
	return nil
}

// formatArrayData formats array data as a numbered list, or as a table when
// every element is an object
func (f *TableFormatter) formatArrayData(data []interface{}) error {
	if len(data) == 0 {
		return f.formatEmptyMessage("No items found")
	}

	if columns, ok := objectColumns(data); ok {
		t := f.createTable()
		header := table.Row{}
		for _, c := range columns {
			header = append(header, f.header(c))
		}
		t.AppendHeader(header)
		for _, item := range data {
			obj := item.(map[string]interface{})
			row := table.Row{}
			for _, c := range columns {
				row = append(row, fmt.Sprintf("%v", obj[c]))
			}
			t.AppendRow(row)
		}
		t.Render()
		return f.formatTotal(len(data))
	}

	for i, item := range data {
		if _, err := fmt.Fprintf(f.options.Output, "  %d. %v\n", i+1, item); err != nil {
			return err
		}
	}
	return f.formatTotal(len(data))
}

// objectColumns returns the sorted union of keys when every item is an object.
func objectColumns(data []interface{}) ([]string, bool) {
	seen := map[string]bool{}
	for _, item := range data {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, false
		}
		for k := range obj {
			seen[k] = true
		}
	}
	columns := make([]string, 0, len(seen))
	for k := range seen {
		columns = append(columns, k)
	}
	sort.Strings(columns)
	return columns, true
}
