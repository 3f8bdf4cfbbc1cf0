package cli

import (
	"mcpstack/internal/formatting"

	"github.com/spf13/cobra"
)

// OutputFlags holds the output flag values shared by listing commands.
type OutputFlags struct {
	// OutputFormat specifies the desired output format (table, json, yaml)
	OutputFormat string
	// Quiet suppresses progress indicators and decorations
	Quiet bool
}

// RegisterOutputFlags registers --output/-o and --quiet/-q on cmd.
func RegisterOutputFlags(cmd *cobra.Command, flags *OutputFlags) {
	cmd.PersistentFlags().StringVarP(&flags.OutputFormat, "output", "o", "table", "Output format (table, json, yaml)")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress non-essential output")
}

// Formatter returns the formatter selected by the flags, writing to cmd's output.
func (f *OutputFlags) Formatter(cmd *cobra.Command) (formatting.Formatter, error) {
	format, err := formatting.ParseFormat(f.OutputFormat)
	if err != nil {
		return nil, err
	}
	return formatting.NewFormatter(formatting.Options{
		Format: format,
		Quiet:  f.Quiet,
		Output: cmd.OutOrStdout(),
	}), nil
}
