package cmd

import (
	"fmt"

	"mcpstack/internal/cli"
	"mcpstack/internal/formatting"
	"mcpstack/internal/stack"

	"github.com/spf13/cobra"
)

// listKinds maps each list subcommand onto the registry it enumerates.
var listKinds = map[string]func(reg *stack.Registries) []formatting.Entry{
	"tools":   toolEntries,
	"presets": presetEntries,
	"formats": formatEntries,
}

func newListCmd() *cobra.Command {
	var output cli.OutputFlags

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List registered tools, presets or formats",
		Long: `List the building blocks mcpstack knows about.

Examples:
  mcpstack list tools
  mcpstack list presets -o json
  mcpstack list formats --quiet`,
	}
	cli.RegisterOutputFlags(listCmd, &output)

	for _, kind := range []string{"tools", "presets", "formats"} {
		entries := listKinds[kind]
		listCmd.AddCommand(&cobra.Command{
			Use:   kind,
			Short: fmt.Sprintf("List registered %s", kind),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := loadApp(cmd)
				if err != nil {
					return err
				}
				formatter, err := output.Formatter(cmd)
				if err != nil {
					return err
				}
				return formatter.FormatEntries(entries(a.Registries()))
			},
		})
	}
	return listCmd
}

func toolEntries(reg *stack.Registries) []formatting.Entry {
	var entries []formatting.Entry
	for _, name := range reg.Tools.Names() {
		entry, _ := reg.Tools.Resolve(name)
		entries = append(entries, formatting.Entry{Name: name, Description: entry.Description})
	}
	return entries
}

func presetEntries(reg *stack.Registries) []formatting.Entry {
	var entries []formatting.Entry
	for _, name := range reg.Presets.Names() {
		entry, _ := reg.Presets.Resolve(name)
		entries = append(entries, formatting.Entry{Name: name, Description: entry.Description})
	}
	return entries
}

func formatEntries(reg *stack.Registries) []formatting.Entry {
	var entries []formatting.Entry
	for _, name := range reg.Generators.Names() {
		gen, _ := reg.Generators.Resolve(name)
		entries = append(entries, formatting.Entry{Name: name, Description: gen.Description()})
	}
	return entries
}
