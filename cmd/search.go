package cmd

import (
	"sort"

	"mcpstack/internal/cli"
	"mcpstack/internal/formatting"
	"mcpstack/internal/stack"
	"mcpstack/pkg/strings"

	"github.com/spf13/cobra"
)

// searchCutoff admits looser matches than "did you mean" suggestions.
const searchCutoff = 0.5

func newSearchCmd() *cobra.Command {
	var output cli.OutputFlags

	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search tools, presets and formats by name",
		Long: `Search ranks every registered tool, preset and format against the query.
Names containing the query rank first, followed by close spellings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			formatter, err := output.Formatter(cmd)
			if err != nil {
				return err
			}
			return formatter.FormatEntries(search(a.Registries(), args[0]))
		},
	}
	cli.RegisterOutputFlags(searchCmd, &output)
	return searchCmd
}

// search returns the entries matching query across every registry, best first.
func search(reg *stack.Registries, query string) []formatting.Entry {
	var hits []formatting.Entry
	for _, group := range []struct {
		kind    string
		entries []formatting.Entry
	}{
		{"tool", toolEntries(reg)},
		{"preset", presetEntries(reg)},
		{"format", formatEntries(reg)},
	} {
		byName := make(map[string]formatting.Entry, len(group.entries))
		names := make([]string, 0, len(group.entries))
		for _, e := range group.entries {
			byName[e.Name] = e
			names = append(names, e.Name)
		}
		for _, m := range strings.Rank(query, names, searchCutoff) {
			e := byName[m.Name]
			e.Kind = group.kind
			e.Score = m.Score
			hits = append(hits, e)
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	return hits
}
