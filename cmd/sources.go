package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// newSourcesCmd creates the 'sources' subcommand, which lists the loaded
// shop source registry.
func newSourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the configured shop sources",
		RunE:  runSources,
	}
}

func runSources(cmd *cobra.Command, _ []string) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDOMAIN\tENABLED\tTEMPLATES")
	enabled := 0
	for _, source := range a.Sources {
		if source.Enabled {
			enabled++
		}
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\n",
			source.Name,
			source.Domain,
			source.Enabled,
			strings.Join(source.SearchURLTemplates, ", "),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d sources (%d enabled)\n", len(a.Sources), enabled)
	return nil
}
