// ABOUTME: CLI command to search ingested documents
// ABOUTME: Embeds the query and lists the most similar chunks
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/ragdoc/internal/retrieve"
)

var (
	searchLimit int
)

// NewSearchCmd creates search command
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search ingested documents",
		Long: `Search ingested documents by semantic similarity.

The query is embedded in query mode and compared against every stored
chunk; the best matches are printed with their cosine scores.

Examples:
  ragdoc search "how do I rotate credentials"
  ragdoc search --limit 3 "quarterly revenue"
  ragdoc search --format json "onboarding checklist"`,
		Args: cobra.ExactArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().IntVar(&searchLimit, "limit", retrieve.DefaultLimit, "Maximum results to return")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := validatePositiveInt(searchLimit, "limit"); err != nil {
		return err
	}
	query := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := openApp(cmd, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	results, err := a.Retriever.SearchN(cmd.Context(), query, searchLimit)
	if err != nil {
		return fmt.Errorf("searching documents: %w", err)
	}

	out := cmd.OutOrStdout()
	if useJSON(out) {
		return printJSON(out, results)
	}

	if len(results) == 0 {
		if !quiet {
			fmt.Fprintf(out, "No documents found for query: %s\n", query)
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SCORE\tSOURCE\tCHUNK\tPREVIEW\n")
	fmt.Fprintf(w, "-----\t------\t-----\t-------\n")
	for _, result := range results {
		fmt.Fprintf(w, "%.3f\t%s\t%d\t%s\n",
			result.Score,
			truncate(result.Source, 25),
			result.ChunkIndex,
			truncate(oneLine(result.Text), 60))
	}
	w.Flush()

	if !quiet {
		fmt.Fprintf(out, "\nFound %d result(s)\n", len(results))
	}
	return nil
}
