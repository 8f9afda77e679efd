// ABOUTME: CLI command to ingest PDF and text files into the vector store
// ABOUTME: Chunks, embeds, and stores each file, then prints a per-file summary
package commands

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/ragdoc/internal/ingest"
)

var (
	ingestSource string
)

// NewIngestCmd creates the ingest command
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Ingest PDF or text files",
		Long: `Ingest PDF or plain-text files into the document collection.

Each file is split into semantically coherent chunks, every chunk is
embedded in document mode, and the chunks are stored in the configured
vector store (qdrant, sqlite, charm, or memory).

Examples:
  ragdoc ingest handbook.pdf
  ragdoc ingest notes.txt --source "team notes"
  RAGDOC_STORE=sqlite ragdoc ingest *.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: runIngest,
	}

	cmd.Flags().StringVar(&ingestSource, "source", "", "Source name stored with the chunks (single file only)")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestSource != "" && len(args) > 1 {
		return errors.New("--source can only be used with a single file")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := openApp(cmd, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	results := make([]*ingest.Result, 0, len(args))
	for _, path := range args {
		res, err := a.Pipeline.IngestFile(cmd.Context(), path, ingestSource)
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", path, err)
		}
		results = append(results, res)
	}

	out := cmd.OutOrStdout()
	if useJSON(out) {
		return printJSON(out, results)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SOURCE\tPAGES\tCHUNKS\tSTORED\n")
	fmt.Fprintf(w, "------\t-----\t------\t------\n")
	for _, res := range results {
		pages := "-"
		if res.Pages > 0 {
			pages = fmt.Sprintf("%d", res.Pages)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", truncate(res.Source, 40), pages, res.Chunks, res.Persisted)
	}
	w.Flush()

	if !quiet {
		fmt.Fprintf(out, "\nIngested %d file(s) into %q\n", len(results), a.Store.Collection())
	}
	return nil
}
