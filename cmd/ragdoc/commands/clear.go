// ABOUTME: CLI command to drop the document collection
// ABOUTME: Refuses to run without --yes
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	clearYes bool
)

// NewClearCmd creates the clear command
func NewClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every ingested chunk",
		Long: `Drop the configured collection and every chunk stored in it.

The next ingest recreates the collection.`,
		Args: cobra.NoArgs,
		RunE: runClear,
	}

	cmd.Flags().BoolVar(&clearYes, "yes", false, "Confirm deleting the collection")

	return cmd
}

func runClear(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if !clearYes {
		fmt.Fprintln(out, "This will delete ALL ingested chunks!")
		fmt.Fprintln(out, "Run with --yes to proceed")
		return nil
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

	if err := a.Pipeline.Clear(cmd.Context()); err != nil {
		return err
	}
	if !quiet {
		fmt.Fprintf(out, "Cleared collection %q\n", a.Store.Collection())
	}
	return nil
}
