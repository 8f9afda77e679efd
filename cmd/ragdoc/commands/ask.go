// ABOUTME: CLI command to answer a question from ingested documents
// ABOUTME: Streams tokens to stdout when streaming is enabled
package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var (
	askStream bool
)

// NewAskCmd creates the ask command
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from ingested documents",
		Long: `Answer a question using only chunks retrieved from ingested documents.

The retrieved chunks are passed to the chat model as context together
with an instruction not to add outside knowledge.

Examples:
  ragdoc ask "What is the refund policy?"
  ragdoc ask --stream "Summarize the security section"
  ragdoc ask --format json "Who owns the billing service?"`,
		Args: cobra.ExactArgs(1),
		RunE: runAsk,
	}

	cmd.Flags().BoolVar(&askStream, "stream", false, "Stream the answer as it is generated")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	jsonOut := useJSON(out)
	if cmd.Flags().Changed("stream") {
		cfg.StreamResponse = askStream
	}
	if jsonOut {
		cfg.StreamResponse = false
	}

	a, err := openApp(cmd, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	var w io.Writer
	if cfg.StreamResponse {
		w = out
	}
	answer, err := a.Retriever.Ask(cmd.Context(), args[0], w)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(out, answer)
	}
	if cfg.StreamResponse {
		fmt.Fprintln(out)
	} else {
		fmt.Fprintln(out, answer.Text)
	}

	if !quiet && len(answer.Sources) > 0 {
		fmt.Fprintf(out, "\nSources:\n")
		for _, s := range answer.Sources {
			fmt.Fprintf(out, "  [%.3f] %s #%d\n", s.Score, s.Source, s.ChunkIndex)
		}
	}
	return nil
}
