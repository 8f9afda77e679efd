// ABOUTME: CLI command to preview how a document is chunked
// ABOUTME: Runs the configured chunker without touching the vector store
package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harper/ragdoc/internal/app"
	"github.com/harper/ragdoc/internal/core"
	"github.com/harper/ragdoc/internal/pdf"
)

var (
	chunkStrategy  string
	chunkThreshold float64
	chunkSize      int
)

type chunkView struct {
	Index int    `json:"index"`
	Size  int    `json:"size"`
	Text  string `json:"text"`
}

// NewChunkCmd creates the chunk command
func NewChunkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chunk <file>",
		Short: "Print the chunks a file would be split into",
		Long: `Split a PDF or text file into chunks and print them.

Nothing is stored. Use this to tune the chunk size, similarity threshold,
and strategy before ingesting.

Examples:
  ragdoc chunk paper.pdf
  ragdoc chunk notes.txt --threshold 0.7 --size 512
  ragdoc chunk notes.txt --strategy window --format json`,
		Args: cobra.ExactArgs(1),
		RunE: runChunk,
	}

	cmd.Flags().StringVar(&chunkStrategy, "strategy", "", "Chunking strategy: semantic or window (default from config)")
	cmd.Flags().Float64Var(&chunkThreshold, "threshold", 0, "Similarity threshold (default from config)")
	cmd.Flags().IntVar(&chunkSize, "size", 0, "Maximum chunk size in characters (default from config)")

	return cmd
}

func runChunk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if chunkStrategy != "" {
		cfg.ChunkStrategy = chunkStrategy
	}
	if cmd.Flags().Changed("threshold") {
		cfg.SimilarityThreshold = chunkThreshold
	}
	if cmd.Flags().Changed("size") {
		cfg.ChunkSize = chunkSize
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	text, err := readDocument(args[0])
	if err != nil {
		return err
	}

	log := newLogger(cmd, cfg)
	embedder, err := app.NewEmbeddingClient(cfg)
	if err != nil {
		return err
	}
	var observer core.ProgressObserver
	if !quiet {
		observer = newProgressPrinter(cmd.ErrOrStderr())
	}
	chunker, err := app.NewChunker(cfg, embedder, observer, log)
	if err != nil {
		return err
	}

	chunks, err := chunker.Chunk(commandContext(cmd), text)
	if err != nil {
		return fmt.Errorf("chunking %s: %w", args[0], err)
	}

	views := make([]chunkView, len(chunks))
	for i, c := range chunks {
		views[i] = chunkView{Index: i, Size: len(c), Text: c}
	}

	out := cmd.OutOrStdout()
	if useJSON(out) {
		return printJSON(out, views)
	}
	for _, v := range views {
		fmt.Fprintf(out, "--- chunk %d (%d chars) ---\n%s\n\n", v.Index, v.Size, v.Text)
	}
	if !quiet {
		fmt.Fprintf(out, "%d chunk(s) using the %s strategy\n", len(views), cfg.ChunkStrategy)
	}
	return nil
}

// readDocument returns the text of a PDF or plain-text file
func readDocument(path string) (string, error) {
	if pdf.IsPDF(path) {
		doc, err := pdf.Extract(path, 0)
		if err != nil {
			return "", err
		}
		if !doc.HasText() {
			return "", fmt.Errorf("%s: %w", doc.Name, pdf.ErrNoText)
		}
		return doc.Text(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}
