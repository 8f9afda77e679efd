// ABOUTME: Root command for the ragdoc CLI with global flags
// ABOUTME: Wires every subcommand and resolves the output format

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Output formats
const (
	formatAuto  = "auto"
	formatJSON  = "json"
	formatTable = "table"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
	configPath   string
)

const banner = `
██████╗  █████╗  ██████╗ ██████╗  ██████╗  ██████╗
██╔══██╗██╔══██╗██╔════╝ ██╔══██╗██╔═══██╗██╔════╝
██████╔╝███████║██║  ███╗██║  ██║██║   ██║██║
██╔══██╗██╔══██║██║   ██║██║  ██║██║   ██║██║
██║  ██║██║  ██║╚██████╔╝██████╔╝╚██████╔╝╚██████╗
╚═╝  ╚═╝╚═╝  ╚═╝ ╚═════╝ ╚═════╝  ╚═════╝  ╚═════╝`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ragdoc",
		Short: "Semantic chunking and question answering over your documents",
		Long: banner + `

Ragdoc splits PDFs and text files into semantically coherent chunks,
embeds them with an OpenAI-compatible model (Ollama by default), stores
them in a vector store, and answers questions from the retrieved chunks.

Configuration comes from environment variables, an optional .env file,
and an optional YAML file passed with --config or RAGDOC_CONFIG.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch outputFormat {
			case formatAuto, formatJSON, formatTable:
				return nil
			default:
				return fmt.Errorf("invalid --format %q (want auto, json, or table)", outputFormat)
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only print results and errors")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", formatAuto, "Output format: auto, json, or table")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(
		NewIngestCmd(),
		NewChunkCmd(),
		NewInspectCmd(),
		NewSearchCmd(),
		NewAskCmd(),
		NewClearCmd(),
		NewSyncCmd(),
		NewMCPCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
