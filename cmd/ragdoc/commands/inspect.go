// ABOUTME: CLI command to show PDF details and a text preview
// ABOUTME: Reads only the first few pages so large files open quickly
package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harper/ragdoc/internal/pdf"
)

var (
	inspectPages int
)

type inspectView struct {
	Name      string     `json:"name"`
	Path      string     `json:"path"`
	SizeBytes int64      `json:"size_bytes"`
	NumPages  int        `json:"num_pages"`
	Preview   []pdf.Page `json:"preview"`
}

// NewInspectCmd creates the inspect command
func NewInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <pdf>",
		Short: "Show PDF details and preview its first pages",
		Long: `Show the file name, size, and page count of a PDF together with
the extracted text of its first pages.

Examples:
  ragdoc inspect handbook.pdf
  ragdoc inspect handbook.pdf --pages 2`,
		Args: cobra.ExactArgs(1),
		RunE: runInspect,
	}

	cmd.Flags().IntVar(&inspectPages, "pages", pdf.PreviewPages, "Number of pages to preview")

	return cmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	if err := validatePositiveInt(inspectPages, "pages"); err != nil {
		return err
	}
	path := args[0]
	if !pdf.IsPDF(path) {
		return fmt.Errorf("%s is not a PDF", path)
	}

	doc, err := pdf.Extract(path, inspectPages)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if useJSON(out) {
		return printJSON(out, inspectView{
			Name:      doc.Name,
			Path:      doc.Path,
			SizeBytes: doc.SizeBytes,
			NumPages:  doc.NumPages,
			Preview:   doc.Pages,
		})
	}

	fmt.Fprintf(out, "File:  %s\n", doc.Name)
	fmt.Fprintf(out, "Size:  %s\n", formatBytes(doc.SizeBytes))
	fmt.Fprintf(out, "Pages: %d\n", doc.NumPages)
	for _, page := range doc.Pages {
		text := strings.TrimSpace(page.Text)
		if text == "" {
			text = "(no extractable text)"
		}
		fmt.Fprintf(out, "\n--- page %d ---\n%s\n", page.Number, text)
	}
	return nil
}

// formatBytes renders a size with a binary unit
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
