// ABOUTME: PDF text extraction for ingestion and previews
// ABOUTME: Wraps ledongthuc/pdf and reports per-page text plus file details
package pdf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PreviewPages is how many pages a preview shows
const PreviewPages = 5

// ErrNoText is returned when a PDF yields no extractable text
var ErrNoText = errors.New("no text found in the PDF file")

// Page is the text of one page, numbered from 1
type Page struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// Document is the extracted content of a PDF
type Document struct {
	Path      string `json:"path"`
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	NumPages  int    `json:"num_pages"`
	Pages     []Page `json:"pages"`
}

// Extract reads the text of the first maxPages pages of the PDF at path.
// maxPages <= 0 reads every page. NumPages is always the full page count.
func Extract(path string, maxPages int) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	doc := &Document{
		Path:      path,
		Name:      filepath.Base(path),
		SizeBytes: info.Size(),
		NumPages:  r.NumPage(),
	}

	limit := doc.NumPages
	if maxPages > 0 && maxPages < limit {
		limit = maxPages
	}
	for i := 1; i <= limit; i++ {
		text, err := pageText(r, i)
		if err != nil {
			return nil, fmt.Errorf("extracting page %d of %s: %w", i, path, err)
		}
		doc.Pages = append(doc.Pages, Page{Number: i, Text: text})
	}
	return doc, nil
}

// pageText extracts one page. The parser panics on some malformed content
// streams, so that is reported as an error.
func pageText(r *pdf.Reader, n int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed page: %v", rec)
		}
	}()

	p := r.Page(n)
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}

// Text joins the page texts with blank lines
func (d *Document) Text() string {
	var sb strings.Builder
	for _, p := range d.Pages {
		sb.WriteString(p.Text)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// HasText reports whether any page produced non-whitespace text
func (d *Document) HasText() bool {
	for _, p := range d.Pages {
		if strings.TrimSpace(p.Text) != "" {
			return true
		}
	}
	return false
}

// IsPDF reports whether path looks like a PDF by extension
func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
