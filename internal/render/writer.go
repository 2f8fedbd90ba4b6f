package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Format is an output file format.
type Format string

const (
	// FormatMarkdown writes <name>.md files.
	FormatMarkdown Format = "markdown"

	// FormatHTML writes <name>.html files.
	FormatHTML Format = "html"

	// FormatPDF writes <name>.pdf files.
	FormatPDF Format = "pdf"
)

// Default output directories per format.
const (
	DefaultMarkdownDir = "output_markdown"
	DefaultHTMLDir     = "output_html"
	DefaultPDFDir      = "output_pdf"
)

// ErrEmptyName is returned when an Output has no name.
var ErrEmptyName = errors.New("output name is empty")

// ParseFormat converts a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	case FormatHTML:
		return FormatHTML, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// DefaultDir returns the default output directory for the format.
func (f Format) DefaultDir() string {
	switch f {
	case FormatHTML:
		return DefaultHTMLDir
	case FormatPDF:
		return DefaultPDFDir
	default:
		return DefaultMarkdownDir
	}
}

// Output is one assembled page ready to be written.
type Output struct {
	// Name is the file name without extension.
	Name string

	// Title is the page title, used for the HTML <title>.
	Title string

	// SourceURL is the page the document was extracted from.
	SourceURL string

	// Markdown is the assembled document.
	Markdown string
}

// Writer persists an Output and returns the path it wrote.
type Writer interface {
	Write(ctx context.Context, out Output) (string, error)
}

// writeFile creates dir if needed and writes data to dir/name+ext.
func writeFile(dir, name, ext string, data []byte) (string, error) {
	if name == "" {
		return "", ErrEmptyName
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, name+ext)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
