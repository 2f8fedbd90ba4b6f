package render

import (
	"bytes"
	"context"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// HTMLWriter writes documents as standalone <name>.html pages.
//
// Design decision: We convert with goldmark rather than rendering blocks
// ourselves because:
//  1. The Markdown file is the source of truth and HTML must match it
//  2. goldmark is CommonMark compliant, so fences and links render as any viewer shows them
//  3. The same HTML feeds the PDF writer
type HTMLWriter struct {
	dir string
	md  goldmark.Markdown
}

// NewHTMLWriter creates an HTMLWriter that writes into dir.
func NewHTMLWriter(dir string) *HTMLWriter {
	if dir == "" {
		dir = DefaultHTMLDir
	}
	return &HTMLWriter{dir: dir, md: newMarkdownConverter()}
}

// Write converts out.Markdown to HTML and stores it.
func (w *HTMLWriter) Write(_ context.Context, out Output) (string, error) {
	page, err := renderHTML(w.md, out)
	if err != nil {
		return "", err
	}
	return writeFile(w.dir, out.Name, ".html", page)
}

// newMarkdownConverter returns the goldmark instance used for all HTML output.
func newMarkdownConverter() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
}

// renderHTML converts out.Markdown into a complete HTML document.
func renderHTML(md goldmark.Markdown, out Output) ([]byte, error) {
	var body bytes.Buffer
	if err := md.Convert([]byte(out.Markdown), &body); err != nil {
		return nil, fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&buf, "<title>%s</title>\n", html.EscapeString(out.Title))
	if out.SourceURL != "" {
		fmt.Fprintf(&buf, "<link rel=\"canonical\" href=\"%s\">\n", html.EscapeString(out.SourceURL))
	}
	buf.WriteString("</head>\n<body>\n")
	buf.Write(body.Bytes())
	buf.WriteString("</body>\n</html>\n")
	return buf.Bytes(), nil
}
