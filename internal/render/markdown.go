package render

import "context"

// MarkdownWriter writes documents as <name>.md.
type MarkdownWriter struct {
	dir string
}

// NewMarkdownWriter creates a MarkdownWriter that writes into dir.
func NewMarkdownWriter(dir string) *MarkdownWriter {
	if dir == "" {
		dir = DefaultMarkdownDir
	}
	return &MarkdownWriter{dir: dir}
}

// Write stores out.Markdown byte for byte. The assembled text is already
// trimmed, so the file has no trailing newline.
func (w *MarkdownWriter) Write(_ context.Context, out Output) (string, error) {
	return writeFile(w.dir, out.Name, ".md", []byte(out.Markdown))
}
