package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/mdscrape/internal/model"
)

// JSONWriter outputs session reports in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because:
// 1. It's part of the standard library (no extra dependencies)
// 2. It's sufficient for our needs
// 3. It provides consistent behavior across Go versions
type JSONWriter struct {
	baseWriter

	// version is written into the envelope.
	version string

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion sets the version written into the envelope.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONReport is the envelope written by JSONWriter.
//
// Design decision: We wrap the reports rather than writing a bare array
// because this allows us to add output-specific fields without polluting
// the core data structure.
type JSONReport struct {
	// Version is the mdscrape version that generated this report.
	Version string `json:"version,omitempty"`

	// Sessions holds one report per crawled seed.
	Sessions []*model.SessionReport `json:"sessions"`
}

// Write outputs the reports as one JSON document.
func (w *JSONWriter) Write(reports ...*model.SessionReport) (int, error) {
	sessions := make([]*model.SessionReport, 0, len(reports))
	for _, r := range reports {
		if r != nil {
			sessions = append(sessions, r)
		}
	}
	return w.writeJSON(JSONReport{Version: w.version, Sessions: sessions})
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
