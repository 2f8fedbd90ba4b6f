package report

import (
	"io"

	"github.com/nao1215/mdscrape/internal/model"
)

// Writer defines the interface for report output.
// Implementations write session summaries in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files or stdout with the
// same API.
type Writer interface {
	// Write outputs the session reports to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(reports ...*model.SessionReport) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write reports, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the reports to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(reports ...*model.SessionReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(reports...)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// statusText returns a one-line session status.
func statusText(report *model.SessionReport) string {
	switch {
	case report.ErrorMessage != "":
		return "Error - " + report.ErrorMessage
	case report.Cancelled:
		return "Cancelled (partial results)"
	default:
		return "Complete"
	}
}
