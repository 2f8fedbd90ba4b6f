package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/mdscrape/internal/model"
)

// SimpleWriter outputs human-readable text summaries.
// This format is designed for terminal display after a crawl.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose lists every page instead of only failures.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with every saved page listed.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs one block per session.
func (w *SimpleWriter) Write(reports ...*model.SessionReport) (int, error) {
	var sb strings.Builder

	for _, report := range reports {
		if report == nil {
			continue
		}
		w.writeSession(&sb, report)
	}

	return w.output.Write([]byte(sb.String()))
}

// writeSession writes the summary of one session.
func (w *SimpleWriter) writeSession(sb *strings.Builder, report *model.SessionReport) {
	saved, failed := report.Counts()

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "Seed:     %s\n", report.Seed)
	fmt.Fprintf(sb, "Session:  %s\n", report.ID)
	fmt.Fprintf(sb, "Policy:   %s\n", report.Policy)
	fmt.Fprintf(sb, "Duration: %s\n", report.Duration().Round(time.Millisecond))
	fmt.Fprintf(sb, "Pages:    %d saved, %d failed\n", saved, failed)
	fmt.Fprintf(sb, "Crawl:    %d scheduled, %d fetched, %d unreachable, %d pending\n",
		report.Stats.Scheduled, report.Stats.Fetched, report.Stats.FetchFailed, report.Stats.Pending)
	fmt.Fprintf(sb, "Status:   %s\n", statusText(report))

	if w.verbose {
		for _, p := range report.SavedPages() {
			fmt.Fprintf(sb, "  [+] %s -> %s\n", p.URL, strings.Join(p.Paths, ", "))
		}
	}
	for _, p := range report.Pages {
		if p.Saved() {
			continue
		}
		fmt.Fprintf(sb, "  [!] %s: %s\n", p.URL, p.Error)
	}
	sb.WriteString("\n")
}
