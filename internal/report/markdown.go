package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/mdscrape/internal/model"
)

// IndexFileName is the name of the index written into an output directory.
const IndexFileName = "index.md"

// MarkdownWriter outputs session reports as a Markdown index.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter

	// linkDir is the directory page links are made relative to.
	// Empty keeps the paths as recorded.
	linkDir string
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
// Page links are made relative to linkDir when it is not empty.
func NewMarkdownWriter(output io.Writer, linkDir string) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		linkDir:    linkDir,
	}
}

// Write outputs one section per session.
func (w *MarkdownWriter) Write(reports ...*model.SessionReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Crawl Index")
	md.PlainText("")

	for _, report := range reports {
		if report == nil {
			continue
		}
		w.writeSession(md, report)
	}

	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeSession writes the summary table, the page list and the failures
// of one session.
func (w *MarkdownWriter) writeSession(md *markdown.Markdown, report *model.SessionReport) {
	saved, failed := report.Counts()

	md.H2(report.Seed)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Session", "`" + report.ID + "`"},
			{"Policy", report.Policy},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration().Round(time.Millisecond).String()},
			{"Saved Pages", strconv.Itoa(saved)},
			{"Failed Pages", strconv.Itoa(failed)},
			{"Status", statusText(report)},
		},
	})
	md.PlainText("")

	w.writeAlert(md, report, failed)

	if saved > 0 && failed > 0 {
		w.writePieChart(md, saved, failed)
	}

	w.writePages(md, report)
	w.writeFailures(md, report)
}

// writeAlert writes an alert summarizing the session outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.SessionReport, failed int) {
	switch {
	case report.ErrorMessage != "":
		md.Cautionf("The crawl could not run: %s", report.ErrorMessage)
	case report.Cancelled:
		md.Importantf("The crawl was cancelled. Only %d page(s) were processed.", len(report.Pages))
	case failed > 0:
		md.Warningf("%d page(s) could not be saved.", failed)
	default:
		md.Tip("Every page was saved.")
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of saved and failed pages.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, saved, failed int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Page Outcomes"),
		piechart.WithShowData(true),
	)
	chart.LabelAndIntValue("Saved", uint64(saved))
	chart.LabelAndIntValue("Failed", uint64(failed))

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writePages writes the table of saved pages in processing order.
func (w *MarkdownWriter) writePages(md *markdown.Markdown, report *model.SessionReport) {
	md.H3("Pages")
	md.PlainText("")

	pages := report.SavedPages()
	if len(pages) == 0 {
		md.PlainText("No pages were saved.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(pages))
	for i, p := range pages {
		rows[i] = []string{
			w.pageLink(p),
			p.URL,
			strconv.Itoa(p.Depth),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Title", "Source", "Depth"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFailures lists pages that were not saved.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *model.SessionReport) {
	items := make([]string, 0)
	for _, p := range report.Pages {
		if p.Saved() {
			continue
		}
		items = append(items, fmt.Sprintf("%s (%s): %s", p.URL, p.Status, truncateString(p.Error, 120)))
	}
	if len(items) == 0 {
		return
	}

	md.H3("Failed Pages")
	md.PlainText("")
	md.BulletList(items...)
	md.PlainText("")
}

// pageLink returns a Markdown link from the index to the page's first file.
func (w *MarkdownWriter) pageLink(p model.PageResult) string {
	title := escapeCell(p.Title)
	if len(p.Paths) == 0 {
		return title
	}
	target := p.Paths[0]
	if w.linkDir != "" {
		if rel, err := filepath.Rel(w.linkDir, target); err == nil {
			target = rel
		}
	}
	return "[" + title + "](" + filepath.ToSlash(target) + ")"
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Index generated by [mdscrape](https://github.com/nao1215/mdscrape)*")
}

// WriteIndex writes index.md for the reports into dir and returns its path.
func WriteIndex(dir string, reports ...*model.SessionReport) (string, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create index directory: %w", err)
	}

	path := filepath.Join(dir, IndexFileName)
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to create index: %w", err)
	}
	defer f.Close()

	if _, err := NewMarkdownWriter(f, dir).Write(reports...); err != nil {
		return "", fmt.Errorf("failed to write index: %w", err)
	}
	return path, nil
}

// escapeCell keeps a value from breaking a Markdown table row.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
