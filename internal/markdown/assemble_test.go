package markdown

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/nao1215/mdscrape/internal/extract"
	"github.com/nao1215/mdscrape/internal/model"
)

func TestAssemble(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  *model.PageDocument
		want string
	}{
		{
			name: "title only",
			doc:  model.NewPageDocument("Getting Started", "u"),
			want: "# Getting Started",
		},
		{
			name: "empty title becomes untitled",
			doc:  &model.PageDocument{},
			want: "# untitled",
		},
		{
			name: "paragraph heading and code",
			doc: &model.PageDocument{
				Title: "Guide",
				Blocks: []model.Block{
					model.Paragraph{Runs: []model.TextRun{
						model.PlainText("See"),
						model.Link("the guide", "https://x/guide"),
						model.PlainText("for details."),
					}},
					model.NewHeading("Installation"),
					model.NewCodeBlock("\n  npm install foo\n"),
				},
			},
			want: "# Guide\n\n" +
				"See [the guide](https://x/guide) for details.\n\n" +
				"## Installation\n\n" +
				"```bash\nnpm install foo\n```",
		},
		{
			name: "empty paragraph keeps its blank line",
			doc: &model.PageDocument{
				Title: "T",
				Blocks: []model.Block{
					model.Paragraph{},
					model.NewHeading("H"),
				},
			},
			want: "# T\n\n\n\n## H",
		},
		{
			name: "multi-line code is kept verbatim",
			doc: &model.PageDocument{
				Title: "T",
				Blocks: []model.Block{
					model.NewHeading("Build"),
					model.NewCodeBlock("make\n  make install"),
				},
			},
			want: "# T\n\n## Build\n\n```bash\nmake\n  make install\n```",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Assemble(tt.doc)
			if got != tt.want {
				t.Errorf("Assemble() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestAssembleNil(t *testing.T) {
	t.Parallel()

	if got := Assemble(nil); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestAssembleIsIdempotent(t *testing.T) {
	t.Parallel()

	doc := &model.PageDocument{
		Title: "Idempotent",
		Blocks: []model.Block{
			model.Paragraph{Runs: []model.TextRun{model.PlainText("one")}},
			model.NewHeading("Two"),
			model.NewCodeBlock("three"),
		},
	}

	first := Assemble(doc)
	second := Assemble(doc)
	if first != second {
		t.Errorf("expected identical output, got %q and %q", first, second)
	}
}

// TestAssembleFromExtractedPage covers extraction and assembly together.
func TestAssembleFromExtractedPage(t *testing.T) {
	t.Parallel()

	src := `<html><body><main>
<h1>Getting Started</h1>
<p>See <a href="https://x/guide">the guide</a> for details.</p>
<h2>Installation</h2>
<pre><code>npm install foo</code></pre>
</main></body></html>`

	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}

	var main *html.Node
	var find func(*html.Node)
	find = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "main" {
			main = n
			return
		}
		for c := n.FirstChild; c != nil && main == nil; c = c.NextSibling {
			find(c)
		}
	}
	find(root)

	page := extract.NewExtractor().Extract(root, main, "https://example.com/start")
	got := Assemble(page)

	wantPrefix := "# Getting Started\n\nSee [the guide](https://x/guide) for details."
	if !strings.HasPrefix(got, wantPrefix) {
		t.Errorf("expected prefix %q, got %q", wantPrefix, got)
	}
	wantSection := "## Installation\n\n```bash\nnpm install foo\n```"
	if !strings.Contains(got, wantSection) {
		t.Errorf("expected section %q in %q", wantSection, got)
	}
}
