package model

import "strings"

// DefaultCodeLanguage is the fence language written for every code block.
// The target sites only publish shell snippets inside <pre><code>.
const DefaultCodeLanguage = "bash"

// HeadingLevel is the only heading level emitted inside a page body.
const HeadingLevel = 2

// Block is a semantic unit of page content.
// It is implemented by Paragraph, Heading and CodeBlock only.
//
// Design decision: We use a sealed interface (unexported method) rather than
// a struct with a kind field because:
//  1. A type switch over the three variants is checked by the compiler
//  2. Each variant only carries the fields that make sense for it
//  3. Other packages cannot add variants the assembler does not know about
type Block interface {
	block()
}

// Paragraph is a run of text with inline links.
type Paragraph struct {
	// Runs holds the paragraph's plain-text and link spans in order.
	Runs []TextRun
}

// Heading is a section heading. Level is always HeadingLevel.
type Heading struct {
	Level int
	Text  string
}

// CodeBlock is a fenced code block.
type CodeBlock struct {
	// Language is the fence info string.
	Language string

	// Content is the code with leading and trailing whitespace trimmed.
	Content string
}

func (Paragraph) block() {}
func (Heading) block()   {}
func (CodeBlock) block() {}

// NewHeading creates a level-2 heading.
func NewHeading(text string) Heading {
	return Heading{Level: HeadingLevel, Text: text}
}

// NewCodeBlock creates a code block with the default language.
// The content is trimmed of surrounding whitespace.
func NewCodeBlock(content string) CodeBlock {
	return CodeBlock{
		Language: DefaultCodeLanguage,
		Content:  strings.TrimSpace(content),
	}
}

// TextRun is a span of paragraph text: plain text when Href is empty,
// a hyperlink otherwise.
type TextRun struct {
	// Text is the visible text of the run.
	Text string

	// Href is the link target. Empty for plain text.
	Href string

	// Glued means the run directly follows the previous one with no
	// whitespace between them in the source, so no separator is written.
	Glued bool
}

// PlainText creates a plain-text run.
func PlainText(text string) TextRun {
	return TextRun{Text: text}
}

// Link creates a hyperlink run.
func Link(text, href string) TextRun {
	return TextRun{Text: text, Href: href}
}

// IsLink reports whether the run is a hyperlink.
func (r TextRun) IsLink() bool {
	return r.Href != ""
}

// Markdown returns the run rendered as Markdown.
func (r TextRun) Markdown() string {
	if r.IsLink() {
		return "[" + r.Text + "](" + r.Href + ")"
	}
	return r.Text
}

// Text renders the paragraph as a single Markdown line: runs joined with
// one space (except before glued runs), then trimmed.
func (p Paragraph) Text() string {
	var sb strings.Builder
	for i, r := range p.Runs {
		if i > 0 && !r.Glued {
			sb.WriteString(" ")
		}
		sb.WriteString(r.Markdown())
	}
	return strings.TrimSpace(sb.String())
}
