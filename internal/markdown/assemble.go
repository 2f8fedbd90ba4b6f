package markdown

import (
	"strings"

	"github.com/nao1215/mdscrape/internal/model"
)

const (
	titlePrefix   = "# "
	headingPrefix = "## "
	codeFence     = "```"
	blockEnd      = "\n\n"
)

// Assemble renders the document as Markdown.
//
// Design decision: We build the text with strings.Builder instead of a
// Markdown generator library because:
//  1. The byte layout of every block is part of the output contract
//  2. Paragraph text already contains rendered inline links
//  3. Generators escape or reflow text, which would change that layout
func Assemble(doc *model.PageDocument) string {
	if doc == nil {
		return ""
	}

	title := doc.Title
	if title == "" {
		title = model.UntitledTitle
	}

	var sb strings.Builder
	sb.WriteString(titlePrefix)
	sb.WriteString(title)
	sb.WriteString(blockEnd)

	for _, b := range doc.Blocks {
		writeBlock(&sb, b)
	}
	return strings.TrimSpace(sb.String())
}

func writeBlock(sb *strings.Builder, b model.Block) {
	switch v := b.(type) {
	case model.Paragraph:
		sb.WriteString(v.Text())
		sb.WriteString(blockEnd)
	case model.Heading:
		sb.WriteString(headingPrefix)
		sb.WriteString(v.Text)
		sb.WriteString(blockEnd)
	case model.CodeBlock:
		lang := v.Language
		if lang == "" {
			lang = model.DefaultCodeLanguage
		}
		sb.WriteString(codeFence)
		sb.WriteString(lang)
		sb.WriteString("\n")
		sb.WriteString(v.Content)
		sb.WriteString("\n")
		sb.WriteString(codeFence)
		sb.WriteString(blockEnd)
	}
}
