package extract

import (
	"golang.org/x/net/html"

	"github.com/nao1215/mdscrape/internal/model"
)

// NormalizeText converts a text-bearing element into a single Markdown line
// using the legacy equality-based substitution.
//
// The element's descendant text nodes are taken as tokens in document order,
// whitespace-only tokens included. For each descendant <a>, every token
// whose value equals the anchor's display text is replaced by
// "[text](href)". Tokens are then joined with one space and trimmed.
//
// The result is deterministic, but it is not correct when the anchor text
// is not unique within the element: a plain-text token that happens to equal
// the anchor text is rewritten too.
func NormalizeText(n *html.Node) string {
	return model.Paragraph{Runs: legacyRuns(n)}.Text()
}

// NormalizeRuns converts a text-bearing element into text runs using the
// given mode.
func NormalizeRuns(n *html.Node, mode Mode) []model.TextRun {
	if n == nil {
		return []model.TextRun{}
	}
	if mode == ModeLegacy {
		return legacyRuns(n)
	}
	return structuralRuns(n)
}

// legacyRuns implements the equality-based substitution.
// Each token becomes one run; replaced tokens become link runs.
func legacyRuns(n *html.Node) []model.TextRun {
	tokens := textNodes(n)
	runs := make([]model.TextRun, len(tokens))
	for i, t := range tokens {
		runs[i] = model.PlainText(t)
	}

	for _, a := range findAll(n, elementAnchor) {
		// The display text is the anchor's first text node, as is.
		texts := textNodes(a)
		if len(texts) == 0 || !hasAttr(a, "href") {
			continue
		}
		linkText := texts[0]
		href := getAttr(a, "href")

		// Compare against the current rendering so that a token already
		// rewritten by an earlier anchor is not matched again by the
		// same text.
		for i := range runs {
			if runs[i].Markdown() == linkText {
				runs[i] = model.Link(linkText, href)
			}
		}
	}

	return runs
}

// structuralRuns walks the element once. Text inside an <a> becomes that
// anchor's link run; all other text becomes plain runs. Whitespace is
// collapsed and runs not separated by whitespace in the source are glued.
func structuralRuns(n *html.Node) []model.TextRun {
	b := &runBuilder{runs: make([]model.TextRun, 0)}
	b.walk(n)
	return b.runs
}

// runBuilder accumulates runs and tracks whether whitespace separated the
// previous run from the next one.
type runBuilder struct {
	runs []model.TextRun

	// spaceBefore is true when whitespace was seen since the last run.
	spaceBefore bool
}

func (b *runBuilder) walk(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			b.add(c.Data, "", false)
		case html.ElementNode:
			switch c.Data {
			case elementAnchor:
				if hasAttr(c, "href") {
					b.add(rawText(c), getAttr(c, "href"), true)
				} else {
					b.walk(c)
				}
			case elementBreak:
				b.spaceBefore = true
			default:
				b.walk(c)
			}
		}
	}
}

// add appends raw text as a run, collapsing its whitespace.
func (b *runBuilder) add(raw, href string, isLink bool) {
	text := collapseSpace(raw)
	if text == "" {
		if raw != "" {
			b.spaceBefore = true
		}
		return
	}

	leading := startsWithSpace(raw)
	trailing := endsWithSpace(raw)

	run := model.PlainText(text)
	if isLink {
		run = model.Link(text, href)
	}
	run.Glued = len(b.runs) > 0 && !b.spaceBefore && !leading

	// Adjacent plain text nodes (split by inline markup such as <em>) are
	// merged so the rendering is not affected by formatting tags.
	if !isLink && run.Glued && !b.runs[len(b.runs)-1].IsLink() {
		last := &b.runs[len(b.runs)-1]
		last.Text += text
	} else {
		b.runs = append(b.runs, run)
	}
	b.spaceBefore = trailing
}
