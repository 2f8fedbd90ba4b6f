package extract

import (
	"golang.org/x/net/html"

	"github.com/nao1215/mdscrape/internal/model"
)

// Extractor walks a page's main content region and produces a PageDocument.
//
// Design decision: The extractor receives already-located nodes (document
// root and main region) rather than raw HTML because:
//  1. Region location depends on per-site selectors owned by the fetcher
//  2. It keeps this package free of I/O and parse errors
//  3. Tests can build trees directly from small HTML snippets
type Extractor struct {
	// mode selects paragraph, section and link handling.
	mode Mode
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMode sets the extraction mode. The default is ModeStructural.
func WithMode(mode Mode) Option {
	return func(e *Extractor) {
		e.mode = mode
	}
}

// NewExtractor creates an Extractor with the given options.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{mode: ModeStructural}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Mode returns the extractor's mode.
func (e *Extractor) Mode() Mode {
	return e.mode
}

// Extract builds a PageDocument from a parsed page.
//
// doc is the document root used to find the title; main is the content
// region. Either may be nil: a nil doc falls back to main for the title, and
// a nil main yields a document with a title and no blocks.
func (e *Extractor) Extract(doc, main *html.Node, sourceURL string) *model.PageDocument {
	titleRoot := doc
	if titleRoot == nil {
		titleRoot = main
	}
	page := model.NewPageDocument(Title(titleRoot), sourceURL)
	if main == nil {
		return page
	}

	if e.mode == ModeLegacy {
		extractLegacy(main, page)
	} else {
		extractStructural(main, page)
	}
	return page
}

// Title returns the collapsed text of the first <h1> under root,
// or model.UntitledTitle when there is none or it is empty.
func Title(root *html.Node) string {
	if root == nil {
		return model.UntitledTitle
	}
	var h1 *html.Node
	if isElement(root, elementHeading1) {
		h1 = root
	} else {
		h1 = findFirst(root, elementHeading1)
	}
	if h1 == nil {
		return model.UntitledTitle
	}
	if title := collapsedText(h1); title != "" {
		return title
	}
	return model.UntitledTitle
}

// extractStructural emits every block from a single depth-first walk.
//
// Each <h2> opens a section window that lasts until the next <h2> in
// document order. Paragraphs are emitted where they occur, once. Only the
// first code block of each window is emitted, at its position. Code that
// appears before the first <h2> does not belong to any window and is
// skipped.
func extractStructural(main *html.Node, page *model.PageDocument) {
	inWindow := false
	codeDone := false

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case elementParagraph:
				runs := NormalizeRuns(c, ModeStructural)
				if len(runs) > 0 {
					page.Append(model.Paragraph{Runs: runs})
				}
			case elementHeading2:
				if text := collapsedText(c); text != "" {
					page.Append(model.NewHeading(text))
				}
				inWindow = true
				codeDone = false
			case elementPre:
				if !inWindow || codeDone {
					continue
				}
				if block, ok := codeBlock(c); ok && block.Content != "" {
					page.Append(block)
					codeDone = true
				}
			default:
				walk(c)
			}
		}
	}
	walk(main)
}

// extractLegacy runs the lead-paragraph pass followed by the section pass.
//
// The lead pass emits every <p> under main. The section pass then emits, for
// each <h2>, the heading, every <p> inside the following siblings up to the
// next <h2> sibling, and the window's first code block. Paragraphs that
// follow an <h2> are therefore emitted twice.
func extractLegacy(main *html.Node, page *model.PageDocument) {
	for _, p := range findAll(main, elementParagraph) {
		page.Append(model.Paragraph{Runs: legacyRuns(p)})
	}

	for _, h2 := range findAll(main, elementHeading2) {
		if text := collapsedText(h2); text != "" {
			page.Append(model.NewHeading(text))
		}

		window := sectionWindow(h2)
		for _, sibling := range window {
			for _, p := range findAllSelf(sibling, elementParagraph) {
				page.Append(model.Paragraph{Runs: legacyRuns(p)})
			}
		}

		if block, ok := firstWindowCode(window); ok {
			page.Append(block)
		}
	}
}

// sectionWindow returns the element siblings following h2, stopping before
// the next <h2> sibling.
func sectionWindow(h2 *html.Node) []*html.Node {
	window := make([]*html.Node, 0)
	for s := h2.NextSibling; s != nil; s = s.NextSibling {
		if s.Type != html.ElementNode {
			continue
		}
		if isElement(s, elementHeading2) {
			break
		}
		window = append(window, s)
	}
	return window
}

// firstWindowCode returns the first `pre code` element inside the window.
// A blank one still ends the search and yields an empty fence.
func firstWindowCode(window []*html.Node) (model.CodeBlock, bool) {
	for _, el := range window {
		for _, pre := range findAllSelf(el, elementPre) {
			if block, ok := codeBlock(pre); ok {
				return block, true
			}
		}
	}
	return model.CodeBlock{}, false
}

// codeBlock converts the first <code> inside pre into a CodeBlock.
// It reports false when pre has no <code>.
func codeBlock(pre *html.Node) (model.CodeBlock, bool) {
	code := findFirst(pre, elementCode)
	if code == nil {
		return model.CodeBlock{}, false
	}
	return model.NewCodeBlock(rawText(code)), true
}
