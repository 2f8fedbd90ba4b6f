package model

// UntitledTitle is the title used when a page has no usable <h1>.
const UntitledTitle = "untitled"

// PageDocument represents the structured content extracted from one page.
//
// A PageDocument is created once per fetched page by the extractor and is
// not modified afterwards. The pipeline that produced it hands the pointer
// on to the output stage; nothing else keeps a reference.
//
// Design decision: We keep blocks as a flat ordered slice instead of a tree
// of sections because:
//  1. The Markdown output is flat (H2 is the only nesting level)
//  2. Sections are a traversal window, not stored state
//  3. Assembly stays a single linear pass
type PageDocument struct {
	// Title is the text of the page's first <h1>.
	// UntitledTitle when the page has none.
	Title string `json:"title"`

	// SourceURL is the URL the page was fetched from.
	SourceURL string `json:"source_url"`

	// Blocks holds the page content in document order.
	Blocks []Block `json:"-"`
}

// NewPageDocument creates a PageDocument, applying the title default.
func NewPageDocument(title, sourceURL string) *PageDocument {
	if title == "" {
		title = UntitledTitle
	}
	return &PageDocument{
		Title:     title,
		SourceURL: sourceURL,
		Blocks:    make([]Block, 0),
	}
}

// Append adds blocks to the end of the document.
// It is intended for use by the extractor while the document is being built.
func (d *PageDocument) Append(blocks ...Block) {
	d.Blocks = append(d.Blocks, blocks...)
}

// CountBlocks returns the number of blocks of each kind.
func (d *PageDocument) CountBlocks() (paragraphs, headings, codeBlocks int) {
	for _, b := range d.Blocks {
		switch b.(type) {
		case Paragraph:
			paragraphs++
		case Heading:
			headings++
		case CodeBlock:
			codeBlocks++
		}
	}
	return paragraphs, headings, codeBlocks
}
