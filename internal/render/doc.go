// Package render writes assembled Markdown documents to disk.
//
// Three writers are provided: MarkdownWriter stores the document as-is,
// HTMLWriter converts it with goldmark, and PDFWriter prints that HTML to
// PDF through headless Chrome. Every writer creates its output directory
// on first use and names files after Output.Name.
package render
