// Package model defines the core data structures shared by the extractor,
// the assembler, the crawler and the output stage.
//
// This package contains the following main types:
//   - PageDocument: The structured content of one fetched page
//   - Block: A semantic unit of content (Paragraph, Heading, CodeBlock)
//   - TextRun: A plain-text or hyperlink span inside a paragraph
//   - FrontierEntry: A URL waiting in a crawl session's frontier
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The extract, markdown, crawler and pipeline packages all
// need these types, so centralizing them prevents import cycles.
package model
