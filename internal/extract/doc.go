// Package extract turns a page's HTML tree into a model.PageDocument.
//
// # Components
//
//   - Normalizer: converts a <p> element and its <a> elements into text runs
//   - Extractor: walks the main content region and emits Paragraph, Heading
//     and CodeBlock blocks in document order
//
// The extractor targets documentation pages laid out as a main content area
// with paragraphs, <h2>-delimited sections and <pre><code> blocks. It is not a
// general-purpose HTML-to-Markdown converter.
//
// # Modes
//
// Two extraction modes exist:
//
//   - ModeStructural (default): one depth-first walk. Every paragraph is
//     emitted exactly once and links are substituted by node identity.
//   - ModeLegacy: reproduces the behaviour of the first scraper generation.
//     Paragraphs are collected in a lead pass over the whole main region and
//     again per section, so a paragraph after an <h2> appears twice. Links
//     are substituted by string equality, which over-substitutes when the
//     anchor text also occurs as plain text in the same paragraph.
//
// ModeLegacy exists so that output can be reproduced byte for byte against
// archives produced by the earlier tool.
//
// ModeStructural deliberately departs from it in three ways:
//   - no lead/section duplication: a paragraph is emitted once
//   - a window runs in document order from one <h2> to the next, so it
//     crosses parent boundaries; legacy windows are limited to the
//     heading's following siblings
//   - a blank code element is skipped and the window's next one is used;
//     legacy stops at the first code element and emits an empty fence
//
// All functions in this package are pure: they never perform I/O and never
// return errors. Missing elements degrade to omissions or defaults.
package extract
