// Package markdown serializes an extracted page into a Markdown document.
//
// The output format is fixed: a level-1 title, then paragraphs, level-2
// headings and fenced code blocks, each followed by a blank line. The
// result carries no trailing whitespace.
package markdown
