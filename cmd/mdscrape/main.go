// Package main provides the entry point for the mdscrape CLI.
//
// mdscrape crawls a documentation site and converts each page into a
// Markdown file, optionally with HTML and PDF renditions.
//
// Usage:
//
//	mdscrape crawl <url>
//	mdscrape crawl --format markdown,html <url> <url>
//	mdscrape history [session-id]
//
// See --help for all available options.
package main

// main is the entry point for mdscrape.
func main() {
	Execute()
}
