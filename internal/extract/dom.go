package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// HTML element names the extractor cares about.
const (
	elementParagraph = "p"
	elementHeading1  = "h1"
	elementHeading2  = "h2"
	elementAnchor    = "a"
	elementPre       = "pre"
	elementCode      = "code"
	elementBreak     = "br"
)

// isElement reports whether n is an element node with the given tag name.
func isElement(n *html.Node, tag string) bool {
	return n != nil && n.Type == html.ElementNode && n.Data == tag
}

// findFirst returns the first descendant of n (excluding n) with the given
// tag, in document order.
func findFirst(n *html.Node, tag string) *html.Node {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isElement(c, tag) {
			return c
		}
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// findAll returns every descendant of n (excluding n) with the given tag,
// in document order.
func findAll(n *html.Node, tag string) []*html.Node {
	var found []*html.Node
	if n == nil {
		return found
	}
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if isElement(c, tag) {
				found = append(found, c)
			}
			walk(c)
		}
	}
	walk(n)
	return found
}

// findAllSelf is findAll including n itself.
func findAllSelf(n *html.Node, tag string) []*html.Node {
	if isElement(n, tag) {
		return append([]*html.Node{n}, findAll(n, tag)...)
	}
	return findAll(n, tag)
}

// textNodes returns the data of every descendant text node, in order.
func textNodes(n *html.Node) []string {
	tokens := make([]string, 0)
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				tokens = append(tokens, c.Data)
			}
			walk(c)
		}
	}
	walk(n)
	return tokens
}

// rawText concatenates all descendant text without altering whitespace.
func rawText(n *html.Node) string {
	return strings.Join(textNodes(n), "")
}

// collapsedText returns the text content of n with whitespace runs
// collapsed to single spaces and the ends trimmed.
func collapsedText(n *html.Node) string {
	return collapseSpace(rawText(n))
}

// collapseSpace collapses whitespace runs to single spaces and trims.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// hasAttr reports whether the node carries the attribute at all.
func hasAttr(n *html.Node, key string) bool {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return true
		}
	}
	return false
}

// startsWithSpace reports whether s begins with a whitespace rune.
func startsWithSpace(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsSpace(r)
}

// endsWithSpace reports whether s ends with a whitespace rune.
func endsWithSpace(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return unicode.IsSpace(r)
}
